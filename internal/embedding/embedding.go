// Package embedding carries job-embedding refresh requests from the API to the
// external matching service, either through the message broker or directly over HTTP.
package embedding

import (
	"time"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
)

// ContentType marks refresh messages on the broker
const ContentType = "application/json"

// JobData is the job content the matching service embeds
type JobData struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Requirements    string `json:"requirements"`
	RequiredSkills  string `json:"requiredSkills"`
	ExperienceLevel string `json:"experienceLevel"`
	Company         string `json:"company"`
}

// RefreshRequest asks for a job embedding to be recomputed
type RefreshRequest struct {
	JobID       int64     `json:"job_id"`
	JobData     JobData   `json:"job_data"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewRefreshRequest builds a refresh request from a persisted job
func NewRefreshRequest(rec *domain.JobRecord, now time.Time) RefreshRequest {
	return RefreshRequest{
		JobID: rec.ID,
		JobData: JobData{
			ID:              rec.ID,
			Title:           rec.Title,
			Description:     rec.Description,
			Requirements:    rec.Requirements,
			RequiredSkills:  rec.RequiredSkills,
			ExperienceLevel: rec.ExperienceLevel,
			Company:         rec.Company,
		},
		RequestedAt: now,
	}
}
