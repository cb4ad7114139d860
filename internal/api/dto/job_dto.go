package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
	"github.com/cuongbtq/ats-ingest/internal/slug"
)

// Submission is the decoded body of POST /job-postings: a single object or a batch
type Submission struct {
	Batch bool
	Items []Item
}

// Item is one submitted job posting; Err is set when the element could not be decoded
type Item struct {
	Input domain.JobPostingInput
	Err   error
}

// ErrEmptyBody is returned when the request carries no JSON value
var ErrEmptyBody = errors.New("request body is empty")

// DecodeSubmission decides once whether the body is a single posting or a batch.
// Batch elements are decoded independently so one bad element does not sink its siblings.
func DecodeSubmission(body []byte) (*Submission, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to parse request body: malformed JSON")
	}

	switch body[0] {
	case '{':
		var in domain.JobPostingInput
		if err := json.Unmarshal(body, &in); err != nil {
			return &Submission{Items: []Item{{Err: err}}}, nil
		}
		return &Submission{Items: []Item{{Input: in}}}, nil

	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse request body: %w", err)
		}
		items := make([]Item, len(raw))
		for i, elem := range raw {
			if err := json.Unmarshal(elem, &items[i].Input); err != nil {
				items[i].Err = err
			}
		}
		return &Submission{Batch: true, Items: items}, nil

	default:
		return nil, fmt.Errorf("request body must be a JSON object or array")
	}
}

// JobPostingDTO is a job record as returned by the API, including its public slug
type JobPostingDTO struct {
	*domain.JobRecord
	Slug string `json:"slug"`
}

// NewJobPostingDTO wraps a record and computes its slug
func NewJobPostingDTO(rec *domain.JobRecord) *JobPostingDTO {
	if rec == nil {
		return nil
	}
	return &JobPostingDTO{
		JobRecord: rec,
		Slug:      slug.Generate(rec.Title, rec.Company, rec.City, rec.ExperienceLevel, rec.JobType, rec.ID),
	}
}

// SingleResponse is the body for a single-object submission or update
type SingleResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Job     *JobPostingDTO `json:"job,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// BatchResponse is the body for an array submission
type BatchResponse struct {
	Success          bool              `json:"success"`
	Message          string            `json:"message"`
	TotalJobs        int               `json:"totalJobs"`
	SuccessfulJobs   int               `json:"successfulJobs"`
	FailedJobs       int               `json:"failedJobs"`
	Results          []ItemResult      `json:"results"`
	Errors           []ItemError       `json:"errors"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
	Suggestions      []string          `json:"suggestions,omitempty"`
}

// ItemResult reports one persisted element of a batch
type ItemResult struct {
	Index   int            `json:"index"`
	Success bool           `json:"success"`
	Job     *JobPostingDTO `json:"job,omitempty"`
}

// ItemError reports one rejected element of a batch
type ItemError struct {
	Index       int               `json:"index"`
	Success     bool              `json:"success"`
	Error       string            `json:"error"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
}

// ErrorResponse is the body for request-level failures
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ListJobPostingsRequest holds the list query parameters
type ListJobPostingsRequest struct {
	CompanyID int64  `form:"companyId" binding:"omitempty,min=1"`
	JobStatus string `form:"jobStatus"`
	WorkType  string `form:"workType"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1"`
	Cursor    string `form:"cursor"`
}

// ListJobPostingsResponse is one page of job postings
type ListJobPostingsResponse struct {
	Jobs       []*JobPostingDTO `json:"jobs"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// JobListingResponse is returned when a job is resolved by slug
type JobListingResponse struct {
	Success       bool           `json:"success"`
	Job           *JobPostingDTO `json:"job"`
	CanonicalSlug string         `json:"canonicalSlug"`
	Redirect      bool           `json:"redirect"`
}
