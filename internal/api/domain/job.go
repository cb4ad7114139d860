package domain

import (
	"time"
)

// WorkType is the canonical upper-case work arrangement of a job posting
type WorkType string

const (
	WorkTypeOnsite WorkType = "ONSITE"
	WorkTypeRemote WorkType = "REMOTE"
	WorkTypeHybrid WorkType = "HYBRID"
)

// WorkTypes lists the accepted work types in display order
var WorkTypes = []WorkType{WorkTypeOnsite, WorkTypeRemote, WorkTypeHybrid}

// JobStatus is the canonical upper-case lifecycle status of a job posting
type JobStatus string

const (
	JobStatusActive JobStatus = "ACTIVE"
	JobStatusPaused JobStatus = "PAUSED"
	JobStatusClosed JobStatus = "CLOSED"
	JobStatusFilled JobStatus = "FILLED"
)

// JobStatuses lists the accepted job statuses in display order
var JobStatuses = []JobStatus{JobStatusActive, JobStatusPaused, JobStatusClosed, JobStatusFilled}

// JobPostingInput is the untrusted payload for one job posting
type JobPostingInput struct {
	Title           string `json:"title"`
	Company         string `json:"company"`
	CompanyID       Flex   `json:"companyId"`
	Department      string `json:"department"`
	InternalSPOC    string `json:"internalSPOC"`
	Recruiter       string `json:"recruiter"`
	Email           string `json:"email"`
	JobType         string `json:"jobType"`
	ExperienceLevel string `json:"experienceLevel"`
	Country         string `json:"country"`
	City            string `json:"city"`
	FullLocation    string `json:"fullLocation"`
	WorkType        string `json:"workType"`
	JobStatus       string `json:"jobStatus"`
	SalaryMin       Flex   `json:"salaryMin"`
	SalaryMax       Flex   `json:"salaryMax"`
	Priority        string `json:"priority"`
	Description     string `json:"description"`
	Requirements    string `json:"requirements"`
	RequiredSkills  string `json:"requiredSkills"`
	Benefits        string `json:"benefits"`
}

// JobPosting is a validated and normalized job posting ready to be persisted
type JobPosting struct {
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	CompanyID       int64     `json:"companyId"`
	Department      string    `json:"department"`
	InternalSPOC    string    `json:"internalSPOC"`
	Recruiter       string    `json:"recruiter"`
	Email           string    `json:"email"`
	JobType         string    `json:"jobType"`
	ExperienceLevel string    `json:"experienceLevel"`
	Country         string    `json:"country"`
	City            string    `json:"city"`
	FullLocation    string    `json:"fullLocation"`
	WorkType        WorkType  `json:"workType"`
	JobStatus       JobStatus `json:"jobStatus"`
	SalaryMin       *int64    `json:"salaryMin"`
	SalaryMax       *int64    `json:"salaryMax"`
	Priority        string    `json:"priority"`
	Description     string    `json:"description"`
	Requirements    string    `json:"requirements"`
	RequiredSkills  string    `json:"requiredSkills"`
	Benefits        string    `json:"benefits"`
}

// JobRecord is a persisted job posting
type JobRecord struct {
	ID int64 `json:"id"`
	JobPosting
	CompanyName string    `json:"companyName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Input converts the record back into an input payload so a partial update can be overlaid on it
func (r *JobRecord) Input() JobPostingInput {
	in := JobPostingInput{
		Title:           r.Title,
		Company:         r.Company,
		CompanyID:       FlexInt(r.CompanyID),
		Department:      r.Department,
		InternalSPOC:    r.InternalSPOC,
		Recruiter:       r.Recruiter,
		Email:           r.Email,
		JobType:         r.JobType,
		ExperienceLevel: r.ExperienceLevel,
		Country:         r.Country,
		City:            r.City,
		FullLocation:    r.FullLocation,
		WorkType:        string(r.WorkType),
		JobStatus:       string(r.JobStatus),
		Priority:        r.Priority,
		Description:     r.Description,
		Requirements:    r.Requirements,
		RequiredSkills:  r.RequiredSkills,
		Benefits:        r.Benefits,
	}
	if r.SalaryMin != nil {
		in.SalaryMin = FlexInt(*r.SalaryMin)
	}
	if r.SalaryMax != nil {
		in.SalaryMax = FlexInt(*r.SalaryMax)
	}
	return in
}

// ContentChanged reports whether any field that feeds the search embedding differs
func ContentChanged(before, after *JobPosting) bool {
	return before.Title != after.Title ||
		before.Description != after.Description ||
		before.Requirements != after.Requirements ||
		before.RequiredSkills != after.RequiredSkills ||
		before.ExperienceLevel != after.ExperienceLevel
}
