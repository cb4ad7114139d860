package model

import (
	"database/sql"
	"time"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
)

// JobPosting is a row of the job_postings table
type JobPosting struct {
	ID              int64         `db:"id"`
	Title           string        `db:"title"`
	Company         string        `db:"company"`
	CompanyID       int64         `db:"company_id"`
	CompanyName     string        `db:"company_name"`
	Department      string        `db:"department"`
	InternalSPOC    string        `db:"internal_spoc"`
	Recruiter       string        `db:"recruiter"`
	Email           string        `db:"email"`
	JobType         string        `db:"job_type"`
	ExperienceLevel string        `db:"experience_level"`
	Country         string        `db:"country"`
	City            string        `db:"city"`
	FullLocation    string        `db:"full_location"`
	WorkType        string        `db:"work_type"`
	JobStatus       string        `db:"job_status"`
	SalaryMin       sql.NullInt64 `db:"salary_min"`
	SalaryMax       sql.NullInt64 `db:"salary_max"`
	Priority        string        `db:"priority"`
	Description     string        `db:"description"`
	Requirements    string        `db:"requirements"`
	RequiredSkills  string        `db:"required_skills"`
	Benefits        string        `db:"benefits"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

// FromPosting builds a row from a normalized posting. companyName mirrors company.
func FromPosting(p *domain.JobPosting) *JobPosting {
	return &JobPosting{
		Title:           p.Title,
		Company:         p.Company,
		CompanyID:       p.CompanyID,
		CompanyName:     p.Company,
		Department:      p.Department,
		InternalSPOC:    p.InternalSPOC,
		Recruiter:       p.Recruiter,
		Email:           p.Email,
		JobType:         p.JobType,
		ExperienceLevel: p.ExperienceLevel,
		Country:         p.Country,
		City:            p.City,
		FullLocation:    p.FullLocation,
		WorkType:        string(p.WorkType),
		JobStatus:       string(p.JobStatus),
		SalaryMin:       nullInt(p.SalaryMin),
		SalaryMax:       nullInt(p.SalaryMax),
		Priority:        p.Priority,
		Description:     p.Description,
		Requirements:    p.Requirements,
		RequiredSkills:  p.RequiredSkills,
		Benefits:        p.Benefits,
	}
}

// ToRecord converts the row to the domain record
func (r *JobPosting) ToRecord() *domain.JobRecord {
	return &domain.JobRecord{
		ID: r.ID,
		JobPosting: domain.JobPosting{
			Title:           r.Title,
			Company:         r.Company,
			CompanyID:       r.CompanyID,
			Department:      r.Department,
			InternalSPOC:    r.InternalSPOC,
			Recruiter:       r.Recruiter,
			Email:           r.Email,
			JobType:         r.JobType,
			ExperienceLevel: r.ExperienceLevel,
			Country:         r.Country,
			City:            r.City,
			FullLocation:    r.FullLocation,
			WorkType:        domain.WorkType(r.WorkType),
			JobStatus:       domain.JobStatus(r.JobStatus),
			SalaryMin:       intPtr(r.SalaryMin),
			SalaryMax:       intPtr(r.SalaryMax),
			Priority:        r.Priority,
			Description:     r.Description,
			Requirements:    r.Requirements,
			RequiredSkills:  r.RequiredSkills,
			Benefits:        r.Benefits,
		},
		CompanyName: r.CompanyName,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
