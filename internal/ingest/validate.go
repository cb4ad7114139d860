package ingest

import (
	"strconv"
	"strings"
	"sync"

	"github.com/cuongbtq/ats-ingest/internal/api/domain"
	"github.com/go-playground/validator/v10"
)

const (
	fieldEmail     = "email"
	fieldCompanyID = "companyId"
	fieldWorkType  = "workType"
	fieldJobStatus = "jobStatus"
	fieldPayload   = "payload"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func fieldValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Normalize validates a job posting and returns its canonical form.
// Rules run in order and stop at the first failure, except the salary bounds
// which are reported together.
func Normalize(in *domain.JobPostingInput) (*domain.JobPosting, error) {
	v := fieldValidator()

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, invalid(fieldEmail, KindEmailRequired, "Email is required")
	}
	if err := v.Var(email, "email"); err != nil {
		return nil, invalid(fieldEmail, KindEmailInvalid, "Invalid email format: %q", email)
	}

	companyID, verr := companyIDOf(in.CompanyID)
	if verr != nil {
		return nil, verr
	}

	workType := domain.WorkTypeOnsite
	if raw := strings.TrimSpace(in.WorkType); raw != "" {
		upper := strings.ToUpper(raw)
		if err := v.Var(upper, "oneof=ONSITE REMOTE HYBRID"); err != nil {
			return nil, invalid(fieldWorkType, KindWorkType,
				"Invalid workType %q. Valid values are: ONSITE, REMOTE, HYBRID", raw)
		}
		workType = domain.WorkType(upper)
	}

	jobStatus := domain.JobStatusActive
	if raw := strings.TrimSpace(in.JobStatus); raw != "" {
		upper := strings.ToUpper(raw)
		if err := v.Var(upper, "oneof=ACTIVE PAUSED CLOSED FILLED"); err != nil {
			return nil, invalid(fieldJobStatus, KindJobStatus,
				"Invalid jobStatus %q. Valid values are: ACTIVE, PAUSED, CLOSED, FILLED", raw)
		}
		jobStatus = domain.JobStatus(upper)
	}

	salaryMin, salaryMax, err := NormalizeSalaryRange(in.SalaryMin, in.SalaryMax)
	if err != nil {
		return nil, err
	}

	city := strings.TrimSpace(in.City)
	country := strings.TrimSpace(in.Country)
	fullLocation := strings.TrimSpace(in.FullLocation)
	if fullLocation == "" {
		fullLocation = deriveLocation(city, country)
	}

	return &domain.JobPosting{
		Title:           strings.TrimSpace(in.Title),
		Company:         strings.TrimSpace(in.Company),
		CompanyID:       companyID,
		Department:      strings.TrimSpace(in.Department),
		InternalSPOC:    strings.TrimSpace(in.InternalSPOC),
		Recruiter:       strings.TrimSpace(in.Recruiter),
		Email:           email,
		JobType:         strings.TrimSpace(in.JobType),
		ExperienceLevel: strings.TrimSpace(in.ExperienceLevel),
		Country:         country,
		City:            city,
		FullLocation:    fullLocation,
		WorkType:        workType,
		JobStatus:       jobStatus,
		SalaryMin:       salaryMin,
		SalaryMax:       salaryMax,
		Priority:        strings.TrimSpace(in.Priority),
		Description:     in.Description,
		Requirements:    in.Requirements,
		RequiredSkills:  in.RequiredSkills,
		Benefits:        in.Benefits,
	}, nil
}

func companyIDOf(v domain.Flex) (int64, *ValidationError) {
	if !v.Present() {
		return 0, invalid(fieldCompanyID, KindCompanyRequired, "Company ID is required")
	}

	if n, ok := v.Number(); ok {
		if n == 0 {
			return 0, invalid(fieldCompanyID, KindCompanyRequired, "Company ID is required")
		}
		if n < 0 || n != float64(int64(n)) {
			return 0, invalid(fieldCompanyID, KindCompanyInvalid, "Company ID must be a positive whole number, got %s", v.String())
		}
		return int64(n), nil
	}

	id, err := strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid(fieldCompanyID, KindCompanyInvalid, "Company ID must be a positive whole number, got %q", v.String())
	}
	return id, nil
}

func deriveLocation(city, country string) string {
	switch {
	case city != "" && country != "":
		return city + ", " + country
	case city != "":
		return city
	default:
		return country
	}
}
