package ingest

import (
	"fmt"
	"strings"
)

// Kind classifies a validation failure so callers never have to parse messages
type Kind int

const (
	KindUnknown Kind = iota
	KindPayload
	KindEmailRequired
	KindEmailInvalid
	KindCompanyRequired
	KindCompanyInvalid
	KindCompanyNotFound
	KindWorkType
	KindJobStatus
	KindSalaryMin
	KindSalaryMax
	KindSalaryRange
)

var kindNames = map[Kind]string{
	KindUnknown:         "unknown",
	KindPayload:         "payload",
	KindEmailRequired:   "email_required",
	KindEmailInvalid:    "email_invalid",
	KindCompanyRequired: "company_required",
	KindCompanyInvalid:  "company_invalid",
	KindCompanyNotFound: "company_not_found",
	KindWorkType:        "work_type",
	KindJobStatus:       "job_status",
	KindSalaryMin:       "salary_min",
	KindSalaryMax:       "salary_max",
	KindSalaryRange:     "salary_range",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// remediation hints shown next to the failure message
var suggestions = map[Kind]string{
	KindPayload:         "Check that text fields are strings and that companyId, salaryMin and salaryMax are numbers or numeric strings",
	KindEmailRequired:   "Provide a contact email address such as recruiter@company.com",
	KindEmailInvalid:    "Provide a contact email address such as recruiter@company.com",
	KindCompanyRequired: "Set companyId to the numeric ID of an existing company",
	KindCompanyInvalid:  "Set companyId to the numeric ID of an existing company",
	KindCompanyNotFound: "Create the company first or use the ID of an existing company",
	KindWorkType:        "Use one of ONSITE, REMOTE or HYBRID for workType",
	KindJobStatus:       "Use one of ACTIVE, PAUSED, CLOSED or FILLED for jobStatus",
	KindSalaryMin:       "Enter salaryMin as a whole number, for example 50000 or \"₹50,000\"",
	KindSalaryMax:       "Enter salaryMax as a whole number, for example 90000 or \"₹90,000\"",
	KindSalaryRange:     "Make sure salaryMin is less than or equal to salaryMax",
}

// FieldError is one rejected field
type FieldError struct {
	Field   string
	Kind    Kind
	Message string
}

// ValidationError is a client-caused failure of one job posting
type ValidationError struct {
	Errors []FieldError
	cause  error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

// Has reports whether the error contains a failure of the given kind
func (e *ValidationError) Has(kind Kind) bool {
	for _, fe := range e.Errors {
		if fe.Kind == kind {
			return true
		}
	}
	return false
}

// FieldErrors maps each rejected field to its message
func (e *ValidationError) FieldErrors() map[string]string {
	out := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		out[fe.Field] = fe.Message
	}
	return out
}

// Suggestions returns the remediation hints for the contained kinds, without duplicates
func (e *ValidationError) Suggestions() []string {
	var out []string
	seen := make(map[string]bool)
	for _, fe := range e.Errors {
		s, ok := suggestions[fe.Kind]
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func invalid(field string, kind Kind, format string, args ...any) *ValidationError {
	return &ValidationError{Errors: []FieldError{{
		Field:   field,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}}}
}
