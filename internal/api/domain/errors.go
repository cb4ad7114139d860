package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job posting cannot be found in the database
	ErrJobNotFound = errors.New("job posting not found")

	// ErrCompanyNotFound is returned when a job posting references an unknown company
	ErrCompanyNotFound = errors.New("company not found")

	// ErrConstraintViolation is returned when the database rejects a row as inconsistent
	ErrConstraintViolation = errors.New("job posting violates a database constraint")

	// ErrInvalidPayload is returned when a submitted element cannot be decoded into a job posting
	ErrInvalidPayload = errors.New("invalid job posting payload")
)
