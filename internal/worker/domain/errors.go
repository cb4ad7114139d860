package domain

import "errors"

var (
	// ErrJobNotFound is returned when the job posting no longer exists
	ErrJobNotFound = errors.New("job posting not found")

	// ErrRefreshInProgress is returned when another worker holds a live claim on the job
	ErrRefreshInProgress = errors.New("embedding refresh already in progress")

	// ErrInvalidMessage is returned for refresh messages that cannot be parsed
	ErrInvalidMessage = errors.New("invalid refresh message")

	// ErrMaxRetriesExceeded is returned when a failed refresh will not be redelivered
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
