package models

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError reports malformed input to an import or template call.
// Fatal to that call only; never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// TransientServiceError represents a retryable upstream failure such as a
// rate-limit response or request timeout.
type TransientServiceError struct {
	Provider   string
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *TransientServiceError) Error() string {
	return fmt.Sprintf("%s transient error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// PermanentServiceError represents a non-retryable upstream failure such as
// an authentication or bad-request response. Surfaced immediately.
type PermanentServiceError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *PermanentServiceError) Error() string {
	return fmt.Sprintf("%s permanent error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// ExtractionError reports a page extraction failure. Recorded on the job as
// an error status; retried only by a later run or scheduled sweep.
type ExtractionError struct {
	URL     string
	Message string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %s", e.URL, e.Message)
}

// PersistenceError reports a snapshot write failure. Read failures are
// handled as "no prior state" by the queue and never carry this type.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retryable service failure
func IsTransient(err error) bool {
	var transient *TransientServiceError
	return errors.As(err, &transient)
}

// IsPermanent reports whether err is a non-retryable service failure
func IsPermanent(err error) bool {
	var permanent *PermanentServiceError
	return errors.As(err, &permanent)
}
