package td

import (
	"errors"
	"fmt"
)

// ErrInvalidAPIKey is returned when the API key is missing or malformed.
var ErrInvalidAPIKey = errors.New("invalid API key")

// AuthError is returned when the service rejects the credentials (HTTP 401/403).
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (%d): %s", e.StatusCode, e.Message)
}

// NotFoundError is returned when the requested resource does not exist (HTTP 404).
type NotFoundError struct {
	Path    string
	Message string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s: %s", e.Path, e.Message)
}

// APIError covers every other error status returned by the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// JobFailedError is returned when a job finished without succeeding.
type JobFailedError struct {
	JobID  string
	Status string
	Debug  string
}

func (e *JobFailedError) Error() string {
	msg := fmt.Sprintf("query job %s finished with status %s", e.JobID, e.Status)
	if e.Debug != "" {
		msg += ": " + e.Debug
	}
	return msg
}
