package github

import (
	"errors"
	"fmt"
	"time"
)

// ReleaseCreationError indicates both the primary and the fallback
// release creation paths failed. Fatal for the run.
type ReleaseCreationError struct {
	Tag string
	Err error
}

func (e *ReleaseCreationError) Error() string {
	return fmt.Sprintf("github: create release %s: %v", e.Tag, e.Err)
}

func (e *ReleaseCreationError) Unwrap() error { return e.Err }

// RateLimitError represents a rate limit exceeded error with reset time.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
	Codes      []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a resource was not found.
// A not-found release or tag ref is expected during get-or-create and
// triggers creation rather than failure.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsAlreadyExists checks if the error is the 422 "already_exists"
// validation response, raised when an asset name collides with one
// created since our last listing.
func IsAlreadyExists(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 422 {
		return false
	}
	for _, code := range apiErr.Codes {
		if code == "already_exists" {
			return true
		}
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}
