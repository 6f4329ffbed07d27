package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a package is not found.
	ErrNotFound = errors.New("not found")

	// ErrCircuitOpen is returned without a request when a host's breaker is open.
	ErrCircuitOpen = errors.New("upstream registry unavailable")
)

// HTTPError represents a non-2xx response other than 404 and 429.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// NotFoundError is returned on a 404 response. It wraps ErrNotFound.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.URL)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// RateLimitError is returned on a 429 response. It is reported like any
// other failure; callers do not wait and retry.
type RateLimitError struct {
	RetryAfter int // seconds
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %d seconds", e.RetryAfter)
}
