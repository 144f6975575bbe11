package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUpstream matches any failed call that is not rate limiting, not found
	// or unauthorized, including an open circuit breaker.
	ErrUpstream = errors.New("catalog upstream error")
	// ErrRateLimited matches HTTP 429 responses.
	ErrRateLimited = errors.New("catalog rate limited")
	// ErrNotFound matches HTTP 404 responses.
	ErrNotFound = errors.New("catalog object not found")
	// ErrUnauthorized matches HTTP 401 responses (expired or missing token).
	ErrUnauthorized = errors.New("catalog authentication failed")
	// ErrInvalidQuery is returned before any call when a search has no terms.
	ErrInvalidQuery = errors.New("catalog invalid query")
)

// APIError is a non-2xx response from the catalog API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
	// RetryAfter is parsed from the Retry-After header on 429 responses.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("catalog API %s: status %d", e.Endpoint, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %s)", e.RetryAfter)
	}
	return msg
}

// Is maps the status code onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrUpstream:
		switch e.StatusCode {
		case http.StatusTooManyRequests, http.StatusNotFound, http.StatusUnauthorized:
			return false
		}
		return true
	}
	return false
}

// RetryAfter extracts the upstream Retry-After hint from err, or 0.
func RetryAfter(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	return 0
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
