package sync

import (
	"errors"
	"fmt"
	"time"
)

// Errors surfaced by the partner gateway and the reconciliation pipeline.
// Fetch-level occurrences abort the affected entity pass; per-record
// occurrences are collected into Result.Errors and the pass continues.
var (
	ErrAuthentication = errors.New("partner authentication failed")
	ErrAccessDenied   = errors.New("partner denied access")
	ErrNotFound       = errors.New("partner resource not found")
	ErrInvalidRequest = errors.New("partner rejected request")
	ErrRateLimited    = errors.New("partner rate limit exceeded")
	ErrUpstream       = errors.New("partner server error")
	ErrDecode         = errors.New("partner response decode failed")
	ErrPersistence    = errors.New("local persistence failed")
)

// RateLimitError carries the retry-after hint from a 429 response
type RateLimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%v, retry after %s", ErrRateLimited, e.RetryAfter)
}

// Unwrap makes errors.Is(err, ErrRateLimited) hold
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
