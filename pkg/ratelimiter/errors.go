package ratelimiter

import (
	"errors"
	"time"

	"anoa.com/linkbio/pkg/apperror"
)

// ErrStoreContention is returned when a record kept changing under a
// concurrent writer for every retry of an optimistic update.
var ErrStoreContention = errors.New("rate limit store contention")

// RateLimitError carries the user-facing message and how long the caller
// has to wait before trying again.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}
