package discord

import (
	"errors"
	"fmt"
	"time"

	"klist/internal/domain/entity"
)

// RateLimitError represents a 429 response from the Discord API.
type RateLimitError struct {
	RetryAfter time.Duration
	Global     bool
}

func (e *RateLimitError) Error() string {
	if e.Global {
		return fmt.Sprintf("discord global rate limit exceeded (retry after %v)", e.RetryAfter)
	}
	return fmt.Sprintf("discord rate limit exceeded (retry after %v)", e.RetryAfter)
}

// Delay returns how long the caller should wait before retrying.
func (e *RateLimitError) Delay() time.Duration {
	return e.RetryAfter
}

// Unwrap lets errors.Is match entity.ErrRateLimited.
func (e *RateLimitError) Unwrap() error {
	return entity.ErrRateLimited
}

// ClientError represents a non-retryable 4xx response.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("discord client error %d: %s", e.StatusCode, e.Message)
}

// ServerError represents a 5xx response.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("discord server error %d: %s", e.StatusCode, e.Message)
}

// AsRateLimit reports whether err is a rate limit error and extracts it.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr, true
	}
	return nil, false
}
