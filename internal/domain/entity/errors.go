package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrFeedUnavailable indicates that a remote feed could not be fetched.
	// Callers skip the affected category for the current cycle.
	ErrFeedUnavailable = errors.New("feed unavailable")

	// ErrMessageNotFound indicates that a ledger entry points at a message
	// that no longer exists on the remote side.
	ErrMessageNotFound = errors.New("message not found")

	// ErrRateLimited indicates the messaging API asked the caller to slow down.
	ErrRateLimited = errors.New("rate limited")

	// ErrPageAbandoned indicates that every attempt to publish a page failed.
	ErrPageAbandoned = errors.New("page abandoned")

	// ErrInvalidCategory indicates an unknown category name.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrAlreadyRunning is returned when starting a loop that is already active.
	ErrAlreadyRunning = errors.New("already running")

	// ErrPublishingDeleted is returned when publishing is attempted after the
	// operator deleted every published message.
	ErrPublishingDeleted = errors.New("publishing deleted")

	// ErrNotRunning is returned when stopping a loop that is not active.
	ErrNotRunning = errors.New("not running")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError represents a validation error with detailed field information.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
