// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound    = errors.New("not found")
	ErrStorageBusy = errors.New("storage busy")

	// Compliance and state machine errors.
	ErrDNCViolation      = errors.New("do-not-contact violation")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user. DNC and
// validation failures always carry one so the operator sees a specific
// message, never a generic failure.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
// DNC violations are never retryable; they propagate to the caller as-is.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrDNCViolation) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrValidation) {
		return false
	}

	if errors.Is(err, ErrStorageBusy) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
