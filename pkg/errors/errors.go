package messenger_errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrRateLimited  = errors.New("rate limited")
	ErrTransient    = errors.New("store temporarily unavailable")
	ErrInternal     = errors.New("internal error")
)

// Invalid wraps ErrInvalidInput with the offending field.
func Invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, field, reason)
}

// Transient wraps a store failure that callers may retry.
func Transient(cause error) error {
	return fmt.Errorf("%w: %w", ErrTransient, cause)
}

// IsRetryable reports whether the caller may retry an idempotent operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Known reports whether err belongs to the taxonomy above.
func Known(err error) bool {
	for _, target := range []error{
		ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict,
		ErrInvalidInput, ErrRateLimited, ErrTransient, ErrInternal,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
