// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInactiveAccount indicates valid credentials for a deactivated account.
	ErrInactiveAccount = errors.New("account inactive")

	// ErrCodeExhausted indicates access code generation kept colliding
	// until the retry budget ran out.
	ErrCodeExhausted = errors.New("access code generation exhausted")

	// ErrSessionExpired indicates an operation on a session past its expiry.
	ErrSessionExpired = errors.New("session expired")
)

// ValidationError reports invalid input scoped to a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Validation builds a field-scoped validation error.
func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
