package services

import (
	"errors"
	"fmt"
)

// ValidationError wraps field-specific validation errors raised by a
// service's own input checks (distinct from pkg/config's validator, which
// checks loaded configuration rather than a single call's arguments).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
