package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates a record failed boundary validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a record was refused because it is already recorded.
	ErrDuplicate = errors.New("duplicate")
)

// ValidationError describes a single field that failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is reports ErrInvalidInput so callers can errors.Is without a type switch.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}
