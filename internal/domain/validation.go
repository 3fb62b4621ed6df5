package domain

import (
	"strings"
)

// FieldError describes one violated rule of a request payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every rule violation found in a payload, in field order.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// NewValidationError creates a ValidationError from the given field errors.
func NewValidationError(errs ...FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}

	return "validation failed: " + strings.Join(parts, "; ")
}
