// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyDescription is returned when a task description is missing or blank.
	ErrEmptyDescription = fmt.Errorf("%w: task description cannot be empty", ErrValidation)

	// ErrEmptyReason is returned when a reassignment is requested without a reason.
	ErrEmptyReason = fmt.Errorf("%w: reassignment reason cannot be empty", ErrValidation)

	// ErrInvalidPeriod is returned when a period name is not one of the four known periods.
	ErrInvalidPeriod = fmt.Errorf("%w: invalid period", ErrValidation)

	// ErrInvalidWindow is returned when a scheduled window does not end after it starts.
	ErrInvalidWindow = fmt.Errorf("%w: window end must be after start", ErrValidation)

	// ErrInvalidTransition is returned when a task status change is not allowed
	// from the task's current status.
	ErrInvalidTransition = errors.New("invalid task status transition")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}

// ErrEmptyUserID is returned when a user-scoped entity has no user ID.
var ErrEmptyUserID = errors.New("user ID cannot be empty")
