// Package service provides the application-level use cases for tasks and
// profiles.
package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check them with errors.Is; the API layer maps them to status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrTaskNotFound indicates that the requested task does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrNoAnswers is returned when onboarding is submitted without answers.
	ErrNoAnswers = errors.New("at least one onboarding answer is required")
)

// TaskServiceError wraps unexpected failures of a task operation.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// ProfileServiceError wraps unexpected failures of a profile operation.
type ProfileServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ProfileServiceError.
func (e *ProfileServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("profile service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("profile service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ProfileServiceError) Unwrap() error {
	return e.Err
}

// NewProfileServiceError creates a new ProfileServiceError.
func NewProfileServiceError(operation, message string, err error) *ProfileServiceError {
	return &ProfileServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
