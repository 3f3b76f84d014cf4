package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates that the operation conflicts with existing state,
	// such as a duplicate name or a delete of a row that is still referenced.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable indicates that the database could not be reached.
	ErrUnavailable = errors.New("service unavailable")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ConflictError provides details about a state conflict, such as a
// duplicate name or an entity that cannot be deleted while referenced.
type ConflictError struct {
	Entity string
	Reason string
	// Code is a stable machine-readable identifier, e.g. "CATEGORY_IN_USE".
	Code string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// UnavailableError wraps a connectivity failure that persisted through retries.
type UnavailableError struct {
	Op    string
	Cause error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: database unavailable: %v", e.Op, e.Cause)
}

// Unwrap returns the sentinel and the cause, so callers can match either
// ErrUnavailable or the underlying driver error.
func (e *UnavailableError) Unwrap() []error {
	return []error{ErrUnavailable, e.Cause}
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// NewConflictError creates a new ConflictError.
func NewConflictError(entity, reason, code string) *ConflictError {
	return &ConflictError{
		Entity: entity,
		Reason: reason,
		Code:   code,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewUnavailableError creates a new UnavailableError.
func NewUnavailableError(op string, cause error) *UnavailableError {
	return &UnavailableError{
		Op:    op,
		Cause: cause,
	}
}
