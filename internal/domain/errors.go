package domain

// Domain errors describe quote-collection failures, not transport failures.
// Adapters map them to HTTP statuses or CLI exit codes.

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates a key, snapshot or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates input was rejected before any state changed.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable indicates the remote quote source could not be reached.
	ErrUnavailable = errors.New("unavailable")
)

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError names the rejected field.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error including the rejected value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ImportError reports an import payload that is not a JSON array of records.
// The store is never modified when one is returned.
type ImportError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import rejected: %s: %v", e.Reason, e.Err)
	}

	return "import rejected: " + e.Reason
}

// Unwrap exposes both ErrValidation and the underlying decode error.
func (e *ImportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}

	return []error{ErrValidation}
}

// NewImportError creates an import error.
func NewImportError(reason string, err error) error {
	return &ImportError{Reason: reason, Err: err}
}

// UnavailableError names the unreachable service.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns ErrUnavailable.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// IsNotFound reports whether err is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable reports whether err is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
