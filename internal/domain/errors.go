package domain

import (
	"fmt"
)

// Error codes for different failure scenarios
const (
	ErrValidation   = "VALIDATION_ERROR"
	ErrNotFound     = "NOT_FOUND"
	ErrRegeneration = "REGENERATION_ERROR"
)

// ValidationError represents input validation errors. The operation is
// rejected before any mutation; the prior snapshot is unchanged.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError represents a mutation targeting an id absent from the
// current snapshot.
type NotFoundError struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.ID)
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(kind EntityKind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// RegenerationError represents a failed or rejected regeneration request.
// Busy marks requests rejected because the entity already has a regeneration
// in flight; those are safe to retry once the busy flag clears.
type RegenerationError struct {
	EntityID string `json:"entity_id"`
	Busy     bool   `json:"busy"`
	Message  string `json:"message"`
	Cause    error  `json:"-"`
}

// Error implements the error interface
func (e *RegenerationError) Error() string {
	return fmt.Sprintf("regeneration failed for '%s': %s", e.EntityID, e.Message)
}

// Unwrap exposes the underlying provider error, if any.
func (e *RegenerationError) Unwrap() error {
	return e.Cause
}

// NewBusyError creates a RegenerationError for a second request issued while
// one is already in flight for the same entity.
func NewBusyError(entityID string) *RegenerationError {
	return &RegenerationError{
		EntityID: entityID,
		Busy:     true,
		Message:  "a regeneration is already in progress for this entity",
	}
}

// NewRegenerationError creates a RegenerationError wrapping a provider failure.
func NewRegenerationError(entityID string, cause error) *RegenerationError {
	msg := "regeneration request did not complete"
	if cause != nil {
		msg = cause.Error()
	}
	return &RegenerationError{EntityID: entityID, Message: msg, Cause: cause}
}
