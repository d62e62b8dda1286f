package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel error kinds for all domain-level failures. Every *Error
// unwraps to exactly one of these, so callers classify failures with
// errors.Is without inspecting messages.
var (
	// ErrBusinessRuleViolation is the kind for pre-condition failures
	// caught before any entity mutation (e.g. an empty required field).
	ErrBusinessRuleViolation = errors.New("business rule violation")

	// ErrNotFound is the kind for references to absent entities.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidOperation is the kind for illegal state transitions,
	// raised by the entity itself.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrConcurrencyConflict is the kind reserved for optimistic-lock
	// violations. Declared for forward compatibility; no operation
	// raises it yet.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// Error is a domain failure carrying a machine-readable kind, a human
// message, and a structured detail map. It propagates unchanged from
// the service layer to the caller.
type Error struct {
	Kind    error
	Message string
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the error kind to support errors.Is.
func (e *Error) Unwrap() error {
	return e.Kind
}

// NewBusinessRuleViolationError creates a validation failure for the
// named rule.
func NewBusinessRuleViolationError(rule, message string) *Error {
	return &Error{
		Kind:    ErrBusinessRuleViolation,
		Message: fmt.Sprintf("business rule violation: %s", message),
		Details: map[string]string{"rule": rule},
	}
}

// NewNotFoundError creates a not-found failure for the given entity
// type and identifier.
func NewNotFoundError(entityType string, id uuid.UUID) *Error {
	return &Error{
		Kind:    ErrNotFound,
		Message: fmt.Sprintf("%s with id %s not found", entityType, id),
		Details: map[string]string{"entity_type": entityType, "entity_id": id.String()},
	}
}

// NewInvalidOperationError creates an illegal-transition failure
// carrying the attempted operation and the task's current status.
func NewInvalidOperationError(operation string, status TaskStatus) *Error {
	return &Error{
		Kind:    ErrInvalidOperation,
		Message: fmt.Sprintf("cannot %s task in %s status", operation, status),
		Details: map[string]string{"operation": operation, "current_status": string(status)},
	}
}

// NewConcurrencyConflictError creates a conflict failure for the given
// entity type and identifier.
func NewConcurrencyConflictError(entityType string, id uuid.UUID) *Error {
	return &Error{
		Kind:    ErrConcurrencyConflict,
		Message: fmt.Sprintf("concurrency conflict for %s with id %s", entityType, id),
		Details: map[string]string{"entity_type": entityType, "entity_id": id.String()},
	}
}
