package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEntityNotFound: the requested entity id is not part of the profile.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrEntityDisabled: the entity exists but is disabled, or is an auto
	// entity whose namespace has not been observed yet.
	ErrEntityDisabled = errors.New("entity disabled")
)

// ValidationError rejects a write whose value violates the entity
// constraint. Constraint is human-readable ("range [200,2400]",
// "options [Never 30min ...]", "boolean").
type ValidationError struct {
	EntityId   string
	Value      any
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %v for entity %s: expected %s", e.Value, e.EntityId, e.Constraint)
}

// TransportError wraps a failure reported by the transport collaborator.
// The engine never retries; retry policy belongs to the transport.
type TransportError struct {
	EntityId string
	Cause    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for entity %s: %v", e.EntityId, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
