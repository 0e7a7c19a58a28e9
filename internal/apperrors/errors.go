package apperrors

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an unknown id. Ids that exist but belong to another
// vendor scope surface identically, so callers cannot enumerate foreign data.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFoundError(resource string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// StateError reports an illegal state transition, e.g. posting a draft debit
// note or signing off a statement with open variance.
type StateError struct {
	Resource    string
	ID          uuid.UUID
	StatementID uuid.UUID
	Message     string
}

func (e *StateError) Error() string {
	return e.Message
}

func NewStateError(resource string, id uuid.UUID, message string) *StateError {
	return &StateError{Resource: resource, ID: id, Message: message}
}

// AuthorizationError reports a privileged action attempted by an actor without
// the required capability.
type AuthorizationError struct {
	ActorID    uuid.UUID
	Capability string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %s lacks capability %q", e.ActorID, e.Capability)
}

func NewAuthorizationError(actorID uuid.UUID, capability string) *AuthorizationError {
	return &AuthorizationError{ActorID: actorID, Capability: capability}
}
