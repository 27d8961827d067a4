package publisher

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrValidation indicates bad input shape or range; storage is never
	// touched when it is returned.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates the actor lacks the capability or ownership
	// required for the operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidTransition indicates a moderation state-machine precondition
	// was violated, or the actor lost a transition race.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotFound indicates the entity is missing or soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrEditNotPermitted indicates content is locked by its lifecycle state.
	ErrEditNotPermitted = errors.New("edit not permitted")

	// ErrNotSubmittable indicates the article cannot be submitted for review.
	ErrNotSubmittable = errors.New("article not submittable")

	// ErrAccountBlocked indicates an active block prevents the user from
	// authenticating or acting.
	ErrAccountBlocked = errors.New("account blocked")

	// ErrInvalidCredentials indicates an email/password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidMediaType indicates an upload with a disallowed MIME type.
	ErrInvalidMediaType = errors.New("invalid media type")

	// ErrMediaTooLarge indicates an upload exceeding the size limit.
	ErrMediaTooLarge = errors.New("media too large")

	// ErrStorageUnavailable indicates a transient object-storage failure;
	// the operation is safe to retry.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrStorageInconsistent indicates a variant delete partially failed.
	// Logged and non-fatal to the triggering operation.
	ErrStorageInconsistent = errors.New("storage inconsistent")
)

// ArticleError wraps a failure of an article operation with its identity.
type ArticleError struct {
	ArticleID uuid.UUID
	Op        string
	Err       error
}

func (e *ArticleError) Error() string {
	return fmt.Sprintf("article operation %s failed for article %s: %v", e.Op, e.ArticleID, e.Err)
}

func (e *ArticleError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failure of an object-storage operation.
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ValidationError carries per-field messages for the 422 response envelope.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %d invalid field(s)", ErrValidation, len(e.Fields))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(pairs ...string) *ValidationError {
	fields := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields[pairs[i]] = pairs[i+1]
	}
	return &ValidationError{Fields: fields}
}
