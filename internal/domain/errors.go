package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaViolation    = errors.New("schema violation")
	ErrGenerationFailure  = errors.New("generation failure")
	ErrPersistenceCorrupt = errors.New("persistence corrupt")
	ErrNotFound           = errors.New("not found")
	ErrContentUnavailable = errors.New("content unavailable")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotSelected        = errors.New("task not selected")
)

// SchemaViolationError pinpoints the first field of a generated payload that
// failed validation.
type SchemaViolationError struct {
	Schema string
	Path   string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s: %s", ErrSchemaViolation, e.Schema, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s: %s", ErrSchemaViolation, e.Schema, e.Path, e.Reason)
}

func (e *SchemaViolationError) Unwrap() error { return ErrSchemaViolation }

// GenerationError is returned by the generation gateway. It always matches
// ErrGenerationFailure and additionally wraps the cause, which may be a
// schema violation.
type GenerationError struct {
	Kind string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrGenerationFailure, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() []error { return []error{ErrGenerationFailure, e.Err} }
