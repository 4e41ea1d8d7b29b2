package models

import (
	"fmt"
	"time"
)

// ValidationError signals bad or missing input. Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError signals that a referenced entity is absent. Never retried.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// UpstreamError wraps a failed adapter call (LLM, image, WordPress). The
// adapter's message is surfaced to the caller and never auto-retried.
type UpstreamError struct {
	Adapter string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s adapter failed: %v", e.Adapter, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// PublishDateConflictError signals that another content item in the same
// scope already holds the requested publish date. Carries the holder's id so
// the caller can resolve the conflict.
type PublishDateConflictError struct {
	ConflictingItemID string
	PublishDate       time.Time
}

func (e *PublishDateConflictError) Error() string {
	return fmt.Sprintf("publish date %s already taken by content item %s",
		e.PublishDate.Format("2006-01-02"), e.ConflictingItemID)
}

// ParseError signals that a generation response could not be interpreted
// even after fallback recovery. The operation aborts without persisting
// partial content.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}
