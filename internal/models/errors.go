package models

import (
	"errors"
	"fmt"
)

// Application-wide standard errors
var (
	ErrStoryNotFound   = errors.New("story not found")
	ErrSceneNotFound   = errors.New("scene not found in story")
	ErrStoryNotOwned   = errors.New("story does not belong to the caller")
	ErrVersionNotFound = errors.New("requested version has no recorded snapshot")
	ErrImageNotFound   = errors.New("image artifact not found")

	ErrTransformFailed  = errors.New("text transformation failed")
	ErrGenerationFailed = errors.New("image generation failed")

	ErrInternalServer = errors.New("internal server error")
)

// ValidationError описывает отклоненный до каких-либо мутаций запрос.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError constructs a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError is returned when a mutating operation loses the optimistic
// version check: the story advanced between load and commit. The caller is
// expected to retry with fresh state; the conflict is never resolved
// silently.
type ConflictError struct {
	ExpectedVersion int
	ActualVersion   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected %d, actual %d", e.ExpectedVersion, e.ActualVersion)
}
