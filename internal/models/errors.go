package models

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a resource already exists (e.g., duplicate slug or code)
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrNoFieldsToUpdate is returned when no fields are provided for an update
	ErrNoFieldsToUpdate = errors.New("no fields to update")

	// ErrInvalidID is returned when a document id is not a valid 24-hex identifier
	ErrInvalidID = errors.New("invalid document id")

	// ErrArticleLive is returned when an operation is not allowed on a live article
	ErrArticleLive = errors.New("article is currently live")

	// ErrWasLive is returned when attempting to make a previously-live article live again
	ErrWasLive = errors.New("article has already been live")
)

// ValidationError carries a field-level validation message so handlers can
// surface it to the client without losing which field was at fault.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for the given field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a field-level validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
