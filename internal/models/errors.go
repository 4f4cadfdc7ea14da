package models

import (
	"errors"
	"sort"
	"strings"
)

// Domain errors. Repositories and services wrap them with context, e.g.
// fmt.Errorf("course %w", ErrNotFound) reads as "course not found".
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotEnrolled     = errors.New("not enrolled in course")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNothingChanged  = errors.New("no fields to update")
	ErrPaymentRequired = errors.New("payment required")
)

// ValidationError carries per-field messages keyed by JSON field name
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match validation errors
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
