package services

import (
	"errors"
	"fmt"
	"meetingroom/src/repository"
	"sort"
	"strings"
)

var (
	ErrNotFound              = repository.ErrNotFound
	ErrSchedulingConflict    = errors.New("room unavailable for that slot")
	ErrInsufficientInventory = errors.New("insufficient device inventory")
	ErrForbidden             = errors.New("forbidden")
	ErrUnauthorized          = errors.New("unauthorized")
)

type ValidationError struct {
	FieldErrors map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{FieldErrors: map[string]string{}}
}

func (v *ValidationError) Add(field, msg string) {
	if v.FieldErrors == nil {
		v.FieldErrors = map[string]string{}
	}
	v.FieldErrors[field] = msg
}

func (v *ValidationError) HasErrors() bool {
	return len(v.FieldErrors) > 0
}

func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.FieldErrors))
	for f := range v.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v.FieldErrors[f]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// OrNil returns nil when no field failed.
func (v *ValidationError) OrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

func invalid(field, msg string) error {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

func notFound(resource string, id any) error {
	return fmt.Errorf("%s %v: %w", resource, id, ErrNotFound)
}
