// Package apperror defines the domain error taxonomy shared by the store,
// service and handler layers.
//
// Every error that should reach a client as something other than a generic
// 500 is an *AppError wrapping one of the sentinel errors below. Callers
// classify errors with errors.Is against the sentinels; the HTTP layer is the
// only place that turns them into status codes.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInternal        = errors.New("internal error")
	ErrNotImplemented  = errors.New("not implemented")
)

type AppError struct {
	Err     error             // sentinel, used by errors.Is
	Message string            // human-readable error message
	Field   string            // optional: single field causing the error
	Fields  map[string]string // optional: per-field reasons for validation errors
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Fields:  map[string]string{field: message},
	}
}

// ValidationFields builds a validation error from a field -> reason map.
// The message lists the failing fields in a stable order so logs and
// responses are deterministic.
func ValidationFields(fields map[string]string) *AppError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+fields[name])
	}

	e := &AppError{
		Err:     ErrValidation,
		Message: "invalid request: " + strings.Join(parts, "; "),
		Fields:  fields,
	}
	if len(names) == 1 {
		e.Field = names[0]
	}
	return e
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, key),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// Ownership checks on journals and folders never use it: they report
// NotFound instead so other users' data stays invisible.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// Internal marks a broken invariant: something the service checked a moment
// ago no longer holds. The message is logged but never sent to clients.
func Internal(message string) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Message: message,
	}
}

func NotImplemented(message string) *AppError {
	return &AppError{
		Err:     ErrNotImplemented,
		Message: message,
	}
}
