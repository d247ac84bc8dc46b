// Package apperr is the application error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound is a missing entity by id or slug.
	ErrNotFound = errors.New("not found")

	// ErrConflict is a uniqueness violation on create or replace.
	ErrConflict = errors.New("conflict")

	// ErrInternal is an unexpected persistence failure.
	ErrInternal = errors.New("internal failure")
)

// Error carries a client-safe detail message for one of the sentinel kinds.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is matches the sentinel kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds a not-found error with a detail message such as "Post not found".
func NotFound(detail string) error {
	return &Error{Kind: ErrNotFound, Detail: detail}
}

// Conflict builds a conflict error.
func Conflict(detail string) error {
	return &Error{Kind: ErrConflict, Detail: detail}
}

// Internal wraps an unexpected cause. The cause is never shown to clients.
func Internal(err error) error {
	return &Error{Kind: ErrInternal, Detail: "Internal server error", Err: err}
}

// ValidationErrors is the ordered list of failed validation rules.
type ValidationErrors []string

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	return "validation failed: " + strings.Join(v, "; ")
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	var verr ValidationErrors
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.As(err, &verr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the message that is safe to send to a client.
func Detail(err error) string {
	var appErr *Error
	var verr ValidationErrors
	switch {
	case errors.As(err, &verr) && len(verr) > 0:
		return verr[0]
	case errors.As(err, &appErr) && appErr.Kind != ErrInternal:
		return appErr.Detail
	case errors.Is(err, ErrNotFound):
		return "Not found"
	case errors.Is(err, ErrConflict):
		return "Already exists"
	default:
		return "Internal server error"
	}
}
