// Package apierr defines the error taxonomy shared by the service and API layers.
//
// Every error that crosses a package boundary carries a Kind so the HTTP layer
// can map it to a distinguishable status without string matching.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for outward-facing status mapping
type Kind string

const (
	// KindInvalidRequest indicates malformed or out-of-range input
	KindInvalidRequest Kind = "invalid_request"
	// KindUnauthenticated indicates no usable session or principal where one is required
	KindUnauthenticated Kind = "unauthenticated"
	// KindForbidden indicates a policy evaluation denied the operation
	KindForbidden Kind = "forbidden"
	// KindNotFound indicates a user id or username that does not resolve
	KindNotFound Kind = "not_found"
	// KindDuplicate indicates a unique-constraint violation on create
	KindDuplicate Kind = "duplicate_resource"
	// KindInternal indicates an unexpected failure
	KindInternal Kind = "internal"
)

// HTTPStatus maps a kind to its HTTP status code
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a kinded error with an optional wrapped cause
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind wrapping a cause
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err carries none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
