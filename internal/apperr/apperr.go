package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error so handlers can pick a response status
// without inspecting message text.
type Kind string

const (
	InvalidInput      Kind = "invalid_input"
	NotFound          Kind = "not_found"
	Conflict          Kind = "conflict"
	Forbidden         Kind = "forbidden"
	InsufficientStock Kind = "insufficient_stock"
)

// Error is a domain error with a kind and a human-readable message.
// The message is surfaced to API clients verbatim.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates a domain error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or an empty Kind for non-domain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a domain error kind to an HTTP status code. Validation,
// conflict and stock errors all answer 400, matching the API contract;
// anything that is not a domain error is a server-side failure.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case InvalidInput, Conflict, InsufficientStock:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
