// Package apperror defines the closed set of failure kinds surfaced by the
// services, and their mapping to HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Unexpected Kind = iota
	InvalidRequest
	NotFound
	Forbidden
	InsufficientFunds
	Conflict
	Unauthorized
)

func (k Kind) String() string {
	switch k {
	case InvalidRequest:
		return "invalid_request"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case InsufficientFunds:
		return "insufficient_funds"
	case Conflict:
		return "conflict"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unexpected"
	}
}

// HTTPStatus returns the response status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	case InsufficientFunds:
		return http.StatusUnprocessableEntity
	case Conflict:
		return http.StatusConflict
	case Unauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a failure of a known kind with a message safe to show the caller.
// Err, when set, is the underlying cause and is never shown.
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

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so errors.Is(err,
// apperror.New(apperror.NotFound, "")) works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Invalid(message string) *Error      { return New(InvalidRequest, message) }
func NotFoundErr(message string) *Error  { return New(NotFound, message) }
func ForbiddenErr(message string) *Error { return New(Forbidden, message) }
func Insufficient(message string) *Error { return New(InsufficientFunds, message) }

// Unexpectedf wraps an infrastructure failure.
func Unexpectedf(err error, format string, args ...any) *Error {
	return Wrap(Unexpected, fmt.Sprintf(format, args...), err)
}

// KindOf reports the kind of err; errors that are not *Error are Unexpected.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unexpected
}

// MessageOf returns the caller-facing message for err, or fallback when err
// carries none.
func MessageOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != Unexpected && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
