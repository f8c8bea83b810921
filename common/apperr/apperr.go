package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies request failures
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindInvalidInput    Kind = "invalid_input"
	KindConflict        Kind = "conflict"
	KindRateLimited     Kind = "rate_limited"
	KindInternal        Kind = "internal"
)

// Error is a request failure with a classification and human-readable message
type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// New creates an error with the given kind and message
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error with a formatted message
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, err: err}
}

// Unauthenticated signals a mutation that requires a signed-in user
func Unauthenticated(message string) *Error {
	return New(KindUnauthenticated, message)
}

// Forbidden signals a caller lacking ownership or the admin role
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// NotFound signals a missing extension or comment
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// InvalidInput signals malformed or out-of-range input
func InvalidInput(message string) *Error {
	return New(KindInvalidInput, message)
}

// Conflict signals a duplicate product id
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// RateLimited signals an exceeded request quota
func RateLimited(message string) *Error {
	return New(KindRateLimited, message)
}

// KindOf returns the kind of err, or KindInternal for unclassified errors
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to its HTTP status code
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
