// Package apierr defines the typed error and wire envelope shared by every
// operation surface. The kind set is closed: the dispatcher maps kinds to
// HTTP statuses through the exhaustive table below, so an error can never
// reach the wire without a defined status.
package apierr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for status mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

// String returns the kind name used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInternal:
		return "internal"
	}
	return "internal"
}

// HTTPStatus maps a kind to its response status. Kinds outside the closed
// set fall back to 500 so a miswired error can never surface as a success.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// Error is the typed error handlers and the dispatcher produce. Code,
// Message, and Detail are wire-visible. Err holds the internal cause; it is
// logged and never serialized.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Code + ": " + e.Message + " (" + e.Detail + ")"
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Payload is the error body written on every non-2xx response.
type Payload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Payload returns the wire form of the error.
func (e *Error) Payload() Payload {
	return Payload{Code: e.Code, Message: e.Message, Detail: e.Detail}
}

// NotFound builds a not-found error with a wire code like "user_not_found".
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Validation builds a 400-mapped error. Detail carries the field and reason.
func Validation(code, message, detail string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Detail: detail}
}

// Conflict builds a 409-mapped error for duplicate unique fields.
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// Internal wraps an unexpected failure. The cause stays internal; the wire
// payload is generic.
func Internal(err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Code:    "internal",
		Message: "internal server error",
		Err:     err,
	}
}

// From converts any error into an *Error, wrapping unrecognized ones as
// internal so callers always have a kind and a status.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
