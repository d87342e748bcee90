package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Kind classifies an error for the purpose of choosing a response status.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindUnauthorized  Kind = "unauthorized"
	KindForbidden     Kind = "forbidden"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindDuplicate     Kind = "duplicate"
	KindConfiguration Kind = "configuration"
	KindBackend       Kind = "backend"
)

// Error is the error type returned across handler, storage and provider boundaries.
type Error struct {
	Kind    Kind
	Message string
	// Code is a backend or provider error code, e.g. a Postgres SQLSTATE or a Toss error code.
	Code string
	// Status, when non-zero, is an upstream HTTP status that should be relayed to the caller.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports a missing or malformed request field.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Unauthorized reports a missing or invalid bearer token.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Forbidden reports a resource ownership mismatch.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NotFound reports that a referenced entity does not exist.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict reports an invalid state transition.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Duplicate reports a duplicate registration.
func Duplicate(msg string) *Error {
	return &Error{Kind: KindDuplicate, Message: msg}
}

// Configuration reports a required process setting that is absent.
// The variable name is kept in Code so it can be logged.
func Configuration(variable string) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: fmt.Sprintf("missing configuration: %s", variable),
		Code:    variable,
	}
}

// Backend reports a data store or provider failure.
func Backend(code, msg string, err error) *Error {
	return &Error{Kind: KindBackend, Code: code, Message: msg, Err: err}
}

// KindOf returns the kind of err, defaulting to KindBackend for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBackend
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HasCode reports whether err carries the given backend or provider code.
func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// StatusCode maps err to the HTTP status the caller sees.
func StatusCode(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	case KindBackend:
		if e.Status >= 400 && e.Status < 600 {
			return e.Status
		}
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message shown to the admin console.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

// BestEffort runs a non-critical side effect. A failure is logged and swallowed.
func BestEffort(log *zap.Logger, what string, fn func() error) {
	if err := fn(); err != nil {
		log.Warn("best-effort side effect failed", zap.String("effect", what), zap.Error(err))
	}
}
