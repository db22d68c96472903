// Package apperr defines the tagged error kinds used across the service.
// Each kind carries the HTTP status it should surface as, so handlers never
// have to guess a status from the error text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error at the point where it is produced.
type Kind int

const (
	// KindInternal covers persistence failures and anything unclassified.
	KindInternal Kind = iota
	// KindValidation covers missing or malformed caller input.
	KindValidation
	// KindUnauthorized covers missing or invalid bearer credentials.
	KindUnauthorized
	// KindNotFound covers lookups of records that do not exist.
	KindNotFound
	// KindConflict covers concurrent-modification failures.
	KindConflict
	// KindConfig covers missing required environment configuration.
	KindConfig
	// KindUpstream covers geocoding failures. These map to 400: an address
	// the provider cannot resolve is a caller problem, not a server fault.
	KindUpstream
)

// HTTPStatus returns the status code this kind surfaces as.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindUpstream:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a kinded error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error returns the message, including the cause when present.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind wrapping a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation creates a KindValidation error.
func Validation(message string) *Error { return New(KindValidation, message) }

// Validationf creates a KindValidation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return Newf(KindValidation, format, args...)
}

// Unauthorized creates a KindUnauthorized error.
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }

// Config creates a KindConfig error.
func Config(message string) *Error { return New(KindConfig, message) }

// KindOf extracts the kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusOf returns the HTTP status err should surface as.
func StatusOf(err error) int {
	return KindOf(err).HTTPStatus()
}
