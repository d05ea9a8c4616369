// Package apperr defines the error taxonomy shared by the resolution and
// computation pipeline. Codes are stable; HTTP mapping lives here so handlers
// never switch on error strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a pipeline failure.
type Code string

const (
	CodeValidation          Code = "validation"
	CodeLocationNotFound    Code = "location_not_found"
	CodeInvalidCoordinates  Code = "invalid_coordinates"
	CodeInvalidCalendar     Code = "invalid_calendar_value"
	CodeProviderUnavailable Code = "provider_unavailable"
	CodeProviderTimeout     Code = "provider_timeout"
	CodePersistence         Code = "persistence"
	CodeInternal            Code = "internal"
)

// HTTPStatus maps a code to the status the /compute endpoint returns.
func HTTPStatus(c Code) int {
	switch c {
	case CodeValidation, CodeLocationNotFound, CodeInvalidCoordinates, CodeInvalidCalendar:
		return http.StatusBadRequest
	case CodeProviderUnavailable, CodeProviderTimeout, CodePersistence, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a code, a user-safe message, and an optional wrapped cause.
// The cause is for logs only and never reaches wire output.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error around a cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the code from err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// MessageOf extracts the user-safe message from err. Foreign errors get a
// generic message so internals never leak to clients.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal error"
}
