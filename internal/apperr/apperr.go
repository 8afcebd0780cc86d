// Package apperr defines the status-carrying error type used across the
// service layer. Handlers convert it to the response envelope at the
// boundary; nothing below the handlers writes HTTP responses.
package apperr

import (
	"errors"
	"net/http"
)

// Error pairs an HTTP status code with a client-safe message
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with an explicit status code
func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap keeps the underlying cause for logging while exposing only the
// client-safe message
func Wrap(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// BadRequest marks malformed or semantically invalid input
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Unauthorized marks a missing or usably-expired credential; the client may
// attempt a refresh or re-login
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// Forbidden marks a credential that is present but fails a trust check; no
// refresh attempt is meaningful
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

// NotFound marks an absent record
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Conflict marks duplicate identity fields
func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// Internal marks an unexpected store or codec failure
func Internal(message string, err error) *Error {
	return Wrap(http.StatusInternalServerError, message, err)
}

// From extracts an *Error from err, defaulting to a 500
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Code: http.StatusInternalServerError, Message: "Internal server error!", Err: err}
}
