// Package apperr defines the domain error model. Every business failure
// carries a machine-readable code, a human-readable message, and the HTTP
// status it maps to at the API boundary.
package apperr

import (
	"errors"
	"net/http"
)

// Code identifies the class of a domain error.
//
// Ranges: 1000-1999 validation, 2000-2999 transaction, 3000-3999 idempotency,
// 5000-5999 system.
type Code int

const (
	CodeValidation             Code = 1001
	CodeTransactionNotFound    Code = 2001
	CodeIdempotencyKeyRequired Code = 3001
	CodeRepeatedRequest        Code = 3002
	CodeInternal               Code = 5000
)

// Error is a domain error with an HTTP mapping.
type Error struct {
	Code    Code
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors by code, so errors.Is works against the sentinel
// constructors regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// Validation reports malformed or missing input.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Status: http.StatusBadRequest}
}

// TransactionNotFound reports a reference to an absent record.
func TransactionNotFound() *Error {
	return &Error{Code: CodeTransactionNotFound, Message: "transaction not found", Status: http.StatusNotFound}
}

// IdempotencyKeyRequired reports a missing Idempotency-Key.
func IdempotencyKeyRequired() *Error {
	return &Error{Code: CodeIdempotencyKeyRequired, Message: "Idempotency-Key header is required", Status: http.StatusBadRequest}
}

// RepeatedRequest reports reuse of a consumed idempotency key.
func RepeatedRequest() *Error {
	return &Error{Code: CodeRepeatedRequest, Message: "repeated request", Status: http.StatusConflict}
}

// Internal reports an unexpected failure. The message is safe to surface.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg, Status: http.StatusInternalServerError}
}

// CodeOf extracts the domain code from err, or CodeInternal if err is not a
// domain error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// StatusOf extracts the HTTP status from err, or 500 if err is not a domain
// error.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}
