// Package domainerrors defines the error taxonomy shared across registry
// services. Expected domain outcomes (not found, precondition failed) carry a
// Code so transport layers can map them without string matching; only true
// infrastructure faults travel as bare wrapped errors.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers deciding whether to retry, wait, or
// escalate.
type Code string

const (
	// CodeInvalidInput marks malformed or missing identifiers. Never retried.
	CodeInvalidInput Code = "invalid_input"

	// CodeNotFound marks a clean miss across every upstream source. A normal
	// outcome, not an exception.
	CodeNotFound Code = "not_found"

	// CodeConflict marks a failed precondition: a lifecycle gate not met, or
	// a required prior step (archival) that has not run.
	CodeConflict Code = "conflict"

	// CodeUpstream marks relational-store or object-storage failures. The
	// originating error detail stays attached since these are operationally
	// actionable.
	CodeUpstream Code = "upstream_failure"

	// CodeInternal is the fallback for faults with no more specific class.
	CodeInternal Code = "internal"
)

// Error is a code-carrying error. Message is safe for API responses; Err
// retains the underlying cause for logs.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a domain error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err returns
// nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// MessageOf returns the response-safe message from the chain, or the raw
// error string when the error is not a domain error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// ToHTTPStatus maps a code to its HTTP status for transport layers.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
