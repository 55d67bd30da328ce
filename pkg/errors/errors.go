// Package errors provides structured error types for dcmdict.
//
// Resolution of the docbook corpus distinguishes between tolerated
// irregularities, which are logged and skipped by the caller, and structural
// violations, which abort the run. The latter are reported as *Error values
// carrying a machine-readable [Code] so that the CLI, the HTTP API and tests
// can tell them apart without string matching.
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: input or configuration validation failures
//   - UNKNOWN_*, EMPTY_*, MISSING_*, BROKEN_*: structural corpus violations
//   - DOCUMENT_*, NETWORK_*: retrieval failures
//   - INTERNAL_*: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownAttribute, "unknown attribute %s in %s", tag, table)
//	if errors.Is(err, errors.ErrCodeUnknownAttribute) {
//	    // Handle the dangling reference
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeDocumentUnavailable, origErr, "open %s", part)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidUID     Code = "INVALID_UID"
	ErrCodeInvalidPattern Code = "INVALID_PATTERN"
	ErrCodeMalformedTag   Code = "MALFORMED_TAG"

	// Structural corpus violations
	ErrCodeUnknownAttribute Code = "UNKNOWN_ATTRIBUTE"
	ErrCodeEmptyModule      Code = "EMPTY_MODULE"
	ErrCodeEmptyIOD         Code = "EMPTY_IOD"
	ErrCodeMissingElement   Code = "MISSING_ELEMENT"
	ErrCodeBrokenReference  Code = "BROKEN_REFERENCE"

	// Retrieval errors
	ErrCodeDocumentUnavailable Code = "DOCUMENT_UNAVAILABLE"
	ErrCodeNetwork             Code = "NETWORK_ERROR"
	ErrCodeNotFound            Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}

// Fatal reports whether err is a structural violation that must abort the
// run rather than be skipped by the caller.
func Fatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeUnknownAttribute, ErrCodeEmptyModule, ErrCodeEmptyIOD,
		ErrCodeMissingElement, ErrCodeBrokenReference, ErrCodeDocumentUnavailable,
		ErrCodeMalformedTag, ErrCodeInvalidUID:
		return true
	}
	return false
}
