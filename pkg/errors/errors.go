// Package errors provides coded error types for the snapfx nodes.
//
// Only structural problems leave a node as an error: a batch with the wrong
// shape, a font that cannot be located, or a parameter outside its enumeration.
// Everything that can go wrong while processing a single frame is recorded in
// the node's report instead.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedInput, "mask must be (batch, height, width), got rank %d", len(shape))
//	if errors.Is(err, errors.ErrCodeMalformedInput) {
//	    // reject the call
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Structural errors that fail the whole call.
	ErrCodeMalformedInput   Code = "MALFORMED_INPUT"
	ErrCodeInvalidParameter Code = "INVALID_PARAMETER"
	ErrCodeFontNotFound     Code = "FONT_NOT_FOUND"

	// Per-frame failures, normally carried inside a node report.
	ErrCodeCodecFailure  Code = "CODEC_FAILURE"
	ErrCodeFilterFailure Code = "FILTER_FAILURE"

	// Tooling errors (CLI, config, face locator backends).
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeBackendFailure Code = "BACKEND_FAILURE"
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
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message and cause without the code prefix for
// *Error values and the plain error string otherwise.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}
