// Package errors provides structured error types for geonodes.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes fall into two groups. Fatal codes abort an operation:
//   - INVALID_SCHEMA, DUPLICATE_NODE_ID: a descriptor was rejected by validation
//   - HOST_PRECONDITION: the host refused to create the node group
//
// Item-level codes are recovered locally by the materializer and reported as
// diagnostics:
//   - UNKNOWN_NODE_TYPE: the host refused a node type
//   - UNRESOLVED_ENDPOINT: a link names a node or socket that does not exist
//   - INVALID_VALUE: an input or property value could not be assigned
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSchema, "node %d has no type", i)
//	if errors.Is(err, errors.ErrCodeInvalidSchema) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeHostPrecondition, origErr, "create node group %q", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Descriptor errors
	ErrCodeInvalidSchema   Code = "INVALID_SCHEMA"
	ErrCodeDuplicateNodeID Code = "DUPLICATE_NODE_ID"

	// Materialization errors
	ErrCodeUnknownNodeType    Code = "UNKNOWN_NODE_TYPE"
	ErrCodeUnresolvedEndpoint Code = "UNRESOLVED_ENDPOINT"
	ErrCodeInvalidValue       Code = "INVALID_VALUE"
	ErrCodeHostPrecondition   Code = "HOST_PRECONDITION"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"
	ErrCodePresetNotFound Code = "PRESET_NOT_FOUND"

	// Server errors
	ErrCodeRateLimited Code = "RATE_LIMITED"

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
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	var c coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

// coder is implemented by every error type that carries a Code.
type coder interface {
	ErrorCode() Code
}

// ErrorCode returns the error code. Other error types in this module expose
// the same method so GetCode can classify them.
func (e *Error) ErrorCode() Code {
	return e.Code
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RateLimitedError is returned by the HTTP API when a client exceeds its request budget.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// ErrorCode returns the error code for this error type.
func (e *RateLimitedError) ErrorCode() Code {
	return ErrCodeRateLimited
}
