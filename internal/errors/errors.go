// Package errors defines the structured error type shared by every hoststats
// component. Errors carry a code so callers can branch on the failure kind
// without string matching.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig         = "CONFIG"
	ErrRegistry       = "REGISTRY"
	ErrConnect        = "CONNECT"
	ErrEmit           = "EMIT"
	ErrAlreadyRunning = "ALREADY_RUNNING"
	ErrSample         = "SAMPLE"
	ErrServe          = "SERVE"
	ErrSpawn          = "SPAWN"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// It renders as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error (or anything it wraps) is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var hsErr *Error
	if errors.As(err, &hsErr) {
		return hsErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first structured Error in the chain, or "".
func CodeOf(err error) string {
	var hsErr *Error
	if errors.As(err, &hsErr) {
		return hsErr.Code
	}
	return ""
}
