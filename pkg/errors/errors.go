// Package errors gives taxoview failures a machine-readable [Code].
//
// The engine, the CLI and the HTTP API share these codes: the API maps them
// to status codes and JSON bodies, the CLI prints [UserMessage]. Codes fall
// into families:
//
//	INVALID_*          bad caller input (HTTP 400)
//	UNKNOWN_*, NO_PATH references that resolve to nothing (HTTP 404)
//	EMPTY_GRAPH        a dataset with no subclass links
//	NETWORK_ERROR      a knowledge base or cache that could not be reached
//
// Build errors with [New] or [Wrap] and test them with [Is]:
//
//	err := errors.New(errors.ErrCodeUnknownRoot, "root %q not in graph", id)
//	if errors.Is(err, errors.ErrCodeUnknownRoot) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidDepth  Code = "INVALID_DEPTH"
	ErrCodeInvalidBounds Code = "INVALID_BOUNDS"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	ErrCodeUnknownRoot Code = "UNKNOWN_ROOT"
	ErrCodeUnknownNode Code = "UNKNOWN_NODE"
	ErrCodeEmptyGraph  Code = "EMPTY_GRAPH"
	ErrCodeNoPath      Code = "NO_PATH"

	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error carries a Code, a message for people and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error renders "CODE: message" or "CODE: message: cause".
func (e *Error) Error() string {
	s := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is [New] with a cause that stays reachable through errors.Is/As.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := asError(err); ok {
		return e.Code
	}
	return ""
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// UserMessage strips the code prefix and cause from coded errors. Other
// errors are returned as their Error string.
func UserMessage(err error) string {
	if e, ok := asError(err); ok {
		return e.Message
	}
	return err.Error()
}

// IsNotFound reports whether err names something that does not exist.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeUnknownRoot, ErrCodeUnknownNode, ErrCodeNoPath,
		ErrCodeNotFound, ErrCodeFileNotFound, ErrCodeSessionNotFound:
		return true
	}
	return false
}

// IsInvalid reports whether err rejects caller input.
func IsInvalid(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidDepth,
		ErrCodeInvalidBounds, ErrCodeInvalidPath:
		return true
	}
	return false
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
