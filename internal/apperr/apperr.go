// Package apperr defines the typed failures surfaced by selection and
// practice operations.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies a failure class
type Code string

const (
	// CodeNotFound: the session or word does not exist or is not the caller's.
	CodeNotFound Code = "NOT_FOUND"
	// CodeInsufficientContent: selection produced no usable words.
	CodeInsufficientContent Code = "INSUFFICIENT_CONTENT"
	// CodeStoreUnavailable: the word store or cache failed or timed out. Retryable.
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	// CodeInvalidRequest: malformed input.
	CodeInvalidRequest Code = "INVALID_REQUEST"
	// CodeConflict: a concurrent writer won every retry.
	CodeConflict Code = "CONFLICT"
	// CodeInternal is used for anything unclassified.
	CodeInternal Code = "INTERNAL"
)

// Error is a classified error
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func InsufficientContent(msg string) *Error {
	return &Error{Code: CodeInsufficientContent, Message: msg}
}

func StoreUnavailable(msg string, cause error) *Error {
	return &Error{Code: CodeStoreUnavailable, Message: msg, Cause: cause}
}

func InvalidRequest(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func Conflict(msg string, cause error) *Error {
	return &Error{Code: CodeConflict, Message: msg, Cause: cause}
}

// CodeOf extracts the code from anywhere in err's chain.
// Unclassified errors report CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries code
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// MessageOf returns the classified message, or a generic one for internal errors
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
