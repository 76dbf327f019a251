// Package errors provides unified error handling with structured error codes.
// Every failure that crosses a component boundary (capture, fingerprinting,
// filesystem) is reported as an *AppError so the scheduler and the surface can
// branch on the code instead of matching strings.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies an AppError.
type Code int

const (
	CodeUnknown Code = iota
	CodeInternal
	CodeCaptureFailed
	CodeFingerprintFailed
	CodeNoMonitors
	CodeDirectoryCreateFailed
	CodeFileWriteFailed
	CodePermissionDenied
	CodeConfigInvalid
)

var codeNames = map[Code]string{
	CodeUnknown:               "UNKNOWN",
	CodeInternal:              "INTERNAL",
	CodeCaptureFailed:         "CAPTURE_FAILED",
	CodeFingerprintFailed:     "FINGERPRINT_FAILED",
	CodeNoMonitors:            "NO_MONITORS",
	CodeDirectoryCreateFailed: "DIRECTORY_CREATE_FAILED",
	CodeFileWriteFailed:       "FILE_WRITE_FAILED",
	CodePermissionDenied:      "PERMISSION_DENIED",
	CodeConfigInvalid:         "CONFIG_INVALID",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return codeNames[CodeUnknown]
}

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) Code {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error chain carries a specific error code.
func IsCode(err error, code Code) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// IsRetryable returns true if the error is potentially transient.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeCaptureFailed, CodeFileWriteFailed:
		return true
	default:
		return false
	}
}
