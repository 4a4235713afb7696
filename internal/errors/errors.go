// Package errors provides coded application errors shared by capture, monitor and config.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies an AppError.
type Code string

const (
	Unknown             Code = "UNKNOWN"
	Internal            Code = "INTERNAL"
	InvalidArgument     Code = "INVALID_ARGUMENT"
	ConfigMissing       Code = "CONFIG_MISSING"
	ConfigInvalid       Code = "CONFIG_INVALID"
	InvalidState        Code = "INVALID_STATE"
	InvalidRegion       Code = "INVALID_REGION"
	CaptureFailed       Code = "CAPTURE_FAILED"
	CaptureUnavailable  Code = "CAPTURE_UNAVAILABLE"
	ArtifactWriteFailed Code = "ARTIFACT_WRITE_FAILED"
	Timeout             Code = "TIMEOUT"
	Cancelled           Code = "CANCELLED"
)

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

// CodeOf returns the code of the first AppError in err's chain, or Unknown.
func CodeOf(err error) Code {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return Unknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code Code) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsRetryable returns true if the error is potentially retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case CaptureFailed, CaptureUnavailable, Timeout:
		return true
	default:
		return false
	}
}
