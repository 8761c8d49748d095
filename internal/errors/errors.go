// Package errors provides the error taxonomy shared by the chunking,
// decoding and model-selection packages.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies an AppError.
type Code int

const (
	CodeUnknown Code = iota
	// CodeFormat marks a bad magic, unsupported channel count or bit depth.
	// Fatal to the current file and never retried.
	CodeFormat
	// CodeIO marks an open, seek or read failure.
	CodeIO
	// CodePreferenceUnavailable marks a preference read that failed or timed out.
	CodePreferenceUnavailable
	CodeInvalidArgument
	CodeEngine
)

var codeNames = map[Code]string{
	CodeUnknown:               "UNKNOWN",
	CodeFormat:                "FORMAT",
	CodeIO:                    "IO",
	CodePreferenceUnavailable: "PREFERENCE_UNAVAILABLE",
	CodeInvalidArgument:       "INVALID_ARGUMENT",
	CodeEngine:                "ENGINE",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Sentinels matched by errors.Is against any AppError of the same code.
var (
	ErrFormat                = &AppError{Code: CodeFormat, Message: "format error"}
	ErrIO                    = &AppError{Code: CodeIO, Message: "io error"}
	ErrPreferenceUnavailable = &AppError{Code: CodePreferenceUnavailable, Message: "preference unavailable"}
	ErrInvalidArgument       = &AppError{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrEngine                = &AppError{Code: CodeEngine, Message: "engine error"}
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

// Is reports code equality so that errors.Is(err, ErrFormat) works for any
// format error regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *AppError {
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

// IsCode checks if an error has a specific error code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsRetryable returns true if the error is potentially retryable.
// Only storage failures qualify; format errors are final.
func IsRetryable(err error) bool {
	return IsCode(err, CodeIO)
}
