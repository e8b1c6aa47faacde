package fetch

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode classifies fetch errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates the header-wait or content-wait threshold
	// was exceeded.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeTransport indicates any other failure from the underlying
	// engine (refused connection, DNS, broken stream, sink write, etc).
	ErrCodeTransport
	// ErrCodeUnzip indicates a compressed body failed to decompress.
	ErrCodeUnzip
	// ErrCodeParse indicates the response body failed to decode as JSON.
	ErrCodeParse
	// ErrCodeValidation indicates a client-side validation error.
	ErrCodeValidation
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeTransport:
		return "transport"
	case ErrCodeUnzip:
		return "unzip"
	case ErrCodeParse:
		return "parse"
	case ErrCodeValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is a structured fetch error with classification.
type Error struct {
	// Code classifies the error.
	Code ErrorCode
	// Message describes the error.
	Message string
	// Threshold is the timeout value that was exceeded (ErrCodeTimeout only).
	Threshold time.Duration
	// StatusCode is the best-known response status at the time of failure,
	// 0 when no response arrived.
	StatusCode int
	// Headers are the best-known response headers at the time of failure.
	Headers map[string]string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewTimeoutError creates a timeout error carrying the exceeded threshold.
func NewTimeoutError(threshold time.Duration, err error) *Error {
	return &Error{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("exceeded %s: %v", threshold, err),
		Threshold: threshold,
		Err:       err,
	}
}

// NewTransportError creates a transport error.
func NewTransportError(err error) *Error {
	return &Error{
		Code:    ErrCodeTransport,
		Message: err.Error(),
		Err:     err,
	}
}

// NewUnzipError creates a decompression error.
func NewUnzipError(err error) *Error {
	return &Error{
		Code:    ErrCodeUnzip,
		Message: err.Error(),
		Err:     err,
	}
}

// NewParseError creates a JSON decode error.
func NewParseError(err error) *Error {
	return &Error{
		Code:    ErrCodeParse,
		Message: err.Error(),
		Err:     err,
	}
}

// NewValidationError creates a client-side validation error.
func NewValidationError(msg string) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTimeout
}

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTransport
}

// IsUnzip checks if an error is a decompression error.
func IsUnzip(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeUnzip
}

// IsParse checks if an error is a JSON decode error.
func IsParse(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeParse
}

// attachResponse records the best-known response metadata on err so callers
// can make partial-failure decisions. Already-classified errors keep their
// code; anything else becomes a transport error wrapping the original.
func attachResponse(err error, statusCode int, headers map[string]string) error {
	var e *Error
	if !errors.As(err, &e) {
		e = NewTransportError(err)
		err = e
	}
	if e.StatusCode == 0 {
		e.StatusCode = statusCode
	}
	if e.Headers == nil {
		e.Headers = headers
	}
	return err
}

// asUnzipError classifies a decompression failure, leaving already-typed
// errors (a content timeout surfacing through the codec) untouched.
func asUnzipError(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return NewUnzipError(err)
}
