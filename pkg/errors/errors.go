// Package errors defines the structured error codes shared by the collage
// engines, the CLI and the HTTP service.
//
// Codes tell a caller what kind of failure happened without parsing messages:
//
//	layout, err := engine.Pack(images, 800, 300)
//	if errors.Is(err, errors.ErrCodeNonConvergence) {
//	    // try another preset
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Layout failures
	ErrCodeEmptyInput     Code = "EMPTY_INPUT"
	ErrCodeNonConvergence Code = "LAYOUT_NON_CONVERGENCE"

	// Crop failures
	ErrCodeInvalidCropBounds Code = "INVALID_CROP_BOUNDS"

	// Collaborator failures
	ErrCodeDetectorUnavailable Code = "DETECTOR_UNAVAILABLE"

	// Input validation
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidConfig      Code = "INVALID_CONFIG"
	ErrCodeInsufficientImages Code = "INSUFFICIENT_IMAGES"
	ErrCodeUnsupportedFormat  Code = "UNSUPPORTED_FORMAT"
	ErrCodePayloadTooLarge    Code = "PAYLOAD_TOO_LARGE"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

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

// Is reports whether any *Error in err's chain carries code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
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

// GetCode extracts the outermost error code, or "" for foreign errors.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// NonConvergenceError reports where the row-height search gave up.
type NonConvergenceError struct {
	LastRowHeight int
	Attempts      int
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("no layout without single-image rows (last row height %d after %d attempts)",
		e.LastRowHeight, e.Attempts)
}
