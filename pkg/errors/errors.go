// Package errors defines the coded errors shared by the CLI and the HTTP API.
//
// Every error that reaches a user carries a [Code]. The CLI prints
// [UserMessage]; the server answers {"error": code, "message": text} with the
// status from [HTTPStatus]. Codes group by suffix: INVALID_* for rejected
// input, *_NOT_FOUND for unknown layers, regions, features and sessions, and
// *_FAILED for work that ran and could not finish.
//
//	err := errors.Wrap(errors.ErrCodeLayerLoad, cause, "could not load %s", url)
//	if errors.Is(err, errors.ErrCodeLayerLoad) {
//	    // the layer stays inactive
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidColor  Code = "INVALID_COLOR"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidLevel  Code = "INVALID_LEVEL"

	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeLayerNotFound   Code = "LAYER_NOT_FOUND"
	ErrCodeRegionNotFound  Code = "REGION_NOT_FOUND"
	ErrCodeFeatureNotFound Code = "FEATURE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	ErrCodeLayerLoad Code = "LAYER_LOAD_FAILED"
	ErrCodeExport    Code = "EXPORT_FAILED"

	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a coded error with an optional cause.
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

// Is reports whether the first *Error in err's chain has code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without code or cause. Plain errors are
// returned as they print.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error code to the HTTP status used by the API.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidColor,
		ErrCodeInvalidPath, ErrCodeInvalidLevel:
		return 400
	case ErrCodeNotFound, ErrCodeLayerNotFound, ErrCodeRegionNotFound,
		ErrCodeFeatureNotFound, ErrCodeSessionNotFound:
		return 404
	case ErrCodeLayerLoad, ErrCodeNetwork:
		return 502
	case ErrCodeTimeout:
		return 504
	case ErrCodeUnsupported:
		return 501
	default:
		return 500
	}
}
