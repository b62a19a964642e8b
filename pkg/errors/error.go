// Package errors provides coded errors shared by every equity-trader package.
//
// Codes are grouped by the layer that raises them:
//   - General errors (1-99)
//   - Validation errors (100-199): configuration, thresholds, order specs
//   - Data errors (200-299): missing or malformed data
//   - Gateway errors (300-399): connection, snapshot and request failures
//   - Tracker errors (400-499): candidate/position/order bookkeeping
//   - Trading errors (500-599): order submission and de-duplication
//   - Engine errors (600-699): lifecycle of the trader engine
//   - Research errors (700-799): statistics and ratings providers
//   - Callback errors (800-899): engine callbacks
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeDuplicateTicker, "ticker %s is already tracked", symbol)
//	err := errors.Wrap(errors.ErrCodeConnectFailed, "failed to connect to gateway", cause)
//
//	if errors.HasCode(err, errors.ErrCodeSnapshotTimeout) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsTransient reports whether any coded error in err's chain is a gateway
// error. Those clear on a later cycle once the session is back.
func IsTransient(err error) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}

		if e.Code.Category() == CategoryGateway {
			return true
		}

		err = e.Cause
	}

	return false
}

// InsufficientDataError reports that a value could not be derived because
// one or more inputs have not arrived yet.
type InsufficientDataError struct {
	Symbol  string   // Symbol the data belongs to
	Missing []string // Names of the inputs that are still unknown
	Message string   // Human-readable message
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(symbol string, missing []string, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Symbol:  symbol,
		Missing: missing,
		Message: message,
	}
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(symbol string, missing []string, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Symbol:  symbol,
		Missing: missing,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}
