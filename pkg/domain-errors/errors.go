// Package domainerrors provides coded errors shared by all services.
//
// Services return these instead of transport errors so handlers can map a
// code to an HTTP status without string matching. Infrastructure facts
// (missing row, expired key) live in pkg/platform/sentinel; stores wrap
// those, services translate them into a coded error at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for propagation and transport mapping.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeInvalidInput       Code = "invalid_input"
	CodeForbidden          Code = "forbidden"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"

	// Reconciliation-engine taxonomy.

	// CodeInvalidIdentifier marks a claim number that failed normalization.
	CodeInvalidIdentifier Code = "invalid_identifier"
	// CodeInvalidAmount marks a monetary value that failed normalization.
	CodeInvalidAmount Code = "invalid_amount"
	// CodeInvalidInputRow marks an unparseable batch row; it aborts the
	// whole import before any row is processed.
	CodeInvalidInputRow Code = "invalid_input_row"
	// CodeInconsistentStats marks a batch or cycle record whose counts
	// do not add up. Fatal: such a record must never be persisted.
	CodeInconsistentStats Code = "inconsistent_stats"
	// CodeNoChange signals a no-op command. Callers treat it as a benign
	// outcome, not a failure path.
	CodeNoChange Code = "no_change"
	// CodeTerminalState marks an attempt to mutate an approved claim.
	CodeTerminalState Code = "terminal_state"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err
// returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability in tests.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code carried by err, or CodeInternal when
// err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost coded message, or the plain error text.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
