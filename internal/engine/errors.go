package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/tempo/internal/dispatch"
)

// RuntimeError is a failed call as seen by engine callers. It wraps the
// dispatch or implementation error, so errors.As and errors.Is still reach
// dispatch.UnsupportedOperandTypesError or calendar.ErrNonFinite.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Operator is the function that was called.
	Operator string

	// Session and Seq locate the call in the trace.
	Session string
	Seq     int64

	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnsupportedOperands means no signature matched the argument types.
	ErrCodeUnsupportedOperands RuntimeErrorCode = "UNSUPPORTED_OPERANDS"

	// ErrCodeUnknownFunction means the operator has no signatures at all.
	ErrCodeUnknownFunction RuntimeErrorCode = "UNKNOWN_FUNCTION"

	// ErrCodeInvocationFailed means the implementation itself returned an error.
	ErrCodeInvocationFailed RuntimeErrorCode = "INVOCATION_FAILED"

	// ErrCodeQuotaExceeded means the session used up its call budget.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"
)

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %v (session=%s, seq=%d)", e.Code, e.Err, e.Session, e.Seq)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// classifyError maps a dispatch failure to its code.
func classifyError(err error) RuntimeErrorCode {
	switch {
	case dispatch.IsUnsupportedOperands(err):
		return ErrCodeUnsupportedOperands
	case dispatch.IsUnknownFunction(err):
		return ErrCodeUnknownFunction
	case IsQuotaError(err):
		return ErrCodeQuotaExceeded
	default:
		return ErrCodeInvocationFailed
	}
}

// CodeOf returns the RuntimeErrorCode carried by err, or "" if err is not
// a RuntimeError.
func CodeOf(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsQuotaError reports whether err is a CallsExceededError.
func IsQuotaError(err error) bool {
	var ce *CallsExceededError
	return errors.As(err, &ce)
}
