package calendar

import (
	"errors"
	"fmt"
)

// ErrNonFinite is returned when a millisecond count is NaN, infinite, or does
// not fit in an int64.
var ErrNonFinite = errors.New("duration milliseconds must be finite")

// ErrOutOfRange is returned when a Duration component, or its total length
// in milliseconds, does not fit in an int64.
var ErrOutOfRange = errors.New("duration out of range")

// ParseError reports a literal that could not be read as a Moment or Duration.
type ParseError struct {
	Kind  string // "moment" or "duration"
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Kind, e.Input, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Kind, e.Input)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
