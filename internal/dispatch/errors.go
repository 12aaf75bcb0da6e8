package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

// LookupError is returned by FindType for a tag that is not registered.
// Installers treat it as "safe to register".
type LookupError struct {
	Name TypeName
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("unknown type %q", string(e.Name))
}

// DuplicateTypeError is returned by AddType when the name is already taken.
type DuplicateTypeError struct {
	Name TypeName
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("type %q is already registered", string(e.Name))
}

// UnknownFunctionError is returned when no function is registered under a name.
type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function %q", e.Name)
}

// UnsupportedOperandTypesError is returned when a function exists but has no
// signature matching the runtime types of the arguments.
type UnsupportedOperandTypesError struct {
	Function string
	Types    []TypeName
}

func (e *UnsupportedOperandTypesError) Error() string {
	names := make([]string, len(e.Types))
	for i, t := range e.Types {
		names[i] = string(t)
	}
	return fmt.Sprintf("unsupported operand types for %s: (%s)", e.Function, strings.Join(names, ", "))
}

// IsLookupError reports whether err is, or wraps, a LookupError.
func IsLookupError(err error) bool {
	var le *LookupError
	return errors.As(err, &le)
}

// IsDuplicateType reports whether err is, or wraps, a DuplicateTypeError.
func IsDuplicateType(err error) bool {
	var de *DuplicateTypeError
	return errors.As(err, &de)
}

// IsUnsupportedOperands reports whether err is, or wraps, an
// UnsupportedOperandTypesError.
func IsUnsupportedOperands(err error) bool {
	var ue *UnsupportedOperandTypesError
	return errors.As(err, &ue)
}

// IsUnknownFunction reports whether err is, or wraps, an UnknownFunctionError.
func IsUnknownFunction(err error) bool {
	var ue *UnknownFunctionError
	return errors.As(err, &ue)
}
