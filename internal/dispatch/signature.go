package dispatch

import (
	"fmt"
	"strings"
)

// TypeName identifies a dispatchable type.
type TypeName string

// Built-in types, always present in a Registry.
const (
	TypeNumber  TypeName = "number"
	TypeString  TypeName = "string"
	TypeBoolean TypeName = "boolean"

	// TypeOther classifies values that match no registered type.
	// It cannot appear in a signature.
	TypeOther TypeName = "other"
)

// Signature is the ordered list of parameter types an implementation requires.
type Signature []TypeName

// ParseSignature reads a comma-separated list such as "Moment, Duration".
// The empty string is the signature of a function without parameters.
func ParseSignature(s string) (Signature, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Signature{}, nil
	}

	parts := strings.Split(s, ",")
	sig := make(Signature, len(parts))
	for i, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			return nil, fmt.Errorf("signature %q: empty type name at position %d", s, i)
		}
		if TypeName(name) == TypeOther {
			return nil, fmt.Errorf("signature %q: %q cannot be dispatched on", s, name)
		}
		sig[i] = TypeName(name)
	}
	return sig, nil
}

// String returns the canonical form, e.g. "Moment, Duration".
func (s Signature) String() string {
	names := make([]string, len(s))
	for i, t := range s {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// key is the map key used for exact-match lookup.
func (s Signature) key() string {
	return s.String()
}
