package dispatch

import (
	"fmt"
	"sort"
)

// Impl is a function implementation. Arguments arrive normalized: numbers
// as float64, everything else as classified.
type Impl func(args ...any) (any, error)

// Defs maps a signature literal ("Moment, Duration") to its implementation.
type Defs map[string]Impl

type overload struct {
	sig Signature
	fn  Impl
}

// Function is an immutable set of implementations sharing one name.
type Function struct {
	name      string
	overloads map[string]overload
}

// Typed builds a Function from signature literals. Every signature of the
// function should be listed in one call; the result cannot be modified.
func Typed(name string, defs Defs) (*Function, error) {
	if name == "" {
		return nil, fmt.Errorf("typed function: name is required")
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("typed function %q: at least one signature is required", name)
	}

	f := &Function{name: name, overloads: make(map[string]overload, len(defs))}
	for lit, fn := range defs {
		sig, err := ParseSignature(lit)
		if err != nil {
			return nil, fmt.Errorf("typed function %q: %w", name, err)
		}
		if fn == nil {
			return nil, fmt.Errorf("typed function %q: nil implementation for (%s)", name, sig)
		}
		if _, dup := f.overloads[sig.key()]; dup {
			return nil, fmt.Errorf("typed function %q: signature (%s) listed twice", name, sig)
		}
		f.overloads[sig.key()] = overload{sig: sig, fn: fn}
	}
	return f, nil
}

// MustTyped is like Typed but panics on error. Intended for package-level
// tables built from literals.
func MustTyped(name string, defs Defs) *Function {
	f, err := Typed(name, defs)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the function name.
func (f *Function) Name() string {
	return f.name
}

// Signatures returns the function's signatures in sorted order.
func (f *Function) Signatures() []Signature {
	return sortedSignatures(f.overloads)
}

func sortedSignatures(overloads map[string]overload) []Signature {
	keys := make([]string, 0, len(overloads))
	for k := range overloads {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sigs := make([]Signature, len(keys))
	for i, k := range keys {
		sigs[i] = overloads[k].sig
	}
	return sigs
}

// Nullary adapts a parameterless Go function.
func Nullary[R any](fn func() R) Impl {
	return func(args ...any) (any, error) {
		return fn(), nil
	}
}

// Unary adapts a one-argument Go function that may fail.
func Unary[A, R any](fn func(A) (R, error)) Impl {
	return func(args ...any) (any, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		return fn(a)
	}
}

// Binary adapts a two-argument Go function that cannot fail.
func Binary[A, B, R any](fn func(A, B) R) Impl {
	return BinaryE(func(a A, b B) (R, error) {
		return fn(a, b), nil
	})
}

// BinaryE adapts a two-argument Go function that may fail.
func BinaryE[A, B, R any](fn func(A, B) (R, error)) Impl {
	return func(args ...any) (any, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		return fn(a, b)
	}
}

// arg extracts args[i] as T. A mismatch means a signature was registered
// against the wrong Go type, which is a programming error.
func arg[T any](args []any, i int) (T, error) {
	var zero T
	if i >= len(args) {
		return zero, fmt.Errorf("missing argument %d", i)
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, fmt.Errorf("argument %d: expected %T, got %T", i, zero, args[i])
	}
	return v, nil
}
