// Package ir provides the canonical representation of dispatch calls.
//
// Every argument and result that crosses the engine boundary is converted
// to an IRValue before it is hashed, stored or printed. The value set is
// closed: strings, integers, booleans, arrays and objects. Moments,
// Durations and non-integral numbers are written as tagged objects so the
// canonical form never contains a float.
//
// ir depends on calendar only; engine, store and harness depend on ir.
package ir
