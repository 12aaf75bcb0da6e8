// Package dispatch implements a typed multiple-dispatch registry.
//
// A Registry holds two tables:
//
//   - type tags: a name plus a predicate that classifies runtime values
//   - functions: for each function name, a map from parameter signature to
//     implementation
//
// Resolution classifies every argument exactly once into a TypeName, then
// looks up the exact signature for the call. There is no coercion and no
// fallback: a missing signature fails with UnsupportedOperandTypesError.
//
// # Building and importing functions
//
// Implementations are grouped per function name with Typed, which produces
// an immutable Function holding every signature for that name:
//
//	add, err := dispatch.Typed("add", dispatch.Defs{
//	    "Moment, Duration":   addMomentDuration,
//	    "Duration, Duration": addDurations,
//	})
//
// Import merges a batch of Functions into the registry in one step. Merging
// is additive: importing "add" with a new signature keeps every signature
// already registered for "add". Importing a signature that already exists
// replaces that one entry and logs a warning unless ImportOptions.Silent is
// set.
//
// # Built-in types
//
// The types "number", "string" and "boolean" are always present. All Go
// integer and float kinds classify as "number" and are passed to
// implementations as float64. Values that match no type classify as "other"
// and can never satisfy a signature.
package dispatch
