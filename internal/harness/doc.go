// Package harness runs YAML call scenarios against a fresh registry and
// checks the recorded trace.
//
// A scenario fixes the wall clock, location and session token, then runs
// a list of steps. Each step is one call; its result can be bound to a name
// with `as` and passed to later steps with {ref: name}. Steps may check the
// result (`expect`, subset match on objects) or the error code
// (`expect_error`). Assertions then run against the trace read back from
// the store:
//
//	trace_contains  a call to operator, optionally with signature/outcome
//	trace_count     exactly count calls to operator
//	trace_order     first calls to operators appear in the given order
//
// Every run uses an in-memory store, so runs are isolated and traces are
// byte-identical between runs. RunWithGolden compares the trace against
// testdata/golden/<name>.golden.
package harness
