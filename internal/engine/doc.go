// Package engine evaluates operator calls against a dispatch registry and
// records each one.
//
// An Engine owns one session. Every call is stamped with the next seq from
// the session Clock, converted to its canonical form, given a
// content-addressed ID, written to the Recorder (if any) and counted in
// Metrics (if any). Calls are evaluated one at a time, so the trace order
// is the call order.
//
// Failures come back as *RuntimeError with one of the ErrCode values. The
// failed call is still recorded.
package engine
