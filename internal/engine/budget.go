package engine

import "fmt"

// DefaultMaxCalls bounds the calls one session may make.
const DefaultMaxCalls = 10000

// callBudget counts calls against a session limit. A limit of zero or less
// disables the check.
type callBudget struct {
	limit   int
	current int
}

func newCallBudget(limit int) *callBudget {
	return &callBudget{limit: limit}
}

// Check counts one call and fails once the limit is passed.
func (b *callBudget) Check(session string) error {
	b.current++
	if b.limit > 0 && b.current > b.limit {
		return &CallsExceededError{Session: session, Calls: b.current, Limit: b.limit}
	}
	return nil
}

// CallsExceededError is returned for every call past the session limit.
type CallsExceededError struct {
	Session string
	Calls   int
	Limit   int
}

func (e *CallsExceededError) Error() string {
	return fmt.Sprintf("session %s exceeded call budget: %d calls > %d limit", e.Session, e.Calls, e.Limit)
}
