package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/tempo/internal/ir"
)

// AssertionError is returned when an assertion fails. It carries the full
// trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []ir.Call
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, c := range e.Trace {
		outcome := ir.OutcomeOK
		if c.ErrorCode != "" {
			outcome = c.ErrorCode
		}
		fmt.Fprintf(&buf, "  [%d] %s(%s) -> %s\n", c.Seq, c.Operator, c.Signature, outcome)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against the trace and returns
// the failures in assertion order.
func EvaluateAssertions(assertions []Assertion, trace []ir.Call) []error {
	var errs []error
	for i, a := range assertions {
		if err := evaluateAssertion(a, trace); err != nil {
			errs = append(errs, fmt.Errorf("assertions[%d]: %w", i, err))
		}
	}
	return errs
}

func evaluateAssertion(a Assertion, trace []ir.Call) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(trace, a)
	case AssertTraceCount:
		return assertTraceCount(trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceContains checks for a call to the operator, optionally
// narrowed by signature and outcome.
func assertTraceContains(trace []ir.Call, a Assertion) error {
	for _, c := range trace {
		if c.Operator != a.Operator {
			continue
		}
		if a.Signature != "" && c.Signature != a.Signature {
			continue
		}
		if a.Outcome != "" && a.Outcome != outcomeLabel(c) {
			continue
		}
		return nil
	}

	expected := "call to " + a.Operator
	if a.Signature != "" {
		expected += fmt.Sprintf(" with signature (%s)", a.Signature)
	}
	if a.Outcome != "" {
		expected += " with outcome " + a.Outcome
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// outcomeLabel is "ok" for a successful call and the error code otherwise.
func outcomeLabel(c ir.Call) string {
	if c.ErrorCode != "" {
		return c.ErrorCode
	}
	return ir.OutcomeOK
}

// assertTraceOrder checks that operators first appear in the given order.
// Other calls may come in between.
func assertTraceOrder(trace []ir.Call, a Assertion) error {
	positions := make(map[string]int)
	for i, c := range trace {
		if _, seen := positions[c.Operator]; !seen {
			positions[c.Operator] = i + 1
		}
	}

	for _, op := range a.Operators {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all operators present: %v", a.Operators),
				Actual:   fmt.Sprintf("missing operator: %s", op),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Operators); i++ {
		prev, curr := a.Operators[i-1], a.Operators[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("operators in order: %v", a.Operators),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks the exact number of calls to an operator.
func assertTraceCount(trace []ir.Call, a Assertion) error {
	count := 0
	for _, c := range trace {
		if c.Operator == a.Operator {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Operator),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}
