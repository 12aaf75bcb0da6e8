package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempo/internal/ir"
)

func sampleTrace() []ir.Call {
	return []ir.Call{
		{Seq: 1, Operator: "now", Result: ir.IRObject{"moment": ir.IRString("2024-03-10T12:00:00.000Z")}},
		{Seq: 2, Operator: "duration", Signature: "string", Result: ir.IRObject{"duration": ir.IRString("PT1H")}},
		{Seq: 3, Operator: "add", Signature: "Moment, Duration", Result: ir.IRObject{"moment": ir.IRString("2024-03-10T13:00:00.000Z")}},
		{Seq: 4, Operator: "add", Signature: "Moment, number", ErrorCode: "UNSUPPORTED_OPERANDS", Error: "unsupported operand types for add: (Moment, number)"},
	}
}

func TestAssertTraceContains(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   bool
	}{
		{"operator only", Assertion{Operator: "add"}, false},
		{"signature", Assertion{Operator: "add", Signature: "Moment, Duration"}, false},
		{"outcome ok", Assertion{Operator: "add", Outcome: "ok"}, false},
		{"outcome code", Assertion{Operator: "add", Outcome: "UNSUPPORTED_OPERANDS"}, false},
		{"signature and outcome disagree", Assertion{Operator: "add", Signature: "Moment, Duration", Outcome: "UNSUPPORTED_OPERANDS"}, true},
		{"missing operator", Assertion{Operator: "divide"}, true},
		{"wrong signature", Assertion{Operator: "now", Signature: "number"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.assertion.Type = AssertTraceContains
			err := assertTraceContains(sampleTrace(), tt.assertion)
			if tt.wantErr {
				var ae *AssertionError
				require.ErrorAs(t, err, &ae)
				assert.Equal(t, AssertTraceContains, ae.Type)
				assert.Equal(t, "not found in trace", ae.Actual)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Operators: []string{"now", "add"}}))
	assert.NoError(t, assertTraceOrder(trace, Assertion{Operators: []string{"now", "duration", "add"}}))

	err := assertTraceOrder(trace, Assertion{Operators: []string{"add", "now"}})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Actual, "add (pos 3) should be before now (pos 1)")

	err = assertTraceOrder(trace, Assertion{Operators: []string{"now", "divide"}})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "missing operator: divide", ae.Actual)
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Operator: "add", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Operator: "divide", Count: 0}))

	err := assertTraceCount(trace, Assertion{Operator: "add", Count: 1})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "1 occurrences of add", ae.Expected)
	assert.Equal(t, "2 occurrences", ae.Actual)
}

func TestEvaluateAssertion_UnknownType(t *testing.T) {
	err := evaluateAssertion(Assertion{Type: "final_state"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown assertion type")
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceCount,
		Expected: "1 occurrences of add",
		Actual:   "2 occurrences",
		Trace:    sampleTrace(),
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: trace_count")
	assert.Contains(t, msg, "Expected: 1 occurrences of add")
	assert.Contains(t, msg, "[3] add(Moment, Duration) -> ok")
	assert.Contains(t, msg, "[4] add(Moment, number) -> UNSUPPORTED_OPERANDS")
}

func TestMatchValue(t *testing.T) {
	got := ir.IRObject{"duration": ir.IRString("PT1H"), "ms": ir.IRInt(3600000)}

	assert.True(t, matchValue(ir.IRObject{"duration": ir.IRString("PT1H")}, got))
	assert.True(t, matchValue(ir.IRObject{"ms": ir.IRInt(3600000)}, got))
	assert.True(t, matchValue(ir.IRObject{}, got))
	assert.False(t, matchValue(ir.IRObject{"duration": ir.IRString("PT2H")}, got))
	assert.False(t, matchValue(ir.IRObject{"moment": ir.IRString("x")}, got))
	assert.False(t, matchValue(ir.IRObject{"ms": ir.IRInt(1)}, ir.IRInt(1)))
	assert.True(t, matchValue(ir.IRBool(true), ir.IRBool(true)))
	assert.False(t, matchValue(ir.IRInt(1), ir.IRString("1")))
}

func TestExpectedValue(t *testing.T) {
	v, err := expectedValue(map[string]any{"duration": "PT1H", "ms": 3600000})
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"duration": ir.IRString("PT1H"), "ms": ir.IRInt(3600000)}, v)

	v, err = expectedValue(0.5)
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"number": ir.IRString("0.5")}, v)

	v, err = expectedValue([]any{1, "a"})
	require.NoError(t, err)
	assert.Equal(t, ir.IRArray{ir.IRInt(1), ir.IRString("a")}, v)

	_, err = expectedValue(map[string]any{"x": nil})
	assert.Error(t, err)
}
