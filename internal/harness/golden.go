package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tempo/internal/ir"
)

// Snapshot is the canonical form of a result written to golden files.
// Call IDs are left out; they follow from the other fields.
func Snapshot(r *Result) ir.IRObject {
	trace := make(ir.IRArray, len(r.Trace))
	for i, c := range r.Trace {
		obj := c.Canonical()
		delete(obj, "id")
		delete(obj, "session")
		trace[i] = obj
	}
	return ir.IRObject{
		"scenario": ir.IRString(r.Scenario),
		"session":  ir.IRString(r.Session),
		"trace":    trace,
	}
}

// RunWithGolden runs a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the golden file for
// name without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := ir.MarshalCanonical(Snapshot(result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
