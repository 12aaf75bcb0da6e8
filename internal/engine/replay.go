package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/tempo/internal/ir"
)

// Mismatch is a replayed call whose outcome differs from the record.
// Outcomes are canonical JSON for results and "error:CODE" for failures.
type Mismatch struct {
	Seq      int64  `json:"seq"`
	Operator string `json:"operator"`
	Recorded string `json:"recorded"`
	Replayed string `json:"replayed"`
}

// Replay re-evaluates recorded calls against d in the order given and
// returns every call whose outcome differs. Nothing is recorded.
//
// Arguments are rebuilt with ir.ToRuntime and Moments are read in loc, so
// loc must match the location of the original session. Calls to now()
// only replay identically under a fixed clock.
func Replay(ctx context.Context, d Dispatcher, calls []ir.Call, loc *time.Location) ([]Mismatch, error) {
	var mismatches []Mismatch
	for _, c := range calls {
		if err := ctx.Err(); err != nil {
			return mismatches, err
		}

		args := make([]any, len(c.Args))
		for i, a := range c.Args {
			v, err := ir.ToRuntime(a, loc)
			if err != nil {
				return mismatches, fmt.Errorf("replay seq %d arg %d: %w", c.Seq, i, err)
			}
			args[i] = v
		}

		recorded, err := recordedOutcome(c)
		if err != nil {
			return mismatches, fmt.Errorf("replay seq %d: %w", c.Seq, err)
		}

		var replayed string
		result, callErr := d.Call(c.Operator, args...)
		if callErr != nil {
			replayed = "error:" + string(classifyError(callErr))
		} else {
			out, err := ir.MarshalCanonical(ir.FromRuntime(result))
			if err != nil {
				return mismatches, fmt.Errorf("replay seq %d: %w", c.Seq, err)
			}
			replayed = string(out)
		}

		if recorded != replayed {
			mismatches = append(mismatches, Mismatch{
				Seq:      c.Seq,
				Operator: c.Operator,
				Recorded: recorded,
				Replayed: replayed,
			})
		}
	}
	return mismatches, nil
}

func recordedOutcome(c ir.Call) (string, error) {
	if c.ErrorCode != "" {
		return "error:" + c.ErrorCode, nil
	}
	if c.Result == nil {
		return "", fmt.Errorf("call %s has neither result nor error", c.ID)
	}
	out, err := ir.MarshalCanonical(c.Result)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
