package temporal

import (
	"fmt"

	"github.com/roach88/tempo/internal/calendar"
	"github.com/roach88/tempo/internal/dispatch"
)

// Operators returns the operator table, one Function per operator name
// carrying every signature for that name.
func Operators() []*dispatch.Function {
	fns := []*dispatch.Function{
		dispatch.MustTyped("add", dispatch.Defs{
			"Moment, Duration":   dispatch.Binary(addMomentDuration),
			"Duration, Duration": dispatch.BinaryE(addDurations),
			"string, string":     dispatch.Binary(concat),
		}),
		dispatch.MustTyped("subtract", dispatch.Defs{
			"Moment, Moment":     dispatch.Binary(diffMoments),
			"Moment, Duration":   dispatch.Binary(subtractMomentDuration),
			"Duration, Duration": dispatch.BinaryE(subtractDurations),
		}),
		dispatch.MustTyped("multiply", dispatch.Defs{
			"number, Duration": dispatch.BinaryE(func(k float64, d calendar.Duration) (calendar.Duration, error) {
				return scale(d, k, "multiply")
			}),
			"Duration, number": dispatch.BinaryE(func(d calendar.Duration, k float64) (calendar.Duration, error) {
				return scale(d, k, "multiply")
			}),
		}),
		dispatch.MustTyped("divide", dispatch.Defs{
			"Duration, number": dispatch.BinaryE(divideDuration),
		}),
	}
	for _, c := range comparisons {
		fns = append(fns, dispatch.MustTyped(c.name, dispatch.Defs{
			"Moment, Moment":     dispatch.Binary(c.moments),
			"Duration, Duration": dispatch.Binary(c.durations),
		}))
	}
	return fns
}

func diffMoments(a, b calendar.Moment) calendar.Duration {
	return a.Diff(b)
}

func addMomentDuration(m calendar.Moment, d calendar.Duration) calendar.Moment {
	return m.Clone().Add(d)
}

func subtractMomentDuration(m calendar.Moment, d calendar.Duration) calendar.Moment {
	return m.Clone().Subtract(d)
}

func addDurations(a, b calendar.Duration) (calendar.Duration, error) {
	out, err := a.Clone().Add(b)
	if err != nil {
		return calendar.Duration{}, fmt.Errorf("add: %w", err)
	}
	return out, nil
}

func subtractDurations(a, b calendar.Duration) (calendar.Duration, error) {
	out, err := a.Clone().Subtract(b)
	if err != nil {
		return calendar.Duration{}, fmt.Errorf("subtract: %w", err)
	}
	return out, nil
}

func concat(a, b string) string {
	return a + b
}

// scale multiplies the millisecond estimate of d by k and floors the result.
// Calendar components are collapsed in the process.
func scale(d calendar.Duration, k float64, op string) (calendar.Duration, error) {
	out, err := calendar.FromMilliseconds(float64(d.AsMilliseconds()) * k)
	if err != nil {
		return calendar.Duration{}, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func divideDuration(d calendar.Duration, k float64) (calendar.Duration, error) {
	out, err := calendar.FromMilliseconds(float64(d.AsMilliseconds()) / k)
	if err != nil {
		return calendar.Duration{}, fmt.Errorf("divide: %w", err)
	}
	return out, nil
}

type comparison struct {
	name      string
	moments   func(a, b calendar.Moment) bool
	durations func(a, b calendar.Duration) bool
}

var comparisons = []comparison{
	{
		name:      "equal",
		moments:   calendar.Moment.IsSame,
		durations: func(a, b calendar.Duration) bool { return a.AsMilliseconds() == b.AsMilliseconds() },
	},
	{
		name:      "unequal",
		moments:   func(a, b calendar.Moment) bool { return !a.IsSame(b) },
		durations: func(a, b calendar.Duration) bool { return a.AsMilliseconds() != b.AsMilliseconds() },
	},
	{
		name:      "smaller",
		moments:   calendar.Moment.IsBefore,
		durations: func(a, b calendar.Duration) bool { return a.AsMilliseconds() < b.AsMilliseconds() },
	},
	{
		name:      "smallerEq",
		moments:   calendar.Moment.IsSameOrBefore,
		durations: func(a, b calendar.Duration) bool { return a.AsMilliseconds() <= b.AsMilliseconds() },
	},
	{
		name:      "larger",
		moments:   calendar.Moment.IsAfter,
		durations: func(a, b calendar.Duration) bool { return a.AsMilliseconds() > b.AsMilliseconds() },
	},
	{
		name:      "largerEq",
		moments:   calendar.Moment.IsSameOrAfter,
		durations: func(a, b calendar.Duration) bool { return a.AsMilliseconds() >= b.AsMilliseconds() },
	},
}
