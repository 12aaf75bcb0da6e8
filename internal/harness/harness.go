package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"time"

	"github.com/roach88/tempo/internal/calendar"
	"github.com/roach88/tempo/internal/dispatch"
	"github.com/roach88/tempo/internal/engine"
	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/store"
	"github.com/roach88/tempo/internal/temporal"
	"github.com/roach88/tempo/internal/testutil"
)

type options struct {
	logger *slog.Logger
}

// Option configures Run.
type Option func(*options)

// WithLogger routes engine and registry logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Run executes a scenario against a fresh registry and an in-memory store.
//
// Failed expectations and assertions are reported in Result.Errors with
// Pass false. An error is returned only when the scenario could not be
// run at all.
func Run(ctx context.Context, s *Scenario, opts ...Option) (*Result, error) {
	o := &options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(o)
	}

	now, step, loc, err := scenarioClock(s)
	if err != nil {
		return nil, err
	}
	clock := testutil.NewSteppingClock(now, step)

	reg := dispatch.New(dispatch.WithLogger(o.logger))
	if err := temporal.Install(reg,
		temporal.WithClock(clock.Now),
		temporal.WithLocation(loc),
		temporal.WithLogger(o.logger),
	); err != nil {
		return nil, fmt.Errorf("install temporal types: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open trace store: %w", err)
	}
	defer st.Close()

	eng := engine.New(reg, testutil.NewFixedSessionGenerator(s.Session),
		engine.WithRecorder(st),
		engine.WithLogger(o.logger),
	)
	if err := st.BeginSession(ctx, eng.Session(), loc.String()); err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}

	result := &Result{Scenario: s.Name, Session: eng.Session(), Pass: true}
	vars := make(map[string]any)

	for i, step := range s.Steps {
		args, err := resolveArgs(step.Args, vars, loc)
		if err != nil {
			result.fail(fmt.Sprintf("steps[%d] %s: %v", i, step.Call, err))
			continue
		}

		value, err := eng.Eval(ctx, step.Call, args...)
		var rerr *engine.RuntimeError
		if err != nil && !errors.As(err, &rerr) {
			return nil, fmt.Errorf("steps[%d] %s: %w", i, step.Call, err)
		}
		checkStep(result, i, step, value, rerr, vars)
	}

	trace, err := st.ReadSession(ctx, eng.Session())
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	result.Trace = trace

	for _, err := range EvaluateAssertions(s.Assertions, trace) {
		result.fail(err.Error())
	}
	return result, nil
}

func scenarioClock(s *Scenario) (time.Time, time.Duration, *time.Location, error) {
	nowText := s.Now
	if nowText == "" {
		nowText = DefaultNow
	}
	now, err := time.Parse(time.RFC3339Nano, nowText)
	if err != nil {
		return time.Time{}, 0, nil, fmt.Errorf("now: %w", err)
	}

	var step time.Duration
	if s.Tick != "" {
		d, err := calendar.ParseDuration(s.Tick)
		if err != nil {
			return time.Time{}, 0, nil, fmt.Errorf("tick: %w", err)
		}
		step = time.Duration(d.AsMilliseconds()) * time.Millisecond
	}

	loc := time.UTC
	if s.Location != "" {
		if loc, err = time.LoadLocation(s.Location); err != nil {
			return time.Time{}, 0, nil, fmt.Errorf("location: %w", err)
		}
	}
	return now, step, loc, nil
}

func checkStep(result *Result, i int, step Step, value any, rerr *engine.RuntimeError, vars map[string]any) {
	label := fmt.Sprintf("steps[%d] %s", i, step.Call)

	if step.ExpectError != "" {
		switch {
		case rerr == nil:
			result.fail(fmt.Sprintf("%s: expected error %s, got %s", label, step.ExpectError, render(ir.FromRuntime(value))))
		case string(rerr.Code) != step.ExpectError:
			result.fail(fmt.Sprintf("%s: expected error %s, got %s", label, step.ExpectError, rerr.Code))
		}
		return
	}

	if rerr != nil {
		result.fail(fmt.Sprintf("%s: unexpected error: %v", label, rerr))
		return
	}

	if step.Expect != nil {
		want, err := expectedValue(step.Expect)
		if err != nil {
			result.fail(fmt.Sprintf("%s: expect: %v", label, err))
		} else if got := ir.FromRuntime(value); !matchValue(want, got) {
			result.fail(fmt.Sprintf("%s: expected %s, got %s", label, render(want), render(got)))
		}
	}

	if step.As != "" {
		vars[step.As] = value
	}
}

func resolveArgs(raw []any, vars map[string]any, loc *time.Location) ([]any, error) {
	args := make([]any, len(raw))
	for i, a := range raw {
		v, err := resolveArg(a, vars, loc)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		args[i] = v
	}
	return args, nil
}

func resolveArg(a any, vars map[string]any, loc *time.Location) (any, error) {
	switch v := a.(type) {
	case nil:
		return nil, fmt.Errorf("null argument")
	case int, float64, string, bool:
		return v, nil
	case map[string]any:
		if len(v) != 1 {
			return nil, fmt.Errorf("argument object must have exactly one of moment, duration, number, ref")
		}
		for key, val := range v {
			return resolveTagged(key, val, vars, loc)
		}
	}
	return nil, fmt.Errorf("unsupported argument %v (%T)", a, a)
}

func resolveTagged(key string, val any, vars map[string]any, loc *time.Location) (any, error) {
	switch key {
	case "ref":
		name, _ := val.(string)
		bound, ok := vars[name]
		if !ok {
			return nil, fmt.Errorf("ref %q is not bound", name)
		}
		return bound, nil
	case ir.TagMoment:
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("moment must be a string")
		}
		return calendar.ParseMoment(s, loc)
	case ir.TagDuration:
		switch d := val.(type) {
		case string:
			return calendar.ParseDuration(d)
		case int:
			return calendar.NewDuration(int64(d)), nil
		case float64:
			return calendar.FromMilliseconds(d)
		}
		return nil, fmt.Errorf("duration must be an ISO 8601 string or milliseconds")
	case ir.TagNumber:
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("number must be a string")
		}
		return strconv.ParseFloat(s, 64)
	}
	return nil, fmt.Errorf("unknown argument tag %q", key)
}

// expectedValue converts a decoded YAML expectation to canonical form.
func expectedValue(e any) (ir.IRValue, error) {
	switch v := e.(type) {
	case map[string]any:
		obj := make(ir.IRObject, len(v))
		for k, val := range v {
			iv, err := expectedValue(val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			obj[k] = iv
		}
		return obj, nil
	case []any:
		arr := make(ir.IRArray, len(v))
		for i, val := range v {
			iv, err := expectedValue(val)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = iv
		}
		return arr, nil
	case int, float64, string, bool:
		return ir.FromRuntime(v), nil
	}
	return nil, fmt.Errorf("unsupported expectation %v (%T)", e, e)
}

// matchValue reports whether got satisfies want. Objects in want match
// any object in got that has at least the same keys with matching values.
func matchValue(want, got ir.IRValue) bool {
	wantObj, ok := want.(ir.IRObject)
	if !ok {
		return reflect.DeepEqual(want, got)
	}
	gotObj, ok := got.(ir.IRObject)
	if !ok {
		return false
	}
	for k, w := range wantObj {
		g, ok := gotObj[k]
		if !ok || !matchValue(w, g) {
			return false
		}
	}
	return true
}

func render(v ir.IRValue) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
