package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/tempo/internal/dispatch"
	"github.com/roach88/tempo/internal/ir"
)

// Dispatcher resolves and invokes typed functions.
// Implemented by *dispatch.Registry.
type Dispatcher interface {
	Classify(v any) (dispatch.TypeName, any)
	Call(name string, args ...any) (any, error)
}

// Recorder persists call records. Implemented by *store.Store.
type Recorder interface {
	WriteCall(ctx context.Context, c ir.Call) error
}

// Engine evaluates calls for one session.
//
// Eval is safe for concurrent use; calls are serialized so that seq order
// matches evaluation order.
type Engine struct {
	mu         sync.Mutex
	dispatcher Dispatcher
	clock      *Clock
	session    string
	recorder   Recorder
	metrics    *Metrics
	budget     *callBudget
	maxCalls   int
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder writes every call to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithMetrics counts calls in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the engine logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock sets the seq clock, e.g. NewClockAt to append to a stored
// session.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithSession uses token instead of asking the SessionGenerator.
func WithSession(token string) Option {
	return func(e *Engine) {
		e.session = token
	}
}

// WithMaxCalls sets the session call budget. Zero disables it.
//
// Default: DefaultMaxCalls.
func WithMaxCalls(n int) Option {
	return func(e *Engine) {
		e.maxCalls = n
	}
}

// New creates an Engine dispatching through d. The session token comes
// from WithSession if given, otherwise from sessions; a nil generator
// falls back to UUIDv7Generator.
func New(d Dispatcher, sessions SessionGenerator, opts ...Option) *Engine {
	e := &Engine{
		dispatcher: d,
		clock:      NewClock(),
		maxCalls:   DefaultMaxCalls,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.session == "" {
		if sessions == nil {
			sessions = UUIDv7Generator{}
		}
		e.session = sessions.Generate()
	}
	e.budget = newCallBudget(e.maxCalls)
	return e
}

// Session returns the session token.
func (e *Engine) Session() string {
	return e.session
}

// Seq returns the seq of the last call.
func (e *Engine) Seq() int64 {
	return e.clock.Current()
}

// Eval calls operator with args and records the call.
//
// Dispatch and implementation failures are returned as *RuntimeError after
// the failed call has been recorded. A failure to record is returned as a
// plain error and the result is discarded.
func (e *Engine) Eval(ctx context.Context, operator string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	seq := e.clock.Next()

	sig := make(dispatch.Signature, len(args))
	for i, a := range args {
		sig[i], _ = e.dispatcher.Classify(a)
	}
	irArgs := ir.FromRuntimeArgs(args)

	id, err := ir.CallID(e.session, operator, irArgs, seq)
	if err != nil {
		return nil, fmt.Errorf("call %s seq %d: %w", operator, seq, err)
	}
	call := ir.Call{
		ID:        id,
		Session:   e.session,
		Seq:       seq,
		Operator:  operator,
		Signature: sig.String(),
		Args:      irArgs,
	}

	var result any
	callErr := e.budget.Check(e.session)
	if callErr == nil {
		result, callErr = e.dispatcher.Call(operator, args...)
	}

	outcome := ir.OutcomeOK
	if callErr != nil {
		rerr := &RuntimeError{
			Code:     classifyError(callErr),
			Operator: operator,
			Session:  e.session,
			Seq:      seq,
			Err:      callErr,
		}
		call.ErrorCode = string(rerr.Code)
		call.Error = callErr.Error()
		outcome = call.ErrorCode
		result, callErr = nil, rerr
	} else {
		call.Result = ir.FromRuntime(result)
	}

	if e.recorder != nil {
		if err := e.recorder.WriteCall(ctx, call); err != nil {
			return nil, fmt.Errorf("record call %s: %w", call.ID, err)
		}
	}
	e.metrics.ObserveCall(operator, outcome, time.Since(start))

	e.logger.Debug("call evaluated",
		"session", e.session,
		"seq", seq,
		"operator", operator,
		"signature", call.Signature,
		"outcome", outcome,
	)
	return result, callErr
}
