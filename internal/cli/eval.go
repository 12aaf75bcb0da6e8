package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/calendar"
	"github.com/roach88/tempo/internal/engine"
	"github.com/roach88/tempo/internal/harness"
	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Database string
	Session  string
	Metrics  bool
}

// EvalResult is the outcome of one evaluated call.
type EvalResult struct {
	Session  string     `json:"session"`
	Seq      int64      `json:"seq"`
	Operator string     `json:"operator"`
	Result   ir.IRValue `json:"result"`

	display string
}

// WriteText prints the result in its literal form, e.g. "P1M" or
// "2024-03-10T13:00:00.000Z".
func (r EvalResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintln(w, r.display)
	return err
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <operator> [args...]",
		Short: "Evaluate one operator call",
		Long: `Evaluate one operator call through the typed dispatch registry.

Arguments are literals:
  moment:2024-03-10T12:00:00Z   Moment (moment:now for the current instant)
  duration:P1M                  Duration from ISO 8601
  duration:3600000              Duration in milliseconds
  number:NaN                    number, including NaN and Inf
  string:42                     string
  true, false, 12.5             boolean or number
Anything else is a string.

With --db the call is recorded. --session appends to an existing session,
continuing its sequence numbers and reading Moments in its location.

Exit codes:
  0 - Call succeeded
  1 - Call failed (unsupported operands, unknown function, invalid value)
  2 - Command error (bad literal, database not found)

Examples:
  tempo eval add moment:now duration:PT1H
  tempo eval subtract moment:2024-03-31T00:00:00Z moment:2024-03-01T00:00:00Z
  tempo eval multiply duration:P1D 1.5 --format json
  tempo eval add moment:now duration:P1M --db ./tempo.db --session my-session`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd.Context(), opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the call in this SQLite database")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session token (default: new UUIDv7)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print call metrics to stderr")

	return cmd
}

func runEval(ctx context.Context, opts *EvalOptions, operator string, rawArgs []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.config()
	log := opts.logger()

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.DB
	}

	engineOpts := []engine.Option{
		engine.WithLogger(log),
		engine.WithMaxCalls(cfg.MaxCalls),
	}
	if opts.Session != "" {
		engineOpts = append(engineOpts, engine.WithSession(opts.Session))
	}

	loc := cfg.Loc()
	var st *store.Store
	if dbPath != "" {
		var err error
		st, err = store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if err := st.Close(); err != nil {
				log.Error("error closing database", "error", err)
			}
		}()

		if opts.Session != "" {
			resumed, err := resumeSession(ctx, st, opts.Session)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to resume session", err)
			}
			if resumed.loc != nil {
				loc = resumed.loc
			}
			engineOpts = append(engineOpts, engine.WithClock(engine.NewClockAt(resumed.lastSeq)))
			log.Debug("resuming session", "session", opts.Session, "last_seq", resumed.lastSeq)
		}
		engineOpts = append(engineOpts, engine.WithRecorder(st))
	}

	var promReg *prometheus.Registry
	if opts.Metrics {
		promReg = prometheus.NewRegistry()
		engineOpts = append(engineOpts, engine.WithMetrics(engine.NewMetrics(promReg)))
	}

	reg, err := opts.newRegistry(loc)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to install temporal types", err)
	}

	args := make([]any, len(rawArgs))
	for i, raw := range rawArgs {
		v, err := harness.ParseLiteral(raw, loc, cfg.Clock())
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid argument %d", i+1), err)
		}
		args[i] = v
	}

	eng := engine.New(reg, nil, engineOpts...)
	if st != nil {
		if err := st.BeginSession(ctx, eng.Session(), loc.String()); err != nil {
			return WrapExitError(ExitCommandError, "failed to record session", err)
		}
	}

	value, evalErr := eng.Eval(ctx, operator, args...)

	if promReg != nil {
		if err := writeMetrics(cmd.ErrOrStderr(), promReg); err != nil {
			log.Error("error writing metrics", "error", err)
		}
	}

	f := opts.formatter(cmd)
	var rerr *engine.RuntimeError
	switch {
	case errors.As(evalErr, &rerr):
		if opts.Format == "json" {
			if err := f.Error(string(rerr.Code), rerr.Err.Error(), map[string]any{
				"session": rerr.Session,
				"seq":     rerr.Seq,
			}); err != nil {
				log.Error("error writing output", "error", err)
			}
		}
		return WrapExitError(ExitFailure, "evaluation failed", evalErr)
	case evalErr != nil:
		return WrapExitError(ExitCommandError, "evaluation failed", evalErr)
	}

	return f.Success(EvalResult{
		Session:  eng.Session(),
		Seq:      eng.Seq(),
		Operator: operator,
		Result:   ir.FromRuntime(value),
		display:  displayValue(value),
	})
}

type resumedSession struct {
	loc     *time.Location
	lastSeq int64
}

// resumeSession reads where a stored session left off. An unknown token
// starts a new session at seq 0 in the configured location.
func resumeSession(ctx context.Context, st *store.Store, token string) (resumedSession, error) {
	var r resumedSession
	name, err := st.SessionLocation(ctx, token)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return r, nil
	case err != nil:
		return r, err
	}
	if r.loc, err = time.LoadLocation(name); err != nil {
		return r, fmt.Errorf("session location %q: %w", name, err)
	}
	if r.lastSeq, err = st.LastSeq(ctx, token); err != nil {
		return r, err
	}
	return r, nil
}

// displayValue is the text-mode form of a result.
func displayValue(v any) string {
	switch val := v.(type) {
	case calendar.Moment:
		return val.String()
	case calendar.Duration:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
