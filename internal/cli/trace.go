package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Operator  string // optional - filter to one operator
	Signature string
	Outcome   string // ok, error, or an error code
}

// SessionList is the trace output without --session.
type SessionList struct {
	Sessions []store.SessionInfo `json:"sessions"`
}

// WriteText prints one line per session.
func (l SessionList) WriteText(w io.Writer) error {
	if len(l.Sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions recorded.")
		return err
	}
	for _, s := range l.Sessions {
		fmt.Fprintf(w, "%s  location=%s calls=%d failed=%d last_seq=%d\n",
			s.Token, s.Location, s.Calls, s.Failed, s.LastSeq)
	}
	return nil
}

// TraceResult holds the calls of one session.
type TraceResult struct {
	Session  string     `json:"session"`
	Location string     `json:"location"`
	Calls    []ir.Call  `json:"calls"`
	Stats    TraceStats `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Total  int `json:"total"`
	OK     int `json:"ok"`
	Failed int `json:"failed"`
}

// WriteText prints the timeline, one call per line.
func (r TraceResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Session: %s (%s)\n\n", r.Session, r.Location)
	for _, c := range r.Calls {
		fmt.Fprintf(w, "[%d] %s(%s) -> %s\n", c.Seq, c.Operator, c.Signature, callOutcomeText(c))
	}
	_, err := fmt.Fprintf(w, "\n%d calls, %d ok, %d failed\n", r.Stats.Total, r.Stats.OK, r.Stats.Failed)
	return err
}

func callOutcomeText(c ir.Call) string {
	if c.ErrorCode != "" {
		return fmt.Sprintf("%s: %s", c.ErrorCode, c.Error)
	}
	data, err := ir.MarshalCanonical(c.Result)
	if err != nil {
		return fmt.Sprintf("%v", c.Result)
	}
	return string(data)
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show recorded sessions and calls",
		Long: `Show what a database recorded.

Without --session, lists every session with its call counts. With
--session, prints the session's calls in sequence order.

Examples:
  tempo trace --db ./tempo.db
  tempo trace --db ./tempo.db --session 01927f3c-...
  tempo trace --db ./tempo.db --session 01927f3c-... --operator add --format json
  tempo trace --db ./tempo.db --session 01927f3c-... --outcome UNSUPPORTED_OPERANDS`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session token to show")
	cmd.Flags().StringVar(&opts.Operator, "operator", "", "filter to one operator")
	cmd.Flags().StringVar(&opts.Signature, "signature", "", `filter to one signature, e.g. "Moment, Duration"`)
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "filter by outcome: ok, error, or an error code")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	f := opts.formatter(cmd)
	if opts.Session == "" {
		sessions, err := st.ReadSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		return f.Success(SessionList{Sessions: sessions})
	}

	location, err := st.SessionLocation(ctx, opts.Session)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	calls, err := st.QueryCalls(ctx, store.CallFilter{
		Session:   opts.Session,
		Operator:  opts.Operator,
		Signature: opts.Signature,
		Outcome:   opts.Outcome,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read calls", err)
	}

	result := TraceResult{Session: opts.Session, Location: location, Calls: calls}
	for _, c := range calls {
		result.Stats.Total++
		if c.ErrorCode != "" {
			result.Stats.Failed++
		} else {
			result.Stats.OK++
		}
	}
	return f.Success(result)
}

// openExisting opens a database that must already exist. store.Open
// would otherwise create an empty one.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
