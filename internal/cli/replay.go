package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/engine"
	"github.com/roach88/tempo/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session       string            `json:"session"`
	Calls         int               `json:"calls"`
	Deterministic bool              `json:"deterministic"`
	Mismatches    []engine.Mismatch `json:"mismatches,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// WriteText prints one line per session and every mismatch.
func (r ReplayResult) WriteText(w io.Writer) error {
	if r.TotalSessions == 0 {
		_, err := fmt.Fprintln(w, "No sessions found in database.")
		return err
	}
	for _, s := range r.Sessions {
		mark := "✓"
		if !s.Deterministic {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s (%d calls)\n", mark, s.Session, s.Calls)
		for _, m := range s.Mismatches {
			fmt.Fprintf(w, "  [%d] %s: recorded %s, replayed %s\n", m.Seq, m.Operator, m.Recorded, m.Replayed)
		}
	}
	_, err := fmt.Fprintf(w, "\n%d session(s) replayed\n", r.TotalSessions)
	return err
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-evaluate recorded calls and verify determinism",
		Long: `Re-evaluate every recorded call against a fresh registry and compare
the outcome with the record.

Moments are read in each session's recorded location. Calls to now()
only replay identically when the config fixes the clock ("now" field).

Exit codes:
  0 - All sessions replayed identically
  1 - At least one call produced a different outcome
  2 - Command error (database not found, etc.)

Examples:
  tempo replay --db ./tempo.db
  tempo replay --db ./tempo.db --session 01927f3c-...
  tempo replay --db ./tempo.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var tokens []string
	if opts.Session != "" {
		tokens = []string{opts.Session}
	} else {
		sessions, err := st.ReadSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		for _, s := range sessions {
			tokens = append(tokens, s.Token)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(tokens)),
		TotalSessions:    len(tokens),
		AllDeterministic: true,
	}
	for _, token := range tokens {
		sr, err := replaySession(ctx, opts, st, token)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", token), err)
		}
		if !sr.Deterministic {
			result.AllDeterministic = false
		}
		result.Sessions = append(result.Sessions, sr)
	}

	if err := opts.formatter(cmd).Success(result); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay produced different outcomes")
	}
	return nil
}

func replaySession(ctx context.Context, opts *ReplayOptions, st *store.Store, token string) (ReplaySessionResult, error) {
	name, err := st.SessionLocation(ctx, token)
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("session location: %w", err)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("session location %q: %w", name, err)
	}

	calls, err := st.ReadSession(ctx, token)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	reg, err := opts.newRegistry(loc)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	mismatches, err := engine.Replay(ctx, reg, calls, loc)
	if err != nil {
		return ReplaySessionResult{}, err
	}
	opts.logger().Debug("session replayed", "session", token, "calls", len(calls), "mismatches", len(mismatches))

	return ReplaySessionResult{
		Session:       token,
		Calls:         len(calls),
		Deterministic: len(mismatches) == 0,
		Mismatches:    mismatches,
	}, nil
}
