package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tempo/internal/ir"
)

// SessionInfo summarizes a stored session.
type SessionInfo struct {
	Token    string `json:"token"`
	Location string `json:"location"`
	Calls    int    `json:"calls"`
	LastSeq  int64  `json:"last_seq"`
	Failed   int    `json:"failed"`
}

const callColumns = `id, session, seq, operator, signature, args, result, error_code, error`

// ReadSession returns the calls of a session in seq order.
// Returns an empty slice (not nil) if the session has no calls.
func (s *Store) ReadSession(ctx context.Context, token string) ([]ir.Call, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+callColumns+`
		FROM calls
		WHERE session = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	calls := []ir.Call{}
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}

// ReadCall returns a single call by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCall(ctx context.Context, id string) (ir.Call, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+callColumns+` FROM calls WHERE id = ?`, id)
	return scanCall(row)
}

// ReadSessions lists sessions in token order. UUIDv7 tokens sort by
// creation time.
func (s *Store) ReadSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.token, s.location,
		       COUNT(c.id),
		       COALESCE(MAX(c.seq), 0),
		       COUNT(c.error_code)
		FROM sessions s
		LEFT JOIN calls c ON c.session = s.token
		GROUP BY s.token
		ORDER BY s.token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.Token, &info.Location, &info.Calls, &info.LastSeq, &info.Failed); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// SessionLocation returns the location a session was started with.
// Returns sql.ErrNoRows for unknown sessions.
func (s *Store) SessionLocation(ctx context.Context, token string) (string, error) {
	var loc string
	err := s.db.QueryRowContext(ctx, `SELECT location FROM sessions WHERE token = ?`, token).Scan(&loc)
	return loc, err
}

// LastSeq returns the highest seq recorded for a session, or 0.
func (s *Store) LastSeq(ctx context.Context, token string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM calls WHERE session = ?`, token).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCall(sc scanner) (ir.Call, error) {
	var (
		c          ir.Call
		argsJSON   string
		resultJSON sql.NullString
		errorCode  sql.NullString
		errorMsg   sql.NullString
	)
	if err := sc.Scan(&c.ID, &c.Session, &c.Seq, &c.Operator, &c.Signature, &argsJSON, &resultJSON, &errorCode, &errorMsg); err != nil {
		if err == sql.ErrNoRows {
			return ir.Call{}, err
		}
		return ir.Call{}, fmt.Errorf("scan call: %w", err)
	}

	args, err := unmarshalArgs(argsJSON)
	if err != nil {
		return ir.Call{}, fmt.Errorf("call %s: %w", c.ID, err)
	}
	result, err := unmarshalResult(resultJSON)
	if err != nil {
		return ir.Call{}, fmt.Errorf("call %s: %w", c.ID, err)
	}

	c.Args = args
	c.Result = result
	c.ErrorCode = errorCode.String
	c.Error = errorMsg.String
	return c, nil
}
