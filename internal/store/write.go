package store

import (
	"context"
	"fmt"

	"github.com/roach88/tempo/internal/ir"
)

// BeginSession registers a session and the location its Moments are read
// in. It is idempotent; an existing session keeps its original location.
func (s *Store) BeginSession(ctx context.Context, token, location string) error {
	if location == "" {
		location = "UTC"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, location, engine_version, record_version)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`, token, location, ir.EngineVersion, ir.RecordVersion)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// WriteCall inserts a call record. Duplicate IDs are silently ignored.
// A session row is created on first use if BeginSession was not called.
func (s *Store) WriteCall(ctx context.Context, c ir.Call) error {
	argsJSON, err := marshalArgs(c.Args)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}
	resultJSON, err := marshalResult(c.Result)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write call: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (token, engine_version, record_version)
		VALUES (?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`, c.Session, ir.EngineVersion, ir.RecordVersion); err != nil {
		return fmt.Errorf("write call: session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO calls
		(id, session, seq, operator, signature, args, result, error_code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.Session,
		c.Seq,
		c.Operator,
		c.Signature,
		argsJSON,
		resultJSON,
		nullString(c.ErrorCode),
		nullString(c.Error),
	); err != nil {
		return fmt.Errorf("write call: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write call: commit: %w", err)
	}
	return nil
}
