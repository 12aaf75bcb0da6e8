package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/tempo/internal/ir"
)

// Predicate is a condition on the calls table. Predicates compile to
// parameterized SQL; values never appear in the query text.
type Predicate interface {
	predicate()
}

// Equals matches rows where Column = Value.
type Equals struct {
	Column string
	Value  any
}

// IsNull matches rows where Column IS NULL, or IS NOT NULL when Not is set.
type IsNull struct {
	Column string
	Not    bool
}

// And matches rows that satisfy every predicate. An empty And matches all rows.
type And []Predicate

func (Equals) predicate() {}
func (IsNull) predicate() {}
func (And) predicate()    {}

// filterColumns are the calls columns a predicate may reference.
var filterColumns = map[string]bool{
	"session":    true,
	"seq":        true,
	"operator":   true,
	"signature":  true,
	"error_code": true,
}

// CallFilter selects recorded calls. Empty fields match anything.
type CallFilter struct {
	Session   string
	Operator  string
	Signature string

	// Outcome is ir.OutcomeOK, ir.OutcomeError, or a specific error code.
	Outcome string

	// Limit caps the number of rows; zero means no limit.
	Limit int
}

// Predicate builds the filter's WHERE condition.
func (f CallFilter) Predicate() Predicate {
	var p And
	if f.Session != "" {
		p = append(p, Equals{Column: "session", Value: f.Session})
	}
	if f.Operator != "" {
		p = append(p, Equals{Column: "operator", Value: f.Operator})
	}
	if f.Signature != "" {
		p = append(p, Equals{Column: "signature", Value: f.Signature})
	}
	switch f.Outcome {
	case "":
	case ir.OutcomeOK:
		p = append(p, IsNull{Column: "error_code"})
	case ir.OutcomeError:
		p = append(p, IsNull{Column: "error_code", Not: true})
	default:
		p = append(p, Equals{Column: "error_code", Value: f.Outcome})
	}
	return p
}

// CompileCallQuery returns the SELECT for f and its parameters.
// Rows always come back in (session, seq, id) order so that equal
// filters over equal data produce identical results.
func CompileCallQuery(f CallFilter) (string, []any, error) {
	if f.Limit < 0 {
		return "", nil, fmt.Errorf("limit must not be negative: %d", f.Limit)
	}

	where, params, err := compilePredicate(f.Predicate())
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT " + callColumns + " FROM calls")
	if where != "" {
		b.WriteString(" WHERE " + where)
	}
	b.WriteString(" ORDER BY session COLLATE BINARY ASC, seq ASC, id COLLATE BINARY ASC")
	if f.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, f.Limit)
	}
	return b.String(), params, nil
}

// compilePredicate returns an empty string for a predicate that matches
// every row.
func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case Equals:
		if !filterColumns[pred.Column] {
			return "", nil, fmt.Errorf("unknown column %q", pred.Column)
		}
		return pred.Column + " = ?", []any{pred.Value}, nil

	case IsNull:
		if !filterColumns[pred.Column] {
			return "", nil, fmt.Errorf("unknown column %q", pred.Column)
		}
		if pred.Not {
			return pred.Column + " IS NOT NULL", nil, nil
		}
		return pred.Column + " IS NULL", nil, nil

	case And:
		var (
			parts  []string
			params []any
		)
		for i, sub := range pred {
			sql, subParams, err := compilePredicate(sub)
			if err != nil {
				return "", nil, fmt.Errorf("and[%d]: %w", i, err)
			}
			if sql == "" {
				continue
			}
			parts = append(parts, sql)
			params = append(params, subParams...)
		}
		switch len(parts) {
		case 0:
			return "", nil, nil
		case 1:
			return parts[0], params, nil
		}
		return "(" + strings.Join(parts, " AND ") + ")", params, nil

	case nil:
		return "", nil, nil

	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// QueryCalls returns the calls matching f.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) QueryCalls(ctx context.Context, f CallFilter) ([]ir.Call, error) {
	query, params, err := CompileCallQuery(f)
	if err != nil {
		return nil, fmt.Errorf("compile call query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
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
