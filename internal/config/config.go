// Package config loads tempo configuration from CUE files.
//
// A config file is plain CUE unified with the embedded #Config schema, so
// unknown fields, wrong types and out-of-range values fail with a source
// position. Every field has a default; a missing file means all defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// Config is the decoded configuration.
type Config struct {
	DB       string `json:"db,omitempty"`
	Format   string `json:"format"`
	Location string `json:"location"`
	Silent   bool   `json:"silent"`
	Verbose  bool   `json:"verbose"`
	Now      string `json:"now,omitempty"`
	MaxCalls int    `json:"max_calls"`
	Jobs     int    `json:"jobs"`
}

// Error is a configuration error with source position when CUE has one.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the configuration with every default applied.
func Default() *Config {
	cfg, err := Parse("defaults", nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return cfg
}

// Load reads and validates the CUE file at path. An empty path returns
// Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates CUE source against #Config. filename is used in error
// positions.
func Parse(filename string, src []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	user := ctx.CompileString("{}")
	if len(src) > 0 {
		user = ctx.CompileBytes(src, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	merged := def.Unify(user)
	if err := merged.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := merged.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}

	if _, err := time.LoadLocation(cfg.Location); err != nil {
		return nil, &Error{
			Field:   "location",
			Message: err.Error(),
			Pos:     user.LookupPath(cue.ParsePath("location")).Pos(),
		}
	}
	if cfg.Now != "" {
		if _, err := time.Parse(time.RFC3339Nano, cfg.Now); err != nil {
			return nil, &Error{
				Field:   "now",
				Message: fmt.Sprintf("expected RFC 3339 instant: %v", err),
				Pos:     user.LookupPath(cue.ParsePath("now")).Pos(),
			}
		}
	}
	return &cfg, nil
}

// Loc returns the configured location.
func (c *Config) Loc() *time.Location {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clock returns the fixed clock behind now() when Now is set, and nil
// (the wall clock) otherwise.
func (c *Config) Clock() func() time.Time {
	if c.Now == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, c.Now)
	if err != nil {
		return nil
	}
	return func() time.Time { return t }
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &Error{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return &Error{Field: "cue", Message: first.Error()}
}
