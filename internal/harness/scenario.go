package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tempo/internal/calendar"
)

// DefaultNow is the instant now() returns when a scenario sets none.
const DefaultNow = "2000-01-01T00:00:00Z"

// Scenario is a scripted sequence of calls with expectations.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Now is the RFC 3339 instant the first now() call returns.
	Now string `yaml:"now,omitempty"`

	// Tick is an ISO 8601 duration added to the clock after each now()
	// call. Empty means the clock stands still.
	Tick string `yaml:"tick,omitempty"`

	// Location is the IANA location Moments are read in. Defaults to UTC.
	Location string `yaml:"location,omitempty"`

	// Session is the fixed session token. Defaults to
	// testutil.DefaultSession.
	Session string `yaml:"session,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions run against the trace after all steps.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one call.
//
// Args are YAML scalars (number, string, boolean) or single-key objects:
//
//	{moment: "2024-03-10T12:00:00Z"}
//	{duration: "P1M"} or {duration: 3600000}
//	{number: "NaN"}
//	{ref: name}   the result of an earlier step with `as: name`
type Step struct {
	Call string `yaml:"call"`
	Args []any  `yaml:"args,omitempty"`

	// As binds a successful result to a name.
	As string `yaml:"as,omitempty"`

	// Expect is matched against the canonical result. Objects match as
	// subsets, so {duration: "PT1H"} ignores "ms".
	Expect any `yaml:"expect,omitempty"`

	// ExpectError is the expected engine error code, e.g.
	// UNSUPPORTED_OPERANDS.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion checks the recorded trace.
type Assertion struct {
	// Type is one of trace_contains, trace_count, trace_order.
	Type string `yaml:"type"`

	// Operator is used by trace_contains and trace_count.
	Operator string `yaml:"operator,omitempty"`

	// Signature optionally narrows trace_contains, e.g. "Moment, Duration".
	Signature string `yaml:"signature,omitempty"`

	// Outcome optionally narrows trace_contains: "ok" or an error code.
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the exact number of calls for trace_count.
	Count int `yaml:"count,omitempty"`

	// Operators is the expected order for trace_order.
	Operators []string `yaml:"operators,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
	AssertTraceOrder    = "trace_order"
)

// LoadScenario reads and validates a scenario YAML file. Unknown fields
// are rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// FindScenarios returns the .yaml and .yml files directly under dir in
// lexical order.
func FindScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.Now != "" {
		if _, err := time.Parse(time.RFC3339Nano, s.Now); err != nil {
			return fmt.Errorf("now: expected RFC 3339 instant: %w", err)
		}
	}
	if s.Tick != "" {
		if _, err := calendar.ParseDuration(s.Tick); err != nil {
			return fmt.Errorf("tick: %w", err)
		}
	}
	if s.Location != "" {
		if _, err := time.LoadLocation(s.Location); err != nil {
			return fmt.Errorf("location: %w", err)
		}
	}

	bound := make(map[string]bool)
	for i, step := range s.Steps {
		if step.Call == "" {
			return fmt.Errorf("steps[%d]: call is required", i)
		}
		if step.Expect != nil && step.ExpectError != "" {
			return fmt.Errorf("steps[%d]: expect and expect_error are mutually exclusive", i)
		}
		if step.As != "" && step.ExpectError != "" {
			return fmt.Errorf("steps[%d]: cannot bind the result of a call expected to fail", i)
		}
		for j, arg := range step.Args {
			if name, ok := refName(arg); ok && !bound[name] {
				return fmt.Errorf("steps[%d].args[%d]: ref %q is not bound by an earlier step", i, j, name)
			}
		}
		if step.As != "" {
			bound[step.As] = true
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func refName(arg any) (string, bool) {
	m, ok := arg.(map[string]any)
	if !ok {
		return "", false
	}
	name, ok := m["ref"].(string)
	return name, ok
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Operator == "" {
			return fmt.Errorf("assertions[%d]: operator is required for trace_contains", index)
		}
	case AssertTraceCount:
		if a.Operator == "" {
			return fmt.Errorf("assertions[%d]: operator is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Operators) == 0 {
			return fmt.Errorf("assertions[%d]: operators list is required for trace_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
