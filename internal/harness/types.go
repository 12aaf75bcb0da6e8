package harness

import "github.com/roach88/tempo/internal/ir"

// Result is the outcome of running one scenario.
type Result struct {
	Scenario string    `json:"scenario"`
	Session  string    `json:"session"`
	Pass     bool      `json:"pass"`
	Trace    []ir.Call `json:"trace"`
	Errors   []string  `json:"errors,omitempty"`
}

func (r *Result) fail(msg string) {
	r.Pass = false
	r.Errors = append(r.Errors, msg)
}
