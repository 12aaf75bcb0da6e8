package ir

// Outcomes of a recorded call.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Call is one dispatched operator call as recorded in a session trace.
// Exactly one of Result and ErrorCode is set.
type Call struct {
	ID        string  `json:"id"`
	Session   string  `json:"session"`
	Seq       int64   `json:"seq"`
	Operator  string  `json:"operator"`
	Signature string  `json:"signature"`
	Args      IRArray `json:"args"`
	Result    IRValue `json:"result,omitempty"`
	ErrorCode string  `json:"error_code,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Outcome reports OutcomeOK or OutcomeError.
func (c Call) Outcome() string {
	if c.ErrorCode != "" {
		return OutcomeError
	}
	return OutcomeOK
}

// Canonical returns the call as an IRObject, the form written to golden
// files and printed by the CLI.
func (c Call) Canonical() IRObject {
	obj := IRObject{
		"id":        IRString(c.ID),
		"session":   IRString(c.Session),
		"seq":       IRInt(c.Seq),
		"operator":  IRString(c.Operator),
		"signature": IRString(c.Signature),
		"args":      c.Args,
	}
	if c.Args == nil {
		obj["args"] = IRArray{}
	}
	if c.Result != nil {
		obj["result"] = c.Result
	}
	if c.ErrorCode != "" {
		obj["error_code"] = IRString(c.ErrorCode)
		obj["error"] = IRString(c.Error)
	}
	return obj
}
