package ir

// Version constants for stored and printed call records.
const (
	// RecordVersion is the call record format version.
	RecordVersion = "1"

	// EngineVersion is the tempo engine version.
	EngineVersion = "0.1.0"
)
