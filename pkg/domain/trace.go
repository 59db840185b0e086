package domain

// Result is the output object of one executed step.
type Result map[string]any

// TraceEntry records one executed step.
type TraceEntry struct {
	ID     string `json:"id" yaml:"id"`
	Kind   Kind   `json:"type" yaml:"type"`
	Result Result `json:"result" yaml:"result"`
}

// Trace is the ordered record of a run.
type Trace []TraceEntry

// RunResult is what a completed run hands back to its caller.
type RunResult struct {
	RunID     string  `json:"run_id,omitempty"`
	Trace     Trace   `json:"trace"`
	Telemetry []Event `json:"telemetry"`
}
