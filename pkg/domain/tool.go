package domain

// ToolCall is the request a tool step hands to a registered tool implementation.
type ToolCall struct {
	RunID  string         `json:"run_id,omitempty"`
	StepID string         `json:"step_id"`
	Name   string         `json:"name"`
	Args   map[string]any `json:"args,omitempty"` // The step inputs, as declared in the spec.
}

// Tool describes a registered tool.
type Tool struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}
