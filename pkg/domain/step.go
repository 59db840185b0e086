package domain

// Kind identifies the behavior of a step.
type Kind string

// Supported step kinds. The set is closed.
const (
	KindPrompt   Kind = "prompt"
	KindTool     Kind = "tool"
	KindDecision Kind = "decision"
)

// ParseKind validates a textual step type.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPrompt, KindTool, KindDecision:
		return k, nil
	default:
		return "", &UnknownStepKindError{Kind: s}
	}
}

// Step is one unit of execution within a Spec.
// The interface is sealed: PromptStep, ToolStep and DecisionStep are the only implementations.
type Step interface {
	StepID() string
	Kind() Kind
	// NextID returns the id of the successor step, or "" when the step is terminal.
	NextID() string
	// Params returns the free-form inputs declared on the step.
	Params() map[string]any

	sealed()
}

// PromptStep renders a template against the context and sends it to a provider.
type PromptStep struct {
	ID       string
	Model    string // Provider model name; empty selects the executor default.
	Template string
	Inputs   map[string]any
	Next     string
}

// ToolStep invokes a capability keyed by tool name.
type ToolStep struct {
	ID     string
	Tool   string
	Inputs map[string]any
	Next   string
}

// DecisionStep selects a branch label from the context.
// Routing is advisory: the runner always follows Next.
type DecisionStep struct {
	ID     string
	Inputs map[string]any
	Next   string
}

func (s *PromptStep) StepID() string           { return s.ID }
func (s *PromptStep) Kind() Kind               { return KindPrompt }
func (s *PromptStep) NextID() string           { return s.Next }
func (s *PromptStep) Params() map[string]any   { return s.Inputs }
func (s *PromptStep) sealed()                  {}
func (s *ToolStep) StepID() string             { return s.ID }
func (s *ToolStep) Kind() Kind                 { return KindTool }
func (s *ToolStep) NextID() string             { return s.Next }
func (s *ToolStep) Params() map[string]any     { return s.Inputs }
func (s *ToolStep) sealed()                    {}
func (s *DecisionStep) StepID() string         { return s.ID }
func (s *DecisionStep) Kind() Kind             { return KindDecision }
func (s *DecisionStep) NextID() string         { return s.Next }
func (s *DecisionStep) Params() map[string]any { return s.Inputs }
func (s *DecisionStep) sealed()                {}

// Key returns the context key this decision reads, or "" when none is declared.
// Context keys are strings, so a non-string key never matches and counts as absent.
func (s *DecisionStep) Key() string {
	key, _ := s.Inputs[KeyDecision].(string)
	return key
}

// Spec is a parsed decision model.
type Spec struct {
	Name        string
	Description string
	// Steps order defines the entry point: the first element runs first.
	Steps []Step
}

// Entry returns the id of the first step, or "" for an empty spec.
func (s *Spec) Entry() string {
	if s == nil || len(s.Steps) == 0 {
		return ""
	}
	return s.Steps[0].StepID()
}

// Index builds the id to step lookup table.
func (s *Spec) Index() map[string]Step {
	idx := make(map[string]Step, len(s.Steps))
	for _, st := range s.Steps {
		idx[st.StepID()] = st
	}
	return idx
}
