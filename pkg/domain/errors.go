package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoProviderConfigured is returned by prompt steps when neither a credential nor fake mode is available.
var ErrNoProviderConfigured = errors.New("no provider configured and fake provider disabled")

// SpecParseError reports a malformed decision model document.
type SpecParseError struct {
	Cause error
}

func (e *SpecParseError) Error() string {
	return fmt.Sprintf("spec parse error: %v", e.Cause)
}

func (e *SpecParseError) Unwrap() error { return e.Cause }

// MissingInputKeyError reports a template or step that references a context key not yet populated.
type MissingInputKeyError struct {
	Key    string
	StepID string
}

func (e *MissingInputKeyError) Error() string {
	if e.StepID == "" {
		return fmt.Sprintf("missing input: %s", e.Key)
	}
	return fmt.Sprintf("missing input: %s (step %q)", e.Key, e.StepID)
}

// UnknownStepKindError reports a step type outside the supported set.
type UnknownStepKindError struct {
	Kind string
}

func (e *UnknownStepKindError) Error() string {
	return fmt.Sprintf("unknown step type: %s", e.Kind)
}

// UnknownStepIDError reports a next reference to a step absent from the spec.
type UnknownStepIDError struct {
	ID   string
	From string // Step whose next pointed at ID.
}

func (e *UnknownStepIDError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("unknown step id: %s", e.ID)
	}
	return fmt.Sprintf("unknown step id: %s (referenced by %q)", e.ID, e.From)
}

// CycleDetectedError reports a next chain that revisits a step.
type CycleDetectedError struct {
	StepID string
	Steps  int // Steps executed before the run was stopped.
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected at step %q after %d steps", e.StepID, e.Steps)
}

// TemplateError reports a prompt template with malformed substitution markers.
type TemplateError struct {
	StepID   string
	Template string
	Reason   string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("invalid template in step %q: %s", e.StepID, e.Reason)
}

// ProviderError wraps a failure of the external provider boundary.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ExecutionError is the opaque failure of a run. The cause remains reachable via errors.As.
type ExecutionError struct {
	StepID string
	Err    error
}

func (e *ExecutionError) Error() string {
	if e.StepID == "" {
		return fmt.Sprintf("execution error: %v", e.Err)
	}
	return fmt.Sprintf("execution error at step %q: %v", e.StepID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// AggregateError collects several independent failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

func (e *AggregateError) Unwrap() []error { return e.Errors }

// ErrorClass tells a caller how to surface an error.
type ErrorClass int

const (
	// ClassNone means no error.
	ClassNone ErrorClass = iota
	// ClassParse is a malformed spec document (bad request).
	ClassParse
	// ClassClient is a user-correctable input problem (bad request).
	ClassClient
	// ClassServer is an opaque execution failure (server error).
	ClassServer
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassParse:
		return "parse"
	case ClassClient:
		return "client"
	default:
		return "server"
	}
}

// Classify maps an error returned by the engine to its caller-facing class.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	var parseErr *SpecParseError
	if errors.As(err, &parseErr) {
		return ClassParse
	}
	var missing *MissingInputKeyError
	if errors.As(err, &missing) {
		return ClassClient
	}
	return ClassServer
}
