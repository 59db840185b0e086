package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/idside/internal/render"
	"github.com/aretw0/idside/pkg/domain"
)

// Severity ranks a lint finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single static finding about a Spec.
type Issue struct {
	StepID   string
	Severity Severity
	Message  string
}

func (i Issue) String() string {
	if i.StepID == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: step %q: %s", i.Severity, i.StepID, i.Message)
}

// Lint reports problems that Parse accepts but a run would trip over:
// dangling next references, cycles in the next chain, unreachable steps,
// decision steps without a key, malformed prompt templates and templates
// that read a step result before that step has run.
func Lint(spec *domain.Spec) []Issue {
	var issues []Issue
	if spec == nil || len(spec.Steps) == 0 {
		return append(issues, Issue{Severity: SeverityWarning, Message: "spec has no steps"})
	}

	idx := spec.Index()
	for _, step := range spec.Steps {
		if next := step.NextID(); next != "" {
			if _, ok := idx[next]; !ok {
				issues = append(issues, Issue{
					StepID:   step.StepID(),
					Severity: SeverityError,
					Message:  fmt.Sprintf("next references unknown step %q", next),
				})
			}
		}
		switch s := step.(type) {
		case *domain.DecisionStep:
			if s.Key() == "" {
				issues = append(issues, Issue{
					StepID:   s.ID,
					Severity: SeverityWarning,
					Message:  "decision has no string inputs.key and always yields the default branch",
				})
			}
		case *domain.PromptStep:
			if s.Template == "" {
				issues = append(issues, Issue{
					StepID:   s.ID,
					Severity: SeverityWarning,
					Message:  "prompt has an empty template",
				})
			}
		}
	}

	// Walk the chain from the entry point.
	visited := make(map[string]bool)
	ran := make(map[string]bool)
	current := spec.Entry()
	for current != "" {
		if visited[current] {
			issues = append(issues, Issue{
				StepID:   current,
				Severity: SeverityError,
				Message:  "next chain loops back to this step",
			})
			break
		}
		visited[current] = true
		step, ok := idx[current]
		if !ok {
			break
		}
		if p, ok := step.(*domain.PromptStep); ok {
			issues = append(issues, lintPlaceholders(p, idx, ran)...)
		}
		ran[current] = true
		current = step.NextID()
	}

	for _, step := range spec.Steps {
		if !visited[step.StepID()] {
			issues = append(issues, Issue{
				StepID:   step.StepID(),
				Severity: SeverityWarning,
				Message:  "step is unreachable from the entry point",
			})
			if p, ok := step.(*domain.PromptStep); ok {
				issues = append(issues, lintPlaceholders(p, nil, nil)...)
			}
		}
	}

	return issues
}

// lintPlaceholders checks a prompt template. With a nil idx only the syntax is checked.
func lintPlaceholders(s *domain.PromptStep, idx map[string]domain.Step, ran map[string]bool) []Issue {
	fields, err := render.Fields(s.Template)
	if err != nil {
		msg := err.Error()
		var tmplErr *domain.TemplateError
		if errors.As(err, &tmplErr) {
			msg = "malformed template: " + tmplErr.Reason
		}
		return []Issue{{StepID: s.ID, Severity: SeverityError, Message: msg}}
	}

	var issues []Issue
	for _, f := range fields {
		if _, isStep := idx[f]; !isStep || ran[f] {
			continue
		}
		msg := fmt.Sprintf("template references step %q before it runs", f)
		if f == s.ID {
			msg = "template references its own result"
		}
		issues = append(issues, Issue{StepID: s.ID, Severity: SeverityWarning, Message: msg})
	}
	return issues
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
