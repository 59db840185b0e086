package dsl

import (
	"fmt"

	"github.com/aretw0/idside/pkg/domain"
)

// Builder manages programmatic spec construction.
type Builder struct {
	spec  domain.Spec
	steps map[string]*StepBuilder
	order []*StepBuilder
	errs  []error
}

// New creates a builder for a spec with the given name.
func New(name string) *Builder {
	return &Builder{
		spec:  domain.Spec{Name: name},
		steps: make(map[string]*StepBuilder),
	}
}

// Describe sets the spec description.
func (b *Builder) Describe(description string) *Builder {
	b.spec.Description = description
	return b
}

// Prompt adds a prompt step rendering the given template.
func (b *Builder) Prompt(id, template string) *StepBuilder {
	return b.add(id, &domain.PromptStep{ID: id, Template: template})
}

// Tool adds a tool step invoking the named tool.
func (b *Builder) Tool(id, name string) *StepBuilder {
	return b.add(id, &domain.ToolStep{ID: id, Tool: name})
}

// Decision adds a decision step reading the given context key.
func (b *Builder) Decision(id, key string) *StepBuilder {
	sb := b.add(id, &domain.DecisionStep{ID: id})
	if key != "" {
		sb.Input(domain.KeyDecision, key)
	}
	return sb
}

// add registers a step. Steps are kept in insertion order; the first one is the entry point.
// Re-adding an id returns the existing builder, and records an error if the kind differs.
func (b *Builder) add(id string, step domain.Step) *StepBuilder {
	if sb, ok := b.steps[id]; ok {
		if sb.step.Kind() != step.Kind() {
			b.errs = append(b.errs, fmt.Errorf("step %q redeclared as %s (was %s)", id, step.Kind(), sb.step.Kind()))
		}
		return sb
	}
	sb := &StepBuilder{step: step, builder: b}
	b.steps[id] = sb
	b.order = append(b.order, sb)
	return sb
}

// Build returns the constructed Spec.
func (b *Builder) Build() (*domain.Spec, error) {
	if len(b.errs) > 0 {
		return nil, &domain.SpecParseError{Cause: &domain.AggregateError{Errors: b.errs}}
	}
	spec := b.spec
	spec.Steps = make([]domain.Step, 0, len(b.order))
	for _, sb := range b.order {
		spec.Steps = append(spec.Steps, sb.step)
	}
	return &spec, nil
}

// MustBuild is Build for static specs; it panics on error.
func (b *Builder) MustBuild() *domain.Spec {
	spec, err := b.Build()
	if err != nil {
		panic(err)
	}
	return spec
}

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step    domain.Step
	builder *Builder
}

// Model sets the provider model of a prompt step, or the tool name of a tool step.
func (s *StepBuilder) Model(name string) *StepBuilder {
	switch st := s.step.(type) {
	case *domain.PromptStep:
		st.Model = name
	case *domain.ToolStep:
		st.Tool = name
	}
	return s
}

// Input sets a free-form step input.
func (s *StepBuilder) Input(key string, value any) *StepBuilder {
	switch st := s.step.(type) {
	case *domain.PromptStep:
		st.Inputs = setInput(st.Inputs, key, value)
	case *domain.ToolStep:
		st.Inputs = setInput(st.Inputs, key, value)
	case *domain.DecisionStep:
		st.Inputs = setInput(st.Inputs, key, value)
	}
	return s
}

// Then chains the step to its successor.
func (s *StepBuilder) Then(next string) *StepBuilder {
	switch st := s.step.(type) {
	case *domain.PromptStep:
		st.Next = next
	case *domain.ToolStep:
		st.Next = next
	case *domain.DecisionStep:
		st.Next = next
	}
	return s
}

// Terminal marks the step as the end of the chain.
func (s *StepBuilder) Terminal() *StepBuilder {
	return s.Then("")
}

// Done returns the parent builder.
func (s *StepBuilder) Done() *Builder {
	return s.builder
}

// Step returns the underlying domain.Step.
func (s *StepBuilder) Step() domain.Step {
	return s.step
}

func setInput(m map[string]any, key string, value any) map[string]any {
	if m == nil {
		m = make(map[string]any)
	}
	m[key] = value
	return m
}
