package dsl

import (
	"bytes"
	"fmt"

	"github.com/aretw0/idside/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Marshal renders a Spec in the canonical document format accepted by Parse.
func Marshal(spec *domain.Spec) ([]byte, error) {
	if spec == nil {
		return nil, fmt.Errorf("cannot marshal nil spec")
	}

	doc := specDocument{
		Name:  &spec.Name,
		Steps: make([]stepDocument, 0, len(spec.Steps)),
	}
	if spec.Description != "" {
		doc.Description = &spec.Description
	}

	for _, step := range spec.Steps {
		sd, err := toDocument(step)
		if err != nil {
			return nil, err
		}
		doc.Steps = append(doc.Steps, sd)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode spec: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode spec: %w", err)
	}
	return buf.Bytes(), nil
}

func toDocument(step domain.Step) (stepDocument, error) {
	id := step.StepID()
	kind := string(step.Kind())
	sd := stepDocument{
		ID:     &id,
		Type:   &kind,
		Inputs: step.Params(),
		Next:   optional(step.NextID()),
	}

	switch s := step.(type) {
	case *domain.PromptStep:
		sd.Model = optional(s.Model)
		sd.Prompt = optional(s.Template)
	case *domain.ToolStep:
		sd.Model = optional(s.Tool)
	case *domain.DecisionStep:
	default:
		return stepDocument{}, fmt.Errorf("step %q: %w", id, &domain.UnknownStepKindError{Kind: kind})
	}
	return sd, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
