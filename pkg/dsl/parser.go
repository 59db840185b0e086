package dsl

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/idside/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// specDocument is the wire shape of a decision model document.
type specDocument struct {
	Name        *string        `mapstructure:"name" yaml:"name"`
	Description *string        `mapstructure:"description" yaml:"description,omitempty"`
	Steps       []stepDocument `mapstructure:"steps" yaml:"steps"`
}

// stepDocument is the wire shape of a single step.
type stepDocument struct {
	ID     *string        `mapstructure:"id" yaml:"id"`
	Type   *string        `mapstructure:"type" yaml:"type"`
	Model  *string        `mapstructure:"model" yaml:"model,omitempty"`
	Prompt *string        `mapstructure:"prompt" yaml:"prompt,omitempty"`
	Inputs map[string]any `mapstructure:"inputs" yaml:"inputs,omitempty"`
	Next   *string        `mapstructure:"next" yaml:"next,omitempty"`
}

// Parse turns a decision model document into a Spec.
// Structural problems and duplicate step ids fail with *domain.SpecParseError.
// Dangling next references and empty step lists are accepted; see Lint.
func Parse(text string) (*domain.Spec, error) {
	spec, err := parse(text)
	if err != nil {
		return nil, &domain.SpecParseError{Cause: err}
	}
	return spec, nil
}

// ParseBytes is Parse for raw file content.
func ParseBytes(data []byte) (*domain.Spec, error) {
	return Parse(string(data))
}

func parse(text string) (*domain.Spec, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))
	var raw any
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("expected a single document, found more than one")
	}
	if raw == nil {
		return nil, errors.New("empty document")
	}
	root, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a mapping at document root, got %T", raw)
	}
	if v, ok := root["steps"]; !ok || v == nil {
		return nil, errors.New("field \"steps\": required")
	}

	var doc specDocument
	if err := decode(root, &doc); err != nil {
		return nil, err
	}
	if doc.Name == nil {
		return nil, errors.New("field \"name\": required")
	}

	spec := &domain.Spec{
		Name:  *doc.Name,
		Steps: make([]domain.Step, 0, len(doc.Steps)),
	}
	if doc.Description != nil {
		spec.Description = *doc.Description
	}

	seen := make(map[string]int, len(doc.Steps))
	for i, sd := range doc.Steps {
		step, err := sd.toStep()
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		if first, dup := seen[step.StepID()]; dup {
			return nil, fmt.Errorf("steps[%d]: duplicate step id %q (first declared at steps[%d])", i, step.StepID(), first)
		}
		seen[step.StepID()] = i
		spec.Steps = append(spec.Steps, step)
	}

	return spec, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func (sd stepDocument) toStep() (domain.Step, error) {
	if sd.ID == nil {
		return nil, errors.New("field \"id\": required")
	}
	if sd.Type == nil {
		return nil, errors.New("field \"type\": required")
	}
	kind, err := domain.ParseKind(*sd.Type)
	if err != nil {
		return nil, fmt.Errorf("field \"type\": %w", err)
	}

	id := *sd.ID
	next := deref(sd.Next)
	inputs := sd.Inputs
	if len(inputs) == 0 {
		inputs = nil
	}

	switch kind {
	case domain.KindPrompt:
		return &domain.PromptStep{
			ID:       id,
			Model:    deref(sd.Model),
			Template: deref(sd.Prompt),
			Inputs:   inputs,
			Next:     next,
		}, nil
	case domain.KindTool:
		return &domain.ToolStep{
			ID:     id,
			Tool:   deref(sd.Model),
			Inputs: inputs,
			Next:   next,
		}, nil
	default:
		return &domain.DecisionStep{
			ID:     id,
			Inputs: inputs,
			Next:   next,
		}, nil
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
