package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/idside/internal/render"
	"github.com/aretw0/idside/pkg/domain"
	"github.com/aretw0/idside/pkg/provider"
)

// Executor evaluates one step against the accumulated context.
// It is stateless; the context map is owned by the caller.
type Executor struct {
	*settings
	mode provider.Mode
}

// NewExecutor resolves the provider mode once and returns an executor.
func NewExecutor(opts ...Option) (*Executor, error) {
	return newExecutor(newSettings(opts))
}

func newExecutor(s *settings) (*Executor, error) {
	mode := s.providerCfg.Resolve()
	if mode == provider.ModeLive && s.provider == nil {
		return nil, errors.New("a provider credential is configured but no provider adapter was given")
	}
	return &Executor{settings: s, mode: mode}, nil
}

// Mode reports how prompt steps are served.
func (e *Executor) Mode() provider.Mode {
	return e.mode
}

// Execute runs step and returns its result. vars is read, never written.
func (e *Executor) Execute(ctx context.Context, runID string, step domain.Step, vars map[string]any) (domain.Result, error) {
	switch s := step.(type) {
	case *domain.PromptStep:
		return e.executePrompt(ctx, runID, s, vars)
	case *domain.ToolStep:
		return e.executeTool(ctx, runID, s)
	case *domain.DecisionStep:
		return e.executeDecision(s, vars), nil
	default:
		return nil, &domain.UnknownStepKindError{Kind: string(step.Kind())}
	}
}

func (e *Executor) executePrompt(ctx context.Context, runID string, s *domain.PromptStep, vars map[string]any) (domain.Result, error) {
	prompt, err := render.Format(s.Template, vars)
	if err != nil {
		var missing *domain.MissingInputKeyError
		if errors.As(err, &missing) {
			missing.StepID = s.ID
		}
		var tmplErr *domain.TemplateError
		if errors.As(err, &tmplErr) {
			tmplErr.StepID = s.ID
		}
		return nil, err
	}

	switch e.mode {
	case provider.ModeLive:
		return e.callProvider(ctx, runID, s, prompt)
	case provider.ModeFake:
		e.log(ctx, runID, domain.TagFake, map[string]any{"latency_ms": 5})
		return domain.Result{domain.ResultText: provider.FakeText(prompt)}, nil
	default:
		return nil, domain.ErrNoProviderConfigured
	}
}

func (e *Executor) callProvider(ctx context.Context, runID string, s *domain.PromptStep, prompt string) (domain.Result, error) {
	model := s.Model
	if model == "" {
		model = e.defaultModel
	}
	name := e.provider.Name()

	start := e.now()
	out, err := e.provider.Complete(ctx, prompt, model, e.providerCfg.Credential)
	latency := e.now().Sub(start).Milliseconds()

	if err != nil {
		var provErr *domain.ProviderError
		if !errors.As(err, &provErr) {
			provErr = &domain.ProviderError{Provider: name, Err: err}
		}
		// A cancelled run is not a provider outage.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ctxErr, provErr)
		}
		if !e.providerCfg.Fallback {
			return nil, provErr
		}
		e.logger.Warn("provider call failed, using fallback", "run_id", runID, "step_id", s.ID, "provider", name, "err", provErr)
		e.log(ctx, runID, domain.TagFallback, map[string]any{
			"name":       name,
			"model":      model,
			"latency_ms": latency,
			"error":      provErr.Error(),
		})
		return domain.Result{
			domain.ResultText:     provider.FallbackText(name, prompt),
			domain.ResultFallback: true,
		}, nil
	}

	e.log(ctx, runID, domain.TagProvider, map[string]any{
		"name":       name,
		"model":      model,
		"latency_ms": latency,
	})
	return domain.Result{
		domain.ResultText: out,
		domain.ResultProviderMeta: map[string]any{
			"provider": name,
			"model":    model,
		},
	}, nil
}

func (e *Executor) executeTool(ctx context.Context, runID string, s *domain.ToolStep) (domain.Result, error) {
	name := s.Tool
	if name == "" {
		name = domain.DefaultToolName
	}
	e.log(ctx, runID, domain.TagTool, map[string]any{"name": name, "calls": 1})

	if e.tools != nil && e.tools.Has(name) {
		out, err := e.tools.Execute(ctx, domain.ToolCall{
			RunID:  runID,
			StepID: s.ID,
			Name:   name,
			Args:   s.Inputs,
		})
		if err != nil {
			return nil, fmt.Errorf("tool %s failed: %w", name, err)
		}
		return domain.Result{domain.ResultToolOutput: out}, nil
	}

	return domain.Result{
		domain.ResultToolOutput: fmt.Sprintf("Tool %s executed with %v", name, s.Inputs),
	}, nil
}

func (e *Executor) executeDecision(s *domain.DecisionStep, vars map[string]any) domain.Result {
	if key := s.Key(); key != "" {
		if v, ok := vars[key]; ok {
			return domain.Result{domain.ResultBranch: v}
		}
	}
	return domain.Result{domain.ResultBranch: domain.DefaultBranch}
}

// log appends a telemetry event. A failing sink never fails the step.
func (e *Executor) log(ctx context.Context, runID, tag string, metrics map[string]any) {
	event := domain.Event{
		Timestamp: e.now().UTC(),
		Provider:  tag,
		RunID:     runID,
		Metrics:   metrics,
	}
	if err := e.sink.Record(ctx, event); err != nil {
		e.logger.Warn("failed to record telemetry", "run_id", runID, "provider", tag, "err", err)
	}
}
