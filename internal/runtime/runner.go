package runtime

import (
	"context"
	"errors"
	"maps"

	"github.com/aretw0/idside/pkg/domain"
	"github.com/aretw0/idside/pkg/ports"
)

// Runner walks a spec's next chain from its entry step.
// A Runner is safe for concurrent use; each Run owns its context and trace.
type Runner struct {
	exec *Executor
}

// NewRunner builds a runner and its executor from the same options.
func NewRunner(opts ...Option) (*Runner, error) {
	exec, err := newExecutor(newSettings(opts))
	if err != nil {
		return nil, err
	}
	return &Runner{exec: exec}, nil
}

// Executor returns the step executor used by the runner.
func (r *Runner) Executor() *Executor {
	return r.exec
}

// Sink returns the telemetry sink runs write to.
func (r *Runner) Sink() ports.TelemetrySink {
	return r.exec.sink
}

// Run executes spec with inputs as the initial context.
//
// Template lookups that fail surface as *domain.MissingInputKeyError.
// Every other step failure is wrapped in *domain.ExecutionError.
// The returned telemetry is a snapshot of the whole sink, not only this run.
func (r *Runner) Run(ctx context.Context, spec *domain.Spec, inputs map[string]any) (*domain.RunResult, error) {
	runID := r.exec.ids.Generate()
	logger := r.exec.logger.With("run_id", runID, "spec", spec.Name)

	vars := make(map[string]any, len(inputs)+len(spec.Steps))
	maps.Copy(vars, inputs)

	index := spec.Index()
	trace := domain.Trace{}
	visited := make(map[string]bool, len(spec.Steps))

	logger.Debug("run started", "steps", len(spec.Steps))

	current, from := spec.Entry(), ""
	for current != "" {
		if err := ctx.Err(); err != nil {
			return nil, &domain.ExecutionError{StepID: current, Err: err}
		}

		step, ok := index[current]
		if !ok {
			return nil, &domain.ExecutionError{
				StepID: from,
				Err:    &domain.UnknownStepIDError{ID: current, From: from},
			}
		}

		if visited[current] && (r.exec.loopLimit == 0 || len(trace) >= r.exec.loopLimit) {
			return nil, &domain.ExecutionError{
				StepID: current,
				Err:    &domain.CycleDetectedError{StepID: current, Steps: len(trace)},
			}
		}
		visited[current] = true

		result, err := r.runStep(ctx, runID, step, vars)
		if err != nil {
			logger.Debug("step failed", "step_id", current, "kind", step.Kind(), "err", err)
			var missing *domain.MissingInputKeyError
			if errors.As(err, &missing) {
				return nil, missing
			}
			return nil, &domain.ExecutionError{StepID: current, Err: err}
		}

		trace = append(trace, domain.TraceEntry{ID: current, Kind: step.Kind(), Result: result})
		vars[current] = result
		logger.Debug("step completed", "step_id", current, "kind", step.Kind())

		from, current = current, step.NextID()
	}

	logger.Debug("run completed", "steps", len(trace))

	return &domain.RunResult{
		RunID:     runID,
		Trace:     trace,
		Telemetry: r.snapshot(ctx, runID),
	}, nil
}

func (r *Runner) runStep(ctx context.Context, runID string, step domain.Step, vars map[string]any) (domain.Result, error) {
	hooks := r.exec.hooks
	if hooks.OnStepStart != nil {
		hooks.OnStepStart(ctx, &domain.StepEvent{RunID: runID, StepID: step.StepID(), Kind: step.Kind()})
	}

	start := r.exec.now()
	result, err := r.exec.Execute(ctx, runID, step, vars)

	if hooks.OnStepEnd != nil {
		hooks.OnStepEnd(ctx, &domain.StepEvent{
			RunID:    runID,
			StepID:   step.StepID(),
			Kind:     step.Kind(),
			Result:   result,
			Err:      err,
			Duration: r.exec.now().Sub(start),
		})
	}
	return result, err
}

func (r *Runner) snapshot(ctx context.Context, runID string) []domain.Event {
	events, err := r.exec.sink.Dump(ctx)
	if err != nil {
		r.exec.logger.Warn("failed to dump telemetry", "run_id", runID, "err", err)
		return []domain.Event{}
	}
	if events == nil {
		return []domain.Event{}
	}
	return events
}
