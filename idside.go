package idside

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/idside/internal/runtime"
	"github.com/aretw0/idside/pkg/domain"
	"github.com/aretw0/idside/pkg/dsl"
	"github.com/aretw0/idside/pkg/ports"
	"github.com/aretw0/idside/pkg/provider"
	"github.com/aretw0/idside/pkg/registry"
)

// Engine is the high-level entry point for running decision models.
// It wraps the internal runtime and is safe for concurrent use.
type Engine struct {
	runner      *runtime.Runner
	runtimeOpts []runtime.Option
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets the structured logger used by the engine and its runs.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithLogger(logger))
	}
}

// WithTelemetrySink injects the telemetry log shared by all runs of this engine.
// Without it each engine owns a private bounded in-memory buffer.
func WithTelemetrySink(sink ports.TelemetrySink) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithTelemetrySink(sink))
	}
}

// WithProvider sets the adapter used for prompt steps when a credential is configured.
func WithProvider(p provider.Provider) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithProvider(p))
	}
}

// WithProviderConfig sets the credential, fake-mode and fallback switches.
// The default allows fake mode and enables fallback.
func WithProviderConfig(cfg provider.Config) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithProviderConfig(cfg))
	}
}

// WithDefaultModel sets the model used by prompt steps that name none.
func WithDefaultModel(model string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithDefaultModel(model))
	}
}

// WithToolRegistry plugs real tool implementations in. Unregistered tools keep the stub result.
func WithToolRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithToolRegistry(r))
	}
}

// WithLoopLimit permits next chains that revisit steps, up to n executed steps.
func WithLoopLimit(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithLoopLimit(n))
	}
}

// WithHooks registers per-step observability callbacks.
func WithHooks(hooks domain.StepHooks) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithStepHooks(hooks))
	}
}

// WithClock sets the time source for telemetry timestamps and latencies.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithClock(now))
	}
}

// WithRunIDGenerator replaces the UUIDv7 run id source.
func WithRunIDGenerator(next func() string) Option {
	return func(e *Engine) {
		if next != nil {
			e.runtimeOpts = append(e.runtimeOpts, runtime.WithIDGenerator(idFunc(next)))
		}
	}
}

type idFunc func() string

func (f idFunc) Generate() string { return f() }

// New initializes an engine. It fails when a credential is configured
// without a provider adapter to use it.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	r, err := runtime.NewRunner(e.runtimeOpts...)
	if err != nil {
		return nil, err
	}
	e.runner = r
	return e, nil
}

// Run parses specText and executes it with inputs as the initial context.
//
// Errors are one of *domain.SpecParseError, *domain.MissingInputKeyError or
// *domain.ExecutionError; domain.Classify maps them to a caller-facing class.
func (e *Engine) Run(ctx context.Context, specText string, inputs map[string]any) (*domain.RunResult, error) {
	spec, err := dsl.Parse(specText)
	if err != nil {
		return nil, err
	}
	return e.RunSpec(ctx, spec, inputs)
}

// RunSpec executes an already parsed or built spec.
func (e *Engine) RunSpec(ctx context.Context, spec *domain.Spec, inputs map[string]any) (*domain.RunResult, error) {
	return e.runner.Run(ctx, spec, inputs)
}

// Telemetry returns a snapshot of the engine's telemetry sink.
func (e *Engine) Telemetry(ctx context.Context) ([]domain.Event, error) {
	return e.runner.Sink().Dump(ctx)
}

// Mode reports how prompt steps are served by this engine.
func (e *Engine) Mode() provider.Mode {
	return e.runner.Executor().Mode()
}
