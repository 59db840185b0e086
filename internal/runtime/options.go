package runtime

import (
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/idside/pkg/adapters/memory"
	"github.com/aretw0/idside/pkg/domain"
	"github.com/aretw0/idside/pkg/ports"
	"github.com/aretw0/idside/pkg/provider"
	"github.com/aretw0/idside/pkg/registry"
)

// settings is shared by the executor and the runner.
type settings struct {
	providerCfg  provider.Config
	provider     provider.Provider
	defaultModel string
	tools        *registry.Registry
	sink         ports.TelemetrySink
	now          func() time.Time
	logger       *slog.Logger
	hooks        domain.StepHooks
	loopLimit    int
	ids          IDGenerator
}

func newSettings(opts []Option) *settings {
	s := &settings{
		providerCfg:  provider.Config{AllowFake: true, Fallback: true},
		defaultModel: provider.DefaultModel,
		now:          time.Now,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:          UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sink == nil {
		s.sink = memory.NewTelemetryBuffer()
	}
	return s
}

// Option configures an Executor or Runner.
type Option func(*settings)

// WithProviderConfig sets the credential, fake-mode and fallback switches.
func WithProviderConfig(cfg provider.Config) Option {
	return func(s *settings) {
		s.providerCfg = cfg
	}
}

// WithProvider sets the adapter used in live mode.
func WithProvider(p provider.Provider) Option {
	return func(s *settings) {
		s.provider = p
	}
}

// WithDefaultModel sets the model for prompt steps that name none.
func WithDefaultModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.defaultModel = model
		}
	}
}

// WithToolRegistry plugs real tool implementations in, keyed by tool name.
func WithToolRegistry(r *registry.Registry) Option {
	return func(s *settings) {
		s.tools = r
	}
}

// WithTelemetrySink sets the telemetry log. Defaults to a private in-memory buffer.
func WithTelemetrySink(sink ports.TelemetrySink) Option {
	return func(s *settings) {
		s.sink = sink
	}
}

// WithClock sets the time source for event timestamps and latencies.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStepHooks registers observability callbacks.
func WithStepHooks(hooks domain.StepHooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}

// WithLoopLimit allows a next chain to revisit steps until n steps have run.
// With the default of 0 any revisit fails with *domain.CycleDetectedError.
func WithLoopLimit(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.loopLimit = n
		}
	}
}

// WithIDGenerator sets the run id source.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *settings) {
		if g != nil {
			s.ids = g
		}
	}
}
