package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/idside"
	"github.com/aretw0/idside/internal/config"
	"github.com/aretw0/idside/pkg/adapters/memory"
	"github.com/aretw0/idside/pkg/adapters/metrics"
	"github.com/aretw0/idside/pkg/adapters/openai"
	"github.com/aretw0/idside/pkg/adapters/redis"
	"github.com/aretw0/idside/pkg/domain"
	"github.com/aretw0/idside/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// engineSetup is an engine plus the resources the CLI has to release or report.
type engineSetup struct {
	engine   *idside.Engine
	registry *prometheus.Registry // nil unless metrics were requested
	close    func() error
}

// createEngine initializes an engine with standard CLI conventions:
// a Redis sink when REDIS_URL is set, a bounded in-memory one otherwise,
// and the OpenAI adapter for live mode.
func createEngine(cfg *config.Config, logger *slog.Logger, withMetrics bool) (*engineSetup, error) {
	setup := &engineSetup{close: func() error { return nil }}

	var sink ports.TelemetrySink
	if cfg.RedisURL != "" {
		store, err := redis.NewFromURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("error connecting telemetry store: %w", err)
		}
		sink = store
		setup.close = store.Close
	} else {
		sink = memory.NewTelemetryBuffer(memory.WithCapacity(cfg.TelemetryCapacity))
	}

	if withMetrics {
		setup.registry = prometheus.NewRegistry()
		wrapped, err := metrics.NewSink(sink, setup.registry)
		if err != nil {
			_ = setup.close()
			return nil, err
		}
		sink = wrapped
	}

	var clientOpts []openai.Option
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(cfg.BaseURL))
	}

	engine, err := idside.New(
		idside.WithLogger(logger),
		idside.WithHooks(createDebugHooks(logger)),
		idside.WithTelemetrySink(sink),
		idside.WithProviderConfig(cfg.Provider),
		idside.WithProvider(openai.New(clientOpts...)),
		idside.WithLoopLimit(cfg.LoopLimit),
	)
	if err != nil {
		_ = setup.close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	setup.engine = engine

	logger.Debug("engine ready", "provider_mode", engine.Mode().String(), "redis", cfg.RedisURL != "")
	return setup, nil
}

func createDebugHooks(logger *slog.Logger) domain.StepHooks {
	return domain.StepHooks{
		OnStepStart: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("Enter Step", "step_id", e.StepID, "type", e.Kind)
		},
		OnStepEnd: func(ctx context.Context, e *domain.StepEvent) {
			if e.Err != nil {
				logger.Debug("Leave Step (Error)", "step_id", e.StepID, "err", e.Err, "duration", e.Duration)
			} else {
				logger.Debug("Leave Step", "step_id", e.StepID, "duration", e.Duration)
			}
		},
	}
}
