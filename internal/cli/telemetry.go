package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/idside/internal/config"
	"github.com/aretw0/idside/pkg/adapters/redis"
)

// DumpTelemetry prints the shared telemetry log kept in Redis.
// An in-memory log dies with the process, so REDIS_URL is required.
func DumpTelemetry(ctx context.Context, jsonOut bool, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return usagef("invalid configuration: %w", err)
	}
	return dumpTelemetry(ctx, cfg, jsonOut, out)
}

func dumpTelemetry(ctx context.Context, cfg *config.Config, jsonOut bool, out io.Writer) error {
	if cfg.RedisURL == "" {
		return usagef("%s is not set; telemetry is only shared through Redis", config.EnvRedisURL)
	}
	store, err := redis.NewFromURL(cfg.RedisURL)
	if err != nil {
		return usagef("invalid %s: %w", config.EnvRedisURL, err)
	}
	defer store.Close()

	events, err := store.Dump(ctx)
	if err != nil {
		return fmt.Errorf("failed to read telemetry: %w", err)
	}

	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}
	for _, ev := range events {
		fmt.Fprintf(out, "%s  %-8s  %s  %v\n", ev.Timestamp.Format(time.RFC3339), ev.Provider, ev.RunID, ev.Metrics)
	}
	fmt.Fprintf(out, "%d event(s)\n", len(events))
	return nil
}
