// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/idside/internal/logging"
	"github.com/aretw0/idside/pkg/adapters/memory"
	"github.com/aretw0/idside/pkg/provider"
)

// Environment keys.
const (
	EnvAPIKey            = "OPENAI_API_KEY"
	EnvBaseURL           = "OPENAI_BASE_URL"
	EnvAllowFake         = "ALLOW_FAKE_PROVIDER"
	EnvFallback          = "OPENAI_FALLBACK"
	EnvLogLevel          = "IDSIDE_LOG_LEVEL"
	EnvLogFormat         = "IDSIDE_LOG_FORMAT"
	EnvLoopLimit         = "IDSIDE_LOOP_LIMIT"
	EnvTelemetryCapacity = "IDSIDE_TELEMETRY_CAPACITY"
	EnvRedisURL          = "REDIS_URL"
)

// Config holds everything the CLI needs to build an engine.
type Config struct {
	Provider          provider.Config
	BaseURL           string
	LogLevel          slog.Level
	LogFormat         logging.Format
	LoopLimit         int
	TelemetryCapacity int
	RedisURL          string
}

// Load reads the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads settings through lookup, which has the os.LookupEnv signature.
func LoadFrom(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := &Config{
		Provider: provider.Config{
			Credential: get(EnvAPIKey),
			AllowFake:  true,
			Fallback:   true,
		},
		BaseURL:           get(EnvBaseURL),
		TelemetryCapacity: memory.DefaultCapacity,
		RedisURL:          get(EnvRedisURL),
	}

	if v, ok := lookup(EnvAllowFake); ok {
		cfg.Provider.AllowFake = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v, ok := lookup(EnvFallback); ok {
		cfg.Provider.Fallback = provider.ParseSwitch(strings.TrimSpace(v))
	}

	var err error
	if cfg.LogLevel, err = logging.ParseLevel(get(EnvLogLevel)); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	if cfg.LogFormat, err = logging.ParseFormat(get(EnvLogFormat)); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvLogFormat, err)
	}
	if cfg.LoopLimit, err = nonNegative(EnvLoopLimit, get(EnvLoopLimit), 0); err != nil {
		return nil, err
	}
	if cfg.TelemetryCapacity, err = nonNegative(EnvTelemetryCapacity, get(EnvTelemetryCapacity), memory.DefaultCapacity); err != nil {
		return nil, err
	}
	if cfg.TelemetryCapacity == 0 {
		return nil, fmt.Errorf("%s: must be positive", EnvTelemetryCapacity)
	}

	return cfg, nil
}

func nonNegative(key, raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s: must not be negative, got %d", key, n)
	}
	return n, nil
}
