package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/idside/internal/config"
	"github.com/aretw0/idside/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"gopkg.in/yaml.v3"
)

// RunOptions configures a single CLI run.
type RunOptions struct {
	SpecPath   string
	Inputs     []string // key=value pairs
	InputsJSON string   // path to a JSON object, "-" for stdin
	JSON       bool
	Metrics    bool
	Debug      bool
}

// Run executes the spec at opts.SpecPath and writes the result to out.
func Run(ctx context.Context, opts RunOptions, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return usagef("invalid configuration: %w", err)
	}
	return runWithConfig(ctx, cfg, opts, out)
}

func runWithConfig(ctx context.Context, cfg *config.Config, opts RunOptions, out io.Writer) error {
	logger := createLogger(cfg, opts.Debug)

	spec, err := loadSpec(opts.SpecPath)
	if err != nil {
		return err
	}
	inputs, err := ParseInputs(opts.Inputs, opts.InputsJSON)
	if err != nil {
		return err
	}

	setup, err := createEngine(cfg, logger, opts.Metrics)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := setup.close(); cerr != nil {
			logger.Warn("failed to close telemetry store", "err", cerr)
		}
	}()

	res, err := setup.engine.RunSpec(ctx, spec, inputs)
	if err != nil {
		err = interrupted(ctx, err)
		logger.Debug("run failed", "spec", spec.Name, "class", domain.Classify(err).String(), "err", err)
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else if err := printTrace(out, res); err != nil {
		return err
	}

	if opts.Metrics {
		return writeMetrics(out, setup.registry)
	}
	return nil
}

// printTrace renders each trace entry with its result as YAML.
func printTrace(out io.Writer, res *domain.RunResult) error {
	fmt.Fprintf(out, "run %s: %d step(s), %d telemetry event(s)\n", res.RunID, len(res.Trace), len(res.Telemetry))
	for i, entry := range res.Trace {
		fmt.Fprintf(out, "\n[%d] %s (%s)\n", i+1, entry.ID, entry.Kind)
		body, err := yaml.Marshal(map[string]any(entry.Result))
		if err != nil {
			return fmt.Errorf("failed to render result of %q: %w", entry.ID, err)
		}
		if _, err := out.Write(body); err != nil {
			return err
		}
	}
	return nil
}

func writeMetrics(out io.Writer, reg *prometheus.Registry) error {
	if reg == nil {
		return nil
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	fmt.Fprintln(out)
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}
