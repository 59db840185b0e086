package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/idside/internal/config"
	"github.com/aretw0/idside/internal/presentation/graph"
)

// Graph writes a Mermaid flowchart of the spec at path.
// With trace set, the spec is run first and the visited steps are highlighted.
func Graph(ctx context.Context, path string, trace bool, inputs []string, out io.Writer) error {
	spec, err := loadSpec(path)
	if err != nil {
		return err
	}

	var overlay *graph.Overlay
	if trace {
		cfg, err := config.Load()
		if err != nil {
			return usagef("invalid configuration: %w", err)
		}
		vars, err := ParseInputs(inputs, "")
		if err != nil {
			return err
		}
		setup, err := createEngine(cfg, createLogger(cfg, false), false)
		if err != nil {
			return err
		}
		defer setup.close()

		res, err := setup.engine.RunSpec(ctx, spec, vars)
		if err != nil {
			return err
		}
		overlay = graph.OverlayFromTrace(res.Trace)
	}

	_, err = fmt.Fprint(out, graph.GenerateMermaid(spec, overlay))
	return err
}
