package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/idside/internal/config"
	"github.com/aretw0/idside/internal/logging"
	"github.com/aretw0/idside/pkg/domain"
	"github.com/aretw0/idside/pkg/dsl"
	"gopkg.in/yaml.v3"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitServer      = 1
	ExitBadRequest  = 2
	ExitInterrupted = 130 // 128 + SIGINT
)

// usageError is a bad flag or input file, reported like a client error.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// ExitCode maps an engine error to a process exit code.
// Spec documents and inputs the user can fix exit with 2, everything else with 1.
// A run stopped by a signal exits with 128 plus the signal number.
func ExitCode(err error) int {
	var sig *InterruptedError
	if errors.As(err, &sig) {
		if n, ok := sig.Signal.(syscall.Signal); ok {
			return 128 + int(n)
		}
		return ExitInterrupted
	}
	var usage *usageError
	if errors.As(err, &usage) {
		return ExitBadRequest
	}
	switch domain.Classify(err) {
	case domain.ClassNone:
		return ExitOK
	case domain.ClassParse, domain.ClassClient:
		return ExitBadRequest
	default:
		return ExitServer
	}
}

// InterruptedError reports that a signal stopped the command.
type InterruptedError struct {
	Signal os.Signal
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("interrupted by %s", e.Signal)
}

// NewSignalContext returns a context that is cancelled on SIGINT or SIGTERM
// with an *InterruptedError as its cause.
func NewSignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			cancel(&InterruptedError{Signal: sig})
		case <-ctx.Done():
		}
	}()

	return ctx, func() { cancel(context.Canceled) }
}

// interrupted tags err with the signal that cancelled ctx, if any.
func interrupted(ctx context.Context, err error) error {
	var sig *InterruptedError
	if err != nil && errors.As(context.Cause(ctx), &sig) && !errors.As(err, new(*InterruptedError)) {
		return fmt.Errorf("%w: %w", sig, err)
	}
	return err
}

// createLogger configures the application logger from the environment.
// --debug forces debug level.
func createLogger(cfg *config.Config, debug bool) *slog.Logger {
	level := cfg.LogLevel
	if debug {
		level = slog.LevelDebug
	}
	return logging.New(level, cfg.LogFormat)
}

// loadSpec reads and parses a spec document from disk.
func loadSpec(path string) (*domain.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, usagef("failed to read spec: %w", err)
	}
	return dsl.ParseBytes(data)
}

// ParseInputs merges a JSON object file with key=value pairs; pairs win.
// Values of pairs are decoded as YAML scalars, so n=3 is a number and flag=true a bool.
func ParseInputs(pairs []string, jsonFile string) (map[string]any, error) {
	inputs := make(map[string]any)

	if jsonFile != "" {
		data, err := readFileOrStdin(jsonFile)
		if err != nil {
			return nil, usagef("failed to read inputs: %w", err)
		}
		if err := json.Unmarshal(data, &inputs); err != nil {
			return nil, usagef("inputs must be a JSON object: %w", err)
		}
		if inputs == nil {
			inputs = make(map[string]any)
		}
	}

	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, usagef("invalid input %q: expected key=value", pair)
		}
		inputs[key] = scalar(raw)
	}
	return inputs, nil
}

func scalar(raw string) any {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	switch v.(type) {
	case nil:
		if raw == "" {
			return ""
		}
		return nil
	case map[string]any, []any:
		return raw
	default:
		return v
	}
}

func readFileOrStdin(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
