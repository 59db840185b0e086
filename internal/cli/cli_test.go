package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/idside/internal/config"
	"github.com/aretw0/idside/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoSpec = `
name: demo
steps:
  - id: s1
    type: prompt
    prompt: "Echo: {text}"
    next: null
`

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testConfig(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	})
	require.NoError(t, err)
	return cfg
}

func TestRun_TextOutput(t *testing.T) {
	var out bytes.Buffer
	err := runWithConfig(context.Background(), testConfig(t, nil), RunOptions{
		SpecPath: writeSpec(t, demoSpec),
		Inputs:   []string{"text=Hello"},
	}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "1 step(s), 1 telemetry event(s)")
	assert.Contains(t, out.String(), "[1] s1 (prompt)")
	assert.Contains(t, out.String(), "Echo: Hello")
}

func TestRun_JSONOutput(t *testing.T) {
	inputsFile := filepath.Join(t.TempDir(), "inputs.json")
	require.NoError(t, os.WriteFile(inputsFile, []byte(`{"text": "from file"}`), 0644))

	var out bytes.Buffer
	err := runWithConfig(context.Background(), testConfig(t, nil), RunOptions{
		SpecPath:   writeSpec(t, demoSpec),
		InputsJSON: inputsFile,
		JSON:       true,
	}, &out)
	require.NoError(t, err)

	var res struct {
		RunID string `json:"run_id"`
		Trace []struct {
			ID     string         `json:"id"`
			Type   string         `json:"type"`
			Result map[string]any `json:"result"`
		} `json:"trace"`
		Telemetry []map[string]any `json:"telemetry"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Trace, 1)
	assert.Equal(t, "prompt", res.Trace[0].Type)
	assert.Equal(t, "[FAKE_PROVIDER ECHO]\nEcho: from file", res.Trace[0].Result["text"])
	require.Len(t, res.Telemetry, 1)
	assert.Equal(t, "fake", res.Telemetry[0]["provider"])
	assert.Equal(t, float64(5), res.Telemetry[0]["latency_ms"])
}

func TestRun_Metrics(t *testing.T) {
	var out bytes.Buffer
	err := runWithConfig(context.Background(), testConfig(t, nil), RunOptions{
		SpecPath: writeSpec(t, demoSpec),
		Inputs:   []string{"text=x"},
		Metrics:  true,
	}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `idside_telemetry_events_total{provider="fake"} 1`)
	assert.Contains(t, out.String(), "idside_provider_latency_seconds_count")
}

func TestRun_SharedRedisTelemetry(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, map[string]string{config.EnvRedisURL: "redis://" + mr.Addr()})
	spec := writeSpec(t, demoSpec)

	for _, text := range []string{"one", "two"} {
		var out bytes.Buffer
		require.NoError(t, runWithConfig(context.Background(), cfg, RunOptions{
			SpecPath: spec,
			Inputs:   []string{"text=" + text},
		}, &out))
	}

	var out bytes.Buffer
	require.NoError(t, dumpTelemetry(context.Background(), cfg, true, &out))

	var events []domain.Event
	require.NoError(t, json.Unmarshal(out.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, domain.TagFake, events[0].Provider)
	assert.NotEqual(t, events[0].RunID, events[1].RunID)

	out.Reset()
	require.NoError(t, dumpTelemetry(context.Background(), cfg, false, &out))
	assert.Contains(t, out.String(), "2 event(s)")
}

func TestDumpTelemetry_RequiresRedis(t *testing.T) {
	err := dumpTelemetry(context.Background(), testConfig(t, nil), false, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, ExitBadRequest, ExitCode(err))
}

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		spec string
		opts RunOptions
		code int
	}{
		{"missing input", demoSpec, RunOptions{}, ExitBadRequest},
		{"parse error", "name: [broken", RunOptions{}, ExitBadRequest},
		{"bad input pair", demoSpec, RunOptions{Inputs: []string{"novalue"}}, ExitBadRequest},
		{"missing spec file", "", RunOptions{SpecPath: "/does/not/exist.yaml"}, ExitBadRequest},
		{"dangling next", "name: x\nsteps:\n  - id: a\n    type: tool\n    next: ghost\n", RunOptions{}, ExitServer},
		{"ok", demoSpec, RunOptions{Inputs: []string{"text=hi"}}, ExitOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if opts.SpecPath == "" {
				opts.SpecPath = writeSpec(t, tt.spec)
			}
			err := runWithConfig(context.Background(), testConfig(t, nil), opts, &bytes.Buffer{})
			assert.Equal(t, tt.code, ExitCode(err))
		})
	}
}

func TestExitCode_Unclassified(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitServer, ExitCode(errors.New("boom")))
}

func TestRun_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(&InterruptedError{Signal: syscall.SIGINT})

	err := runWithConfig(ctx, testConfig(t, nil), RunOptions{
		SpecPath: writeSpec(t, demoSpec),
		Inputs:   []string{"text=hi"},
	}, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "interrupted by")
	assert.Equal(t, ExitInterrupted, ExitCode(err))

	assert.Equal(t, 143, ExitCode(&InterruptedError{Signal: syscall.SIGTERM}))
}

func TestNewSignalContext_CancelIsNotAnInterrupt(t *testing.T) {
	ctx, cancel := NewSignalContext(context.Background())
	cancel()
	<-ctx.Done()

	err := interrupted(ctx, ctx.Err())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ExitServer, ExitCode(err))
}

func TestParseInputs(t *testing.T) {
	inputs, err := ParseInputs([]string{"n=3", "flag=true", "name=Ada", "empty=", "list=[1,2]", "eq=a=b"}, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"n":     3,
		"flag":  true,
		"name":  "Ada",
		"empty": "",
		"list":  "[1,2]",
		"eq":    "a=b",
	}, inputs)

	file := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"a": 1, "b": "x"}`), 0644))
	inputs, err = ParseInputs([]string{"b=override"}, file)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1), "b": "override"}, inputs)

	require.NoError(t, os.WriteFile(file, []byte(`[1, 2]`), 0644))
	_, err = ParseInputs(nil, file)
	assert.Equal(t, ExitBadRequest, ExitCode(err))
}

func TestValidate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Validate(writeSpec(t, demoSpec), &out))
	assert.Contains(t, out.String(), `Spec "demo" is valid (1 steps, 0 warning(s)).`)

	out.Reset()
	err := Validate(writeSpec(t, "name: x\nsteps:\n  - id: a\n    type: tool\n    next: ghost\n"), &out)
	require.Error(t, err)
	assert.Equal(t, ExitBadRequest, ExitCode(err))
	assert.Contains(t, out.String(), `next references unknown step "ghost"`)
}

func TestGraph(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvRedisURL, "")
	path := writeSpec(t, demoSpec)

	var out bytes.Buffer
	require.NoError(t, Graph(context.Background(), path, false, nil, &out))
	assert.Contains(t, out.String(), "graph TD")
	assert.Contains(t, out.String(), `s1(("s1 <br/> prompt"))`)
	assert.NotContains(t, out.String(), "class s1 current;")

	out.Reset()
	require.NoError(t, Graph(context.Background(), path, true, []string{"text=hi"}, &out))
	assert.Contains(t, out.String(), "class s1 current;")
}
