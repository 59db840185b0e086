package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/idside/pkg/adapters/memory"
	"github.com/aretw0/idside/pkg/domain"
	"github.com/aretw0/idside/pkg/dsl"
	"github.com/aretw0/idside/pkg/provider"
	"github.com/sebdah/goldie/v2"
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

const triageSpec = `
name: triage
description: summarize then route
steps:
  - id: summarize
    type: prompt
    prompt: "Summarize: {ticket}"
    next: lookup
  - id: lookup
    type: tool
    model: crm
    inputs:
      account: 42
    next: route
  - id: route
    type: decision
    inputs:
      key: priority
    next: reply
  - id: reply
    type: prompt
    prompt: "Reply to {ticket} using {summarize.text}"
`

func mustParse(t *testing.T, text string) *domain.Spec {
	t.Helper()
	spec, err := dsl.Parse(text)
	require.NoError(t, err)
	return spec
}

func newTestRunner(t *testing.T, opts ...Option) (*Runner, *memory.TelemetryBuffer) {
	t.Helper()
	sink := memory.NewTelemetryBuffer()
	opts = append([]Option{WithTelemetrySink(sink), WithIDGenerator(&SequenceGenerator{})}, opts...)
	r, err := NewRunner(opts...)
	require.NoError(t, err)
	return r, sink
}

func TestRun_Demo(t *testing.T) {
	r, _ := newTestRunner(t)

	res, err := r.Run(context.Background(), mustParse(t, demoSpec), map[string]any{"text": "Hello"})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, domain.Trace{
		{ID: "s1", Kind: domain.KindPrompt, Result: domain.Result{"text": "[FAKE_PROVIDER ECHO]\nEcho: Hello"}},
	}, res.Trace)
	require.Len(t, res.Telemetry, 1)
	assert.Equal(t, domain.TagFake, res.Telemetry[0].Provider)
}

func TestRun_DemoMissingInput(t *testing.T) {
	r, sink := newTestRunner(t)

	res, err := r.Run(context.Background(), mustParse(t, demoSpec), map[string]any{})
	assert.Nil(t, res)

	var missing *domain.MissingInputKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "text", missing.Key)
	assert.Equal(t, domain.ClassClient, domain.Classify(err))
	assert.Zero(t, sink.Len())
}

func TestRun_EmptySteps(t *testing.T) {
	r, sink := newTestRunner(t)
	require.NoError(t, sink.Record(context.Background(), domain.Event{Provider: "earlier"}))

	res, err := r.Run(context.Background(), mustParse(t, "name: empty\nsteps: []\n"), map[string]any{"x": 1})
	require.NoError(t, err)
	assert.NotNil(t, res.Trace)
	assert.Empty(t, res.Trace)
	require.Len(t, res.Telemetry, 1, "snapshot includes events from before the run")
	assert.Equal(t, "earlier", res.Telemetry[0].Provider)
}

func TestRun_ChainThreadsContext(t *testing.T) {
	r, sink := newTestRunner(t)

	inputs := map[string]any{"ticket": "T-1", "priority": "high"}
	res, err := r.Run(context.Background(), mustParse(t, triageSpec), inputs)
	require.NoError(t, err)

	require.Len(t, res.Trace, 4)
	ids := make([]string, 0, len(res.Trace))
	for _, e := range res.Trace {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"summarize", "lookup", "route", "reply"}, ids)
	assert.Equal(t, "Tool crm executed with map[account:42]", res.Trace[1].Result[domain.ResultToolOutput])
	assert.Equal(t, "high", res.Trace[2].Result[domain.ResultBranch])
	assert.Equal(t,
		"[FAKE_PROVIDER ECHO]\nReply to T-1 using [FAKE_PROVIDER ECHO]\nSummarize: T-1",
		res.Trace[3].Result[domain.ResultText],
	)

	assert.Len(t, inputs, 2, "caller inputs are not mutated")
	assert.Equal(t, 3, sink.Len(), "two prompts and one tool record telemetry")
	for _, ev := range res.Telemetry {
		assert.Equal(t, res.RunID, ev.RunID)
	}
}

func TestRun_Idempotent(t *testing.T) {
	r, _ := newTestRunner(t)
	spec := mustParse(t, triageSpec)
	inputs := map[string]any{"ticket": "T-1"}

	first, err := r.Run(context.Background(), spec, inputs)
	require.NoError(t, err)
	second, err := r.Run(context.Background(), spec, inputs)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Len(t, second.Telemetry, 6)
}

func TestRun_UnknownNext(t *testing.T) {
	r, _ := newTestRunner(t)
	spec := mustParse(t, `
name: dangling
steps:
  - id: a
    type: decision
    next: ghost
`)

	_, err := r.Run(context.Background(), spec, nil)
	var execErr *domain.ExecutionError
	require.ErrorAs(t, err, &execErr)
	var unknown *domain.UnknownStepIDError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.ID)
	assert.Equal(t, "a", unknown.From)
	assert.Equal(t, domain.ClassServer, domain.Classify(err))
}

const loopSpec = `
name: loop
steps:
  - id: a
    type: tool
    next: b
  - id: b
    type: decision
    next: a
`

func TestRun_CycleDetected(t *testing.T) {
	r, sink := newTestRunner(t)

	_, err := r.Run(context.Background(), mustParse(t, loopSpec), nil)
	var cycle *domain.CycleDetectedError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, "a", cycle.StepID)
	assert.Equal(t, 2, cycle.Steps)
	assert.Equal(t, 1, sink.Len())
}

func TestRun_LoopLimit(t *testing.T) {
	r, sink := newTestRunner(t, WithLoopLimit(5))

	_, err := r.Run(context.Background(), mustParse(t, loopSpec), nil)
	var cycle *domain.CycleDetectedError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, 5, cycle.Steps)
	assert.Equal(t, 3, sink.Len(), "tool step ran three times within the limit")
}

func TestRun_ExecutionErrorWrapsCause(t *testing.T) {
	r, _ := newTestRunner(t, WithProviderConfig(provider.Config{}))

	_, err := r.Run(context.Background(), mustParse(t, demoSpec), map[string]any{"text": "x"})
	var execErr *domain.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "s1", execErr.StepID)
	assert.ErrorIs(t, err, domain.ErrNoProviderConfigured)
}

func TestRun_Cancelled(t *testing.T) {
	r, sink := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, mustParse(t, demoSpec), map[string]any{"text": "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sink.Len())
}

func TestRun_CancelledDuringLastPrompt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := provider.Func{
		ProviderName: "openai",
		Fn: func(ctx context.Context, _, _, _ string) (string, error) {
			cancel()
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	r, _ := newTestRunner(t,
		WithProviderConfig(provider.Config{Credential: "k", Fallback: true}),
		WithProvider(p),
	)

	res, err := r.Run(ctx, mustParse(t, demoSpec), map[string]any{"text": "hi"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	var execErr *domain.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "s1", execErr.StepID)
}

func TestRun_Hooks(t *testing.T) {
	var starts, ends []string
	var lastErr error
	hooks := domain.StepHooks{
		OnStepStart: func(_ context.Context, ev *domain.StepEvent) {
			starts = append(starts, ev.StepID)
		},
		OnStepEnd: func(_ context.Context, ev *domain.StepEvent) {
			ends = append(ends, ev.StepID)
			lastErr = ev.Err
		},
	}
	r, _ := newTestRunner(t, WithStepHooks(hooks))

	_, err := r.Run(context.Background(), mustParse(t, triageSpec), map[string]any{"ticket": "T"})
	require.NoError(t, err)
	assert.Equal(t, []string{"summarize", "lookup", "route", "reply"}, starts)
	assert.Equal(t, starts, ends)
	assert.NoError(t, lastErr)

	starts, ends = nil, nil
	_, err = r.Run(context.Background(), mustParse(t, demoSpec), nil)
	require.Error(t, err)
	assert.Equal(t, []string{"s1"}, ends)
	assert.Error(t, lastErr)
}

func TestRun_SinkDumpFailure(t *testing.T) {
	r, err := NewRunner(WithTelemetrySink(failingSink{}))
	require.NoError(t, err)

	res, err := r.Run(context.Background(), mustParse(t, demoSpec), map[string]any{"text": "x"})
	require.NoError(t, err)
	assert.Len(t, res.Trace, 1)
	assert.NotNil(t, res.Telemetry)
	assert.Empty(t, res.Telemetry)
}

func TestRun_Concurrent(t *testing.T) {
	r, sink := newTestRunner(t)
	spec := mustParse(t, demoSpec)

	const runs = 16
	var wg sync.WaitGroup
	errs := make(chan error, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Run(context.Background(), spec, map[string]any{"text": "Hello"})
			if err != nil {
				errs <- err
				return
			}
			if got := res.Trace[0].Result[domain.ResultText]; got != "[FAKE_PROVIDER ECHO]\nEcho: Hello" {
				errs <- errors.New("unexpected result")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, runs, sink.Len())
}

func TestRun_GoldenTrace(t *testing.T) {
	r, _ := newTestRunner(t)

	res, err := r.Run(context.Background(), mustParse(t, triageSpec), map[string]any{
		"ticket":   "T-1",
		"priority": "high",
	})
	require.NoError(t, err)

	data, err := json.MarshalIndent(res.Trace, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "triage_trace", data)
}
