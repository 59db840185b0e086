package domain_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/idside/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range []string{"prompt", "tool", "decision"} {
		got, err := domain.ParseKind(k)
		require.NoError(t, err)
		assert.Equal(t, domain.Kind(k), got)
	}

	_, err := domain.ParseKind("loop")
	var kindErr *domain.UnknownStepKindError
	require.ErrorAs(t, err, &kindErr)
	assert.Equal(t, "loop", kindErr.Kind)
}

func TestDecisionStep_Key(t *testing.T) {
	tests := []struct {
		name   string
		inputs map[string]any
		want   string
	}{
		{"absent", nil, ""},
		{"string", map[string]any{"key": "choice"}, "choice"},
		{"null", map[string]any{"key": nil}, ""},
		{"number", map[string]any{"key": 7}, ""},
		{"list", map[string]any{"key": []any{"a"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &domain.DecisionStep{ID: "d", Inputs: tt.inputs}
			assert.Equal(t, tt.want, s.Key())
		})
	}
}

func TestSpec_EntryAndIndex(t *testing.T) {
	var empty *domain.Spec
	assert.Equal(t, "", empty.Entry())

	spec := &domain.Spec{
		Name: "demo",
		Steps: []domain.Step{
			&domain.PromptStep{ID: "s1", Next: "s2"},
			&domain.ToolStep{ID: "s2"},
		},
	}
	assert.Equal(t, "s1", spec.Entry())

	idx := spec.Index()
	require.Len(t, idx, 2)
	assert.Equal(t, domain.KindTool, idx["s2"].Kind())
	assert.Equal(t, "s2", idx["s1"].NextID())
}

func TestEvent_JSONIsFlat(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := domain.Event{
		Timestamp: ts,
		Provider:  domain.TagTool,
		RunID:     "run-1",
		Metrics:   map[string]any{"name": "search", "calls": 1},
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "2026-01-02T03:04:05Z", flat["timestamp"])
	assert.Equal(t, "tool", flat["provider"])
	assert.Equal(t, "run-1", flat["run_id"])
	assert.Equal(t, "search", flat["name"])

	var back domain.Event
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, ts.Equal(back.Timestamp))
	assert.Equal(t, "tool", back.Provider)
	assert.Equal(t, "run-1", back.RunID)
	assert.Equal(t, "search", back.Metrics["name"])
	assert.EqualValues(t, 1, back.Metrics["calls"])
}

func TestEvent_ReservedKeysWin(t *testing.T) {
	ev := domain.Event{Provider: "fake", Metrics: map[string]any{"provider": "spoofed"}}
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"provider":"fake"`)
	assert.NotContains(t, string(data), "run_id")
}

func TestClassify(t *testing.T) {
	missing := &domain.MissingInputKeyError{Key: "text"}
	tests := []struct {
		name string
		err  error
		want domain.ErrorClass
	}{
		{"nil", nil, domain.ClassNone},
		{"parse", &domain.SpecParseError{Cause: errors.New("bad yaml")}, domain.ClassParse},
		{"missing", missing, domain.ClassClient},
		{"wrapped missing", fmt.Errorf("run: %w", missing), domain.ClassClient},
		{"unknown id", &domain.ExecutionError{Err: &domain.UnknownStepIDError{ID: "x"}}, domain.ClassServer},
		{"no provider", &domain.ExecutionError{Err: domain.ErrNoProviderConfigured}, domain.ClassServer},
		{"plain", errors.New("boom"), domain.ClassServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.Classify(tt.err))
		})
	}
}

func TestExecutionError_Unwraps(t *testing.T) {
	cause := &domain.UnknownStepIDError{ID: "ghost", From: "s1"}
	err := &domain.ExecutionError{StepID: "s1", Err: cause}

	var target *domain.UnknownStepIDError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "ghost", target.ID)
	assert.Contains(t, err.Error(), `referenced by "s1"`)
}
