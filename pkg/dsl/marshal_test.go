package dsl_test

import (
	"testing"

	"github.com/aretw0/idside/pkg/domain"
	"github.com/aretw0/idside/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_RoundTrip(t *testing.T) {
	specs := map[string]*domain.Spec{
		"empty": {Name: "empty", Steps: []domain.Step{}},
		"demo": {
			Name: "demo",
			Steps: []domain.Step{
				&domain.PromptStep{ID: "s1", Template: "Echo: {text}"},
			},
		},
		"full": {
			Name:        "full",
			Description: "every field populated",
			Steps: []domain.Step{
				&domain.PromptStep{ID: "ask", Model: "gpt-4o", Template: "Q: {q}\nA:", Inputs: map[string]any{"temperature": 0.2}, Next: "call"},
				&domain.ToolStep{ID: "call", Tool: "search", Inputs: map[string]any{"limit": 3, "nested": map[string]any{"k": "v"}}, Next: "pick"},
				&domain.DecisionStep{ID: "pick", Inputs: map[string]any{"key": "ask"}},
			},
		},
	}

	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			data, err := dsl.Marshal(spec)
			require.NoError(t, err)

			back, err := dsl.Parse(string(data))
			require.NoError(t, err, "canonical output must parse:\n%s", data)
			assert.Equal(t, spec, back)

			again, err := dsl.Marshal(back)
			require.NoError(t, err)
			assert.Equal(t, string(data), string(again), "canonical output must be stable")
		})
	}
}

func TestMarshal_OmitsAbsentFields(t *testing.T) {
	data, err := dsl.Marshal(&domain.Spec{
		Name:  "demo",
		Steps: []domain.Step{&domain.DecisionStep{ID: "d"}},
	})
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "name: demo")
	assert.Contains(t, out, "type: decision")
	assert.NotContains(t, out, "next")
	assert.NotContains(t, out, "description")
	assert.NotContains(t, out, "inputs")
}

func TestMarshal_Nil(t *testing.T) {
	_, err := dsl.Marshal(nil)
	assert.Error(t, err)
}
