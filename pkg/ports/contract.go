package ports

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/idside/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTelemetrySinkContract runs a suite of tests to verify that a TelemetrySink implementation
// adheres to the defined interface contract. The sink must start empty and retain at least 200 events.
func RunTelemetrySinkContract(t *testing.T, sink TelemetrySink) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Starts Empty", func(t *testing.T) {
		events, err := sink.Dump(ctx)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("Record and Dump", func(t *testing.T) {
		before, err := sink.Dump(ctx)
		require.NoError(t, err)

		err = sink.Record(ctx, domain.Event{
			Timestamp: base,
			Provider:  domain.TagTool,
			RunID:     "contract-run",
			Metrics:   map[string]any{"name": "search", "calls": 1},
		})
		require.NoError(t, err, "Record should not return error")
		err = sink.Record(ctx, domain.Event{
			Timestamp: base.Add(time.Second),
			Provider:  domain.TagFake,
			Metrics:   map[string]any{"latency_ms": 5},
		})
		require.NoError(t, err)

		events, err := sink.Dump(ctx)
		require.NoError(t, err)
		require.Len(t, events, len(before)+2)

		first := events[len(before)]
		assert.Equal(t, domain.TagTool, first.Provider)
		assert.Equal(t, "contract-run", first.RunID)
		assert.True(t, base.Equal(first.Timestamp), "timestamp should survive storage")
		assert.Equal(t, "search", first.Metrics["name"])
		// JSON-backed sinks turn integers into float64.
		assert.EqualValues(t, 1, toFloat(first.Metrics["calls"]))

		second := events[len(before)+1]
		assert.Equal(t, domain.TagFake, second.Provider)
	})

	t.Run("Dump Is A Copy", func(t *testing.T) {
		events, err := sink.Dump(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, events)

		events[0].Provider = "mutated"
		if events[0].Metrics != nil {
			events[0].Metrics["injected"] = true
		}

		again, err := sink.Dump(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again[0].Provider)
		_, injected := again[0].Metrics["injected"]
		assert.False(t, injected, "Dump must not expose internal metric maps")
	})

	t.Run("Concurrent Record", func(t *testing.T) {
		before, err := sink.Dump(ctx)
		require.NoError(t, err)

		const writers, perWriter = 8, 20
		var wg sync.WaitGroup
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWriter; i++ {
					_ = sink.Record(ctx, domain.Event{
						Timestamp: base,
						Provider:  domain.TagTool,
						RunID:     fmt.Sprintf("w%d-%d", w, i),
					})
				}
			}(w)
		}
		wg.Wait()

		events, err := sink.Dump(ctx)
		require.NoError(t, err)
		require.Len(t, events, len(before)+writers*perWriter, "no event may be lost")

		seen := make(map[string]bool)
		for _, ev := range events[len(before):] {
			assert.False(t, seen[ev.RunID], "duplicated event %s", ev.RunID)
			seen[ev.RunID] = true
		}
	})
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return -1
	}
}
