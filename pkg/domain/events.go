package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Reserved keys of the flat event encoding. Metrics using them are shadowed.
const (
	eventKeyTimestamp = "timestamp"
	eventKeyProvider  = "provider"
	eventKeyRunID     = "run_id"
)

// Event is a timestamped record of provider or tool activity.
type Event struct {
	Timestamp time.Time
	Provider  string
	RunID     string
	Metrics   map[string]any
}

// MarshalJSON encodes the event as a flat object: {timestamp, provider, run_id, ...metrics}.
func (e Event) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(e.Metrics)+3)
	for k, v := range e.Metrics {
		flat[k] = v
	}
	flat[eventKeyTimestamp] = e.Timestamp.UTC().Format(time.RFC3339Nano)
	flat[eventKeyProvider] = e.Provider
	if e.RunID != "" {
		flat[eventKeyRunID] = e.RunID
	} else {
		delete(flat, eventKeyRunID)
	}
	return json.Marshal(flat)
}

// UnmarshalJSON decodes the flat encoding produced by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	var out Event
	if raw, ok := flat[eventKeyTimestamp]; ok {
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("event timestamp: expected string, got %T", raw)
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("event timestamp: %w", err)
		}
		out.Timestamp = ts
		delete(flat, eventKeyTimestamp)
	}
	if raw, ok := flat[eventKeyProvider]; ok {
		out.Provider, _ = raw.(string)
		delete(flat, eventKeyProvider)
	}
	if raw, ok := flat[eventKeyRunID]; ok {
		out.RunID, _ = raw.(string)
		delete(flat, eventKeyRunID)
	}
	if len(flat) > 0 {
		out.Metrics = flat
	}
	*e = out
	return nil
}

// Metric returns a metric value by name.
func (e Event) Metric(name string) (any, bool) {
	v, ok := e.Metrics[name]
	return v, ok
}

// StepEvent describes one step boundary for lifecycle hooks.
type StepEvent struct {
	RunID    string
	StepID   string
	Kind     Kind
	Result   Result        // Set on OnStepEnd when the step succeeded.
	Err      error         // Set on OnStepEnd when the step failed.
	Duration time.Duration // Set on OnStepEnd.
}

// StepHooks defines optional callbacks for runner observability.
type StepHooks struct {
	OnStepStart func(context.Context, *StepEvent)
	OnStepEnd   func(context.Context, *StepEvent)
}
