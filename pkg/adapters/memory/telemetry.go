package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/idside/pkg/domain"
)

// DefaultCapacity bounds a TelemetryBuffer created without WithCapacity.
const DefaultCapacity = 1024

// TelemetryBuffer implements ports.TelemetrySink as a bounded in-memory ring.
// Once full, the oldest event is evicted. Safe for concurrent use.
type TelemetryBuffer struct {
	mu       sync.RWMutex
	events   []domain.Event // ring storage, len == capacity once full
	start    int            // index of the oldest event
	size     int
	capacity int
	maxAge   time.Duration
	now      func() time.Time
	dropped  uint64
}

// Option configures a TelemetryBuffer.
type Option func(*TelemetryBuffer)

// WithCapacity bounds the number of retained events. Values < 1 are ignored.
func WithCapacity(n int) Option {
	return func(b *TelemetryBuffer) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// WithMaxAge drops events older than d (by event timestamp) on every access.
func WithMaxAge(d time.Duration) Option {
	return func(b *TelemetryBuffer) {
		b.maxAge = d
	}
}

// WithClock sets the time source used for age-based retention.
func WithClock(now func() time.Time) Option {
	return func(b *TelemetryBuffer) {
		if now != nil {
			b.now = now
		}
	}
}

// NewTelemetryBuffer creates an empty buffer.
func NewTelemetryBuffer(opts ...Option) *TelemetryBuffer {
	b := &TelemetryBuffer{
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.events = make([]domain.Event, 0, min(b.capacity, 64))
	return b
}

// Record appends an event, evicting the oldest one when the buffer is full.
func (b *TelemetryBuffer) Record(ctx context.Context, event domain.Event) error {
	event = cloneEvent(event)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneLocked()
	if b.size < b.capacity {
		if len(b.events) < b.capacity {
			b.events = append(b.events, event)
		} else {
			b.events[(b.start+b.size)%b.capacity] = event
		}
		b.size++
		return nil
	}

	b.events[b.start] = event
	b.start = (b.start + 1) % b.capacity
	b.dropped++
	return nil
}

// Dump returns the retained events, oldest first.
func (b *TelemetryBuffer) Dump(ctx context.Context) ([]domain.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneLocked()
	out := make([]domain.Event, 0, b.size)
	for i := 0; i < b.size; i++ {
		out = append(out, cloneEvent(b.events[(b.start+i)%len(b.events)]))
	}
	return out, nil
}

// Len returns the number of retained events.
func (b *TelemetryBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Dropped returns how many events were evicted by capacity or age.
func (b *TelemetryBuffer) Dropped() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// pruneLocked evicts expired events from the head. Callers hold b.mu.
func (b *TelemetryBuffer) pruneLocked() {
	if b.maxAge <= 0 || b.size == 0 {
		return
	}
	cutoff := b.now().Add(-b.maxAge)
	for b.size > 0 && b.events[b.start].Timestamp.Before(cutoff) {
		b.events[b.start] = domain.Event{}
		b.start = (b.start + 1) % len(b.events)
		b.size--
		b.dropped++
	}
	if b.size == 0 {
		b.start = 0
		b.events = b.events[:0]
	}
}

func cloneEvent(e domain.Event) domain.Event {
	if e.Metrics != nil {
		m := make(map[string]any, len(e.Metrics))
		for k, v := range e.Metrics {
			m[k] = v
		}
		e.Metrics = m
	}
	return e
}

var (
	globalOnce   sync.Once
	globalBuffer *TelemetryBuffer
)

// Global returns a process-wide buffer for hosts that want a single shared log.
// The runtime never uses it implicitly; pass it explicitly as the sink.
func Global() *TelemetryBuffer {
	globalOnce.Do(func() {
		globalBuffer = NewTelemetryBuffer()
	})
	return globalBuffer
}
