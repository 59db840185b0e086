package metrics

import (
	"context"

	"github.com/aretw0/idside/pkg/domain"
	"github.com/aretw0/idside/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Sink decorates a ports.TelemetrySink with Prometheus counters.
// Every recorded event increments idside_telemetry_events_total{provider};
// events carrying a numeric latency_ms metric are observed in
// idside_provider_latency_seconds{provider}.
type Sink struct {
	next    ports.TelemetrySink
	events  *prometheus.CounterVec
	latency *prometheus.HistogramVec
	errors  prometheus.Counter
}

// NewSink creates the collectors and registers them on reg.
// A nil registerer leaves the collectors unregistered.
func NewSink(next ports.TelemetrySink, reg prometheus.Registerer) (*Sink, error) {
	s := &Sink{
		next: next,
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idside_telemetry_events_total",
				Help: "Total number of telemetry events recorded, by provider tag",
			},
			[]string{"provider"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "idside_provider_latency_seconds",
				Help:    "Latency reported by provider and tool events",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"provider"},
		),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "idside_telemetry_record_errors_total",
			Help: "Total number of events the underlying sink failed to record",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{s.events, s.latency, s.errors} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// Record counts the event and forwards it.
func (s *Sink) Record(ctx context.Context, event domain.Event) error {
	s.events.WithLabelValues(event.Provider).Inc()
	if ms, ok := latencyMillis(event); ok {
		s.latency.WithLabelValues(event.Provider).Observe(ms / 1000)
	}

	if err := s.next.Record(ctx, event); err != nil {
		s.errors.Inc()
		return err
	}
	return nil
}

// Dump forwards to the wrapped sink.
func (s *Sink) Dump(ctx context.Context) ([]domain.Event, error) {
	return s.next.Dump(ctx)
}

// Collectors exposes the collectors for custom registries or tests.
func (s *Sink) Collectors() (events *prometheus.CounterVec, latency *prometheus.HistogramVec) {
	return s.events, s.latency
}

func latencyMillis(event domain.Event) (float64, bool) {
	v, ok := event.Metrics["latency_ms"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
