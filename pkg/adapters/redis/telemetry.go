package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/idside/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultCapacity bounds the shared log when WithCapacity is not given.
const DefaultCapacity = 10000

// TelemetryStore implements ports.TelemetrySink on a Redis list,
// so several processes can share one telemetry log.
type TelemetryStore struct {
	client   *backend.Client
	prefix   string
	capacity int64
}

type Option func(*TelemetryStore)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *TelemetryStore) {
		s.prefix = prefix
	}
}

// WithCapacity bounds the number of retained events. 0 disables trimming.
func WithCapacity(n int64) Option {
	return func(s *TelemetryStore) {
		s.capacity = n
	}
}

// New creates a store connected to the given address.
func New(address, password string, db int, opts ...Option) *TelemetryStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromURL creates a store from a redis:// connection URL.
func NewFromURL(url string, opts ...Option) (*TelemetryStore, error) {
	parsed, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(parsed), opts...), nil
}

// NewFromClient creates a store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *TelemetryStore {
	store := &TelemetryStore{
		client:   client,
		prefix:   "idside:",
		capacity: DefaultCapacity,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *TelemetryStore) key() string {
	return s.prefix + "telemetry"
}

// Record appends the event and trims the list to capacity in one round trip.
func (s *TelemetryStore) Record(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key(), data)
	if s.capacity > 0 {
		pipe.LTrim(ctx, s.key(), -s.capacity, -1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record event in redis: %w", err)
	}
	return nil
}

// Dump reads the whole list, oldest first.
func (s *TelemetryStore) Dump(ctx context.Context) ([]domain.Event, error) {
	vals, err := s.client.LRange(ctx, s.key(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read telemetry from redis: %w", err)
	}

	events := make([]domain.Event, 0, len(vals))
	for i, val := range vals {
		var ev domain.Event
		if err := json.Unmarshal([]byte(val), &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Len returns the number of retained events.
func (s *TelemetryStore) Len(ctx context.Context) (int64, error) {
	return s.client.LLen(ctx, s.key()).Result()
}

// Close closes the redis client.
func (s *TelemetryStore) Close() error {
	return s.client.Close()
}
