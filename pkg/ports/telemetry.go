package ports

import (
	"context"

	"github.com/aretw0/idside/pkg/domain"
)

// TelemetrySink is the append-only log of provider and tool activity.
// Implementations must be safe for concurrent use: every Record is atomic,
// and Dump never returns a partially written or duplicated event.
type TelemetrySink interface {
	// Record appends one event.
	Record(ctx context.Context, event domain.Event) error

	// Dump returns a copy of the retained events in append order.
	Dump(ctx context.Context) ([]domain.Event, error)
}
