package ports

import (
	"context"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
)

// EventSink receives security audit records from state-changing operations.
type EventSink interface {
	// Record appends an event. Implementations never fail the caller.
	Record(ctx context.Context, event domain.SecurityEvent)
}

// EventRepository handles the low-level persistence of security events.
type EventRepository interface {
	// SaveEvent persists a single event.
	SaveEvent(ctx context.Context, event domain.SecurityEvent) error

	// ListEvents retrieves the most recent events, newest first.
	ListEvents(ctx context.Context, limit int) ([]domain.SecurityEvent, error)
}
