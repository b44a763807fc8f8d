package audit

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

const defaultBacklog = 500

// Journal is the security event sink. Every event is mirrored to slog and
// written to the repository; a bounded in-memory backlog serves reads when
// no repository is configured.
type Journal struct {
	repo    ports.EventRepository
	backlog []domain.SecurityEvent
	limit   int
	mu      sync.Mutex
}

// NewJournal creates a journal. repo may be nil.
func NewJournal(repo ports.EventRepository) *Journal {
	return &Journal{repo: repo, limit: defaultBacklog}
}

// Record appends an event. Persistence failures are logged, never returned.
func (j *Journal) Record(ctx context.Context, event domain.SecurityEvent) {
	slog.Log(ctx, levelFor(event.Severity), event.Message,
		"event", event.Type,
		"severity", event.Severity,
		"path", event.FilePath,
		"detail", event.Detail,
	)

	j.mu.Lock()
	j.backlog = append(j.backlog, event)
	if len(j.backlog) > j.limit {
		j.backlog = j.backlog[len(j.backlog)-j.limit:]
	}
	j.mu.Unlock()

	if j.repo == nil {
		return
	}
	if err := j.repo.SaveEvent(ctx, event); err != nil {
		slog.Warn("Security event not persisted", "event", event.Type, "error", err)
	}
}

// RecentEvents returns up to limit events, newest first.
func (j *Journal) RecentEvents(ctx context.Context, limit int) ([]domain.SecurityEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if j.repo != nil {
		return j.repo.ListEvents(ctx, limit)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	n := len(j.backlog)
	if limit > n {
		limit = n
	}
	out := make([]domain.SecurityEvent, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, j.backlog[i])
	}
	return out, nil
}

// Emit builds an event through the domain factory and records it on sink.
// A nil sink or an invalid event is ignored.
func Emit(ctx context.Context, sink ports.EventSink, eventType domain.EventType, severity domain.Severity, message, detail, path string) {
	if sink == nil {
		return
	}
	event, err := domain.NewSecurityEvent(eventType, severity, message, detail, path)
	if err != nil {
		slog.Debug("Dropping malformed security event", "event", eventType, "error", err)
		return
	}
	sink.Record(ctx, *event)
}

func levelFor(s domain.Severity) slog.Level {
	switch s {
	case domain.SeverityCritical, domain.SeverityHigh:
		return slog.LevelWarn
	case domain.SeverityMedium:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

var _ ports.EventSink = (*Journal)(nil)
