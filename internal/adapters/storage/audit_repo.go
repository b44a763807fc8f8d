package storage

import (
	"context"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
)

// SaveEvent appends a security event.
func (a *SQLiteAdapter) SaveEvent(ctx context.Context, event domain.SecurityEvent) error {
	model := eventToModel(event)
	model.ID = 0
	return a.ctxDB(ctx).Create(&model).Error
}

// ListEvents returns the most recent events, newest first.
func (a *SQLiteAdapter) ListEvents(ctx context.Context, limit int) ([]domain.SecurityEvent, error) {
	var models []SecurityEventModel
	if err := a.ctxDB(ctx).Order("timestamp desc, id desc").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	events := make([]domain.SecurityEvent, len(models))
	for i, m := range models {
		events[i] = eventToDomain(m)
	}
	return events, nil
}
