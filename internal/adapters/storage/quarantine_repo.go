package storage

import (
	"context"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
)

// SaveQuarantineItem records an isolated file.
func (a *SQLiteAdapter) SaveQuarantineItem(ctx context.Context, item domain.QuarantineItem) error {
	model := quarantineToModel(item)
	return a.ctxDB(ctx).Save(&model).Error
}

// ListQuarantineItems returns the quarantine log ordered by id.
func (a *SQLiteAdapter) ListQuarantineItems(ctx context.Context) ([]domain.QuarantineItem, error) {
	var models []QuarantineModel
	if err := a.ctxDB(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}

	items := make([]domain.QuarantineItem, len(models))
	for i, m := range models {
		items[i] = quarantineToDomain(m)
	}
	return items, nil
}

// DeleteQuarantineItem removes a record after restore or permanent deletion.
func (a *SQLiteAdapter) DeleteQuarantineItem(ctx context.Context, id int64) error {
	return a.ctxDB(ctx).Delete(&QuarantineModel{}, "id = ?", id).Error
}
