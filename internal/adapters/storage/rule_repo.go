package storage

import (
	"context"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"gorm.io/gorm"
)

// ListRules returns every stored rule ordered by sid.
func (a *SQLiteAdapter) ListRules(ctx context.Context) ([]domain.SecurityRule, error) {
	var models []RuleModel
	if err := a.ctxDB(ctx).Order("sid").Find(&models).Error; err != nil {
		return nil, err
	}

	rules := make([]domain.SecurityRule, len(models))
	for i, m := range models {
		rules[i] = ruleToDomain(m)
	}
	return rules, nil
}

// SaveRule creates or replaces a rule keyed by sid.
func (a *SQLiteAdapter) SaveRule(ctx context.Context, rule domain.SecurityRule) error {
	model := ruleToModel(rule)
	return a.ctxDB(ctx).Save(&model).Error
}

// DeleteRule removes a rule by sid. Deleting a missing rule is not an error.
func (a *SQLiteAdapter) DeleteRule(ctx context.Context, sid int) error {
	return a.ctxDB(ctx).Delete(&RuleModel{}, "sid = ?", sid).Error
}

// SaveTriggerStats writes trigger counters in a single transaction. A stat
// older than the stored counter is ignored.
func (a *SQLiteAdapter) SaveTriggerStats(ctx context.Context, stats []domain.RuleTriggerStat) error {
	if len(stats) == 0 {
		return nil
	}

	return a.ctxDB(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range stats {
			last := s.LastTriggered
			err := tx.Model(&RuleModel{}).Where("sid = ? AND trigger_count < ?", s.Sid, s.TriggerCount).Updates(map[string]any{
				"trigger_count":  s.TriggerCount,
				"last_triggered": &last,
			}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
