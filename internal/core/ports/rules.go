package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
)

// RuleSource exposes rule snapshots and trigger bookkeeping to the evaluator.
type RuleSource interface {
	GetByCategory(category domain.RuleCategory) []domain.SecurityRule
	// RecordTrigger bumps the trigger counter. ok is false if the sid vanished.
	RecordTrigger(sid int, at time.Time) (stat domain.RuleTriggerStat, ok bool)
}

// RuleEvaluator applies enabled rules of one category to a file.
type RuleEvaluator interface {
	Evaluate(ctx context.Context, path string, category domain.RuleCategory) []domain.SecurityRule
}

// RuleLoader hydrates the rule collection before monitoring starts.
type RuleLoader interface {
	Load(ctx context.Context) error
}

// BehaviorAnalyzer answers whether a file exhibits a named behaviour tag.
type BehaviorAnalyzer interface {
	HasBehavior(ctx context.Context, path, tag string) bool
}

// TriggerRecorder accepts trigger statistics for deferred persistence.
type TriggerRecorder interface {
	Record(stat domain.RuleTriggerStat)
}
