package rules

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// Evaluator applies enabled rules of one category to a candidate file.
type Evaluator struct {
	rules    ports.RuleSource
	hasher   ports.FileHasher
	behavior ports.BehaviorAnalyzer
	patterns *PatternCache
	recorder ports.TriggerRecorder
	now      func() time.Time
}

// NewEvaluator creates an evaluator. hasher and behavior may be nil, in which
// case hash and behaviour criteria never match.
func NewEvaluator(rules ports.RuleSource, hasher ports.FileHasher, behavior ports.BehaviorAnalyzer) *Evaluator {
	return &Evaluator{
		rules:    rules,
		hasher:   hasher,
		behavior: behavior,
		patterns: NewPatternCache(256),
		now:      time.Now,
	}
}

// SetTriggerRecorder registers the sink for trigger statistics.
func (e *Evaluator) SetTriggerRecorder(r ports.TriggerRecorder) {
	e.recorder = r
}

// evaluation carries per-call state so each digest is computed once.
type evaluation struct {
	path   string
	base   string
	digest map[string]string
}

// Evaluate returns every enabled rule of the category that matches the file.
// Matching rules have their trigger statistics updated.
func (e *Evaluator) Evaluate(ctx context.Context, path string, category domain.RuleCategory) []domain.SecurityRule {
	candidates := e.rules.GetByCategory(category)
	if len(candidates) == 0 {
		return nil
	}

	ev := &evaluation{
		path:   path,
		base:   filepath.Base(path),
		digest: make(map[string]string),
	}

	var matched []domain.SecurityRule
	for _, rule := range candidates {
		if ctx.Err() != nil {
			break
		}
		if !rule.Enabled || !e.matches(ctx, ev, &rule) {
			continue
		}

		now := e.now().UTC()
		if stat, ok := e.rules.RecordTrigger(rule.Sid, now); ok {
			rule.TriggerCount = stat.TriggerCount
			rule.LastTriggered = &now
			if e.recorder != nil {
				e.recorder.Record(stat)
			}
		}
		slog.Debug("Rule triggered", "sid", rule.Sid, "path", path)
		matched = append(matched, rule)
	}
	return matched
}

// matches reports whether ANY populated criterion of the rule matches.
func (e *Evaluator) matches(ctx context.Context, ev *evaluation, rule *domain.SecurityRule) bool {
	if rule.ContentPattern != "" && e.matchContent(ev.base, rule.ContentPattern) {
		return true
	}
	if rule.HashSpec != "" && e.matchHash(ctx, ev, rule) {
		return true
	}
	if rule.BehaviorTags != "" && e.matchBehavior(ctx, ev.path, rule) {
		return true
	}
	return false
}

func (e *Evaluator) matchContent(base, pattern string) bool {
	if IsGlob(pattern) {
		return e.patterns.Compile(pattern).MatchString(base)
	}
	return strings.Contains(strings.ToLower(base), strings.ToLower(pattern))
}

func (e *Evaluator) matchHash(ctx context.Context, ev *evaluation, rule *domain.SecurityRule) bool {
	algo, want, ok := rule.HashAlgorithm()
	if !ok || e.hasher == nil {
		return false
	}

	got, cached := ev.digest[algo]
	if !cached {
		var err error
		got, err = e.hasher.HashFile(ctx, ev.path, algo)
		if err != nil {
			slog.Debug("Hash criterion skipped", "sid", rule.Sid, "algorithm", algo, "error", err)
			got = ""
		}
		ev.digest[algo] = got
	}
	return got != "" && strings.EqualFold(got, want)
}

func (e *Evaluator) matchBehavior(ctx context.Context, path string, rule *domain.SecurityRule) bool {
	if e.behavior == nil {
		return false
	}
	for _, tag := range rule.Tags() {
		if e.behavior.HasBehavior(ctx, path, tag) {
			return true
		}
	}
	return false
}

var _ ports.RuleEvaluator = (*Evaluator)(nil)
