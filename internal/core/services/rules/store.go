package rules

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// Store owns the mutable rule collection. All access goes through one mutex;
// readers receive copies so evaluation never holds the lock.
type Store struct {
	rules    map[int]*domain.SecurityRule
	repo     ports.RuleRepository
	seedFile string
	now      func() time.Time
	mu       sync.Mutex
}

// NewStore creates an empty store. repo may be nil for a memory-only store.
func NewStore(repo ports.RuleRepository) *Store {
	return &Store{
		rules: make(map[int]*domain.SecurityRule),
		repo:  repo,
		now:   time.Now,
	}
}

// SetSeedFile configures the rule file used to seed an empty repository.
func (s *Store) SetSeedFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seedFile = path
}

// Load hydrates the collection from the repository, seeding it when empty.
func (s *Store) Load(ctx context.Context) error {
	var stored []domain.SecurityRule
	if s.repo != nil {
		var err error
		stored, err = s.repo.ListRules(ctx)
		if err != nil {
			return fmt.Errorf("%w: load rules: %v", domain.ErrStorage, err)
		}
	} else if s.Count() > 0 {
		return nil
	}

	if len(stored) == 0 {
		seeded, err := s.seedRules()
		if err != nil {
			return err
		}
		for _, r := range seeded {
			s.persist(ctx, r)
		}
		stored = seeded
	}

	fresh := make(map[int]*domain.SecurityRule, len(stored))
	for _, r := range stored {
		r := r.Clone()
		fresh[r.Sid] = &r
	}

	s.mu.Lock()
	for sid, r := range fresh {
		if cur, ok := s.rules[sid]; ok {
			keepTriggerStats(r, cur)
		}
	}
	s.rules = fresh
	s.mu.Unlock()

	slog.Info("Rules loaded", "count", len(fresh))
	return nil
}

// keepTriggerStats carries in-memory counters over a reload. Stats reach the
// repository asynchronously, so the stored row may lag behind.
func keepTriggerStats(dst, cur *domain.SecurityRule) {
	if cur.TriggerCount > dst.TriggerCount {
		dst.TriggerCount = cur.TriggerCount
	}
	if cur.LastTriggered != nil && (dst.LastTriggered == nil || cur.LastTriggered.After(*dst.LastTriggered)) {
		t := *cur.LastTriggered
		dst.LastTriggered = &t
	}
}

func (s *Store) seedRules() ([]domain.SecurityRule, error) {
	s.mu.Lock()
	seedFile := s.seedFile
	s.mu.Unlock()

	texts := DefaultRuleTexts()
	if seedFile != "" {
		var err error
		texts, err = ReadRuleFile(seedFile)
		if err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	seen := make(map[int]bool)
	var out []domain.SecurityRule
	for _, t := range texts {
		r, err := Parse(t)
		if err != nil {
			slog.Warn("Skipping invalid seed rule", "error", err)
			continue
		}
		if seen[r.Sid] {
			slog.Warn("Skipping duplicate seed rule", "sid", r.Sid)
			continue
		}
		seen[r.Sid] = true
		r.Created = now
		out = append(out, r)
	}
	return out, nil
}

// ReadRuleFile reads one rule per line, skipping blanks and `#` comments.
func ReadRuleFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rule file: %w", err)
	}
	defer f.Close()

	var texts []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		texts = append(texts, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	return texts, nil
}

// Add inserts a new rule. It fails with domain.ErrDuplicateSid when the sid exists.
func (s *Store) Add(ctx context.Context, rule domain.SecurityRule) (domain.SecurityRule, error) {
	if err := rule.Validate(); err != nil {
		return domain.SecurityRule{}, err
	}
	r := rule.Clone()
	if r.Revision < 1 {
		r.Revision = 1
	}
	if r.Created.IsZero() {
		r.Created = s.now().UTC()
	}
	if r.Text == "" {
		r.Text = Format(r)
	}

	s.mu.Lock()
	if _, exists := s.rules[r.Sid]; exists {
		s.mu.Unlock()
		return domain.SecurityRule{}, fmt.Errorf("%w: sid %d", domain.ErrDuplicateSid, r.Sid)
	}
	stored := r
	s.rules[r.Sid] = &stored
	s.mu.Unlock()

	s.persist(ctx, r)
	return r, nil
}

// AddText parses rule text and inserts the result.
func (s *Store) AddText(ctx context.Context, text string) (domain.SecurityRule, error) {
	r, err := Parse(text)
	if err != nil {
		return domain.SecurityRule{}, err
	}
	return s.Add(ctx, r)
}

// Update replaces a rule's fields and increments its revision. Sid, creation
// time and trigger statistics are kept.
func (s *Store) Update(ctx context.Context, rule domain.SecurityRule) (domain.SecurityRule, error) {
	if err := rule.Validate(); err != nil {
		return domain.SecurityRule{}, err
	}

	s.mu.Lock()
	existing, ok := s.rules[rule.Sid]
	if !ok {
		s.mu.Unlock()
		return domain.SecurityRule{}, fmt.Errorf("%w: rule sid %d", domain.ErrNotFound, rule.Sid)
	}
	next := rule.Clone()
	next.Revision = existing.Revision + 1
	next.Created = existing.Created
	next.TriggerCount = existing.TriggerCount
	next.LastTriggered = existing.Clone().LastTriggered
	next.Text = Format(next)
	s.rules[next.Sid] = &next
	updated := next.Clone()
	s.mu.Unlock()

	s.persist(ctx, updated)
	return updated, nil
}

// Delete removes a rule by sid.
func (s *Store) Delete(ctx context.Context, sid int) error {
	s.mu.Lock()
	if _, ok := s.rules[sid]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: rule sid %d", domain.ErrNotFound, sid)
	}
	delete(s.rules, sid)
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.DeleteRule(ctx, sid); err != nil {
			slog.Warn("Rule delete not persisted", "sid", sid, "error", err)
		}
	}
	return nil
}

// Toggle enables or disables a rule.
func (s *Store) Toggle(ctx context.Context, sid int, enabled bool) error {
	s.mu.Lock()
	r, ok := s.rules[sid]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: rule sid %d", domain.ErrNotFound, sid)
	}
	r.Enabled = enabled
	snapshot := r.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return nil
}

// GetAll returns a snapshot of every rule ordered by sid.
func (s *Store) GetAll() []domain.SecurityRule {
	return s.snapshot(func(*domain.SecurityRule) bool { return true })
}

// GetByCategory returns a snapshot of the rules in one category ordered by sid.
func (s *Store) GetByCategory(category domain.RuleCategory) []domain.SecurityRule {
	return s.snapshot(func(r *domain.SecurityRule) bool { return r.Category == category })
}

// GetBySid returns a copy of one rule.
func (s *Store) GetBySid(sid int) (domain.SecurityRule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[sid]
	if !ok {
		return domain.SecurityRule{}, false
	}
	return r.Clone(), true
}

// Count returns the number of rules.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rules)
}

// RecordTrigger increments the trigger counter and stamps the trigger time.
func (s *Store) RecordTrigger(sid int, at time.Time) (domain.RuleTriggerStat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[sid]
	if !ok {
		return domain.RuleTriggerStat{}, false
	}
	t := at
	r.TriggerCount++
	r.LastTriggered = &t
	return domain.RuleTriggerStat{Sid: sid, TriggerCount: r.TriggerCount, LastTriggered: at}, true
}

func (s *Store) snapshot(keep func(*domain.SecurityRule) bool) []domain.SecurityRule {
	s.mu.Lock()
	out := make([]domain.SecurityRule, 0, len(s.rules))
	for _, r := range s.rules {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Sid < out[j].Sid })
	return out
}

func (s *Store) persist(ctx context.Context, rule domain.SecurityRule) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveRule(ctx, rule); err != nil {
		slog.Warn("Rule change not persisted", "sid", rule.Sid, "error", err)
	}
}

var (
	_ ports.RuleSource = (*Store)(nil)
	_ ports.RuleLoader = (*Store)(nil)
)
