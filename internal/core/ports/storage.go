package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
)

// RuleRepository persists the rule collection.
type RuleRepository interface {
	// ListRules returns every stored rule.
	ListRules(ctx context.Context) ([]domain.SecurityRule, error)
	// SaveRule creates or replaces a rule keyed by sid.
	SaveRule(ctx context.Context, rule domain.SecurityRule) error
	// DeleteRule removes a rule by sid.
	DeleteRule(ctx context.Context, sid int) error
	// SaveTriggerStats writes trigger counters in one batch.
	SaveTriggerStats(ctx context.Context, stats []domain.RuleTriggerStat) error
}

// QuarantineRepository persists the quarantine log.
type QuarantineRepository interface {
	SaveQuarantineItem(ctx context.Context, item domain.QuarantineItem) error
	ListQuarantineItems(ctx context.Context) ([]domain.QuarantineItem, error)
	DeleteQuarantineItem(ctx context.Context, id int64) error
}

// SignatureRepository persists malware signatures and their update metadata.
type SignatureRepository interface {
	// FindByHash returns the signature whose md5, sha1 or sha256 equals hash, or nil.
	FindByHash(ctx context.Context, hash string) (*domain.MalwareSignature, error)
	// UpsertSignature inserts or updates a signature keyed by its hash triple.
	UpsertSignature(ctx context.Context, sig domain.MalwareSignature) error
	// UpsertSignatures writes a batch in one transaction and returns the number written.
	UpsertSignatures(ctx context.Context, sigs []domain.MalwareSignature) (int, error)
	Count(ctx context.Context) (int, error)
	GetLastUpdate(ctx context.Context) (time.Time, error)
	SetLastUpdate(ctx context.Context, t time.Time) error
	Close() error
}
