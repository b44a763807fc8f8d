package signature

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
	"github.com/lcalzada-xor/fsguard/internal/core/services/audit"
)

// Service is the signature store: normalised lookups over a repository plus
// feed-driven updates.
type Service struct {
	repo   ports.SignatureRepository
	feed   ports.SignatureFeed
	events ports.EventSink
	now    func() time.Time
}

// NewService creates the signature store. feed defaults to the baseline feed.
func NewService(repo ports.SignatureRepository, feed ports.SignatureFeed, events ports.EventSink) *Service {
	if feed == nil {
		feed = NewBaselineFeed()
	}
	return &Service{repo: repo, feed: feed, events: events, now: time.Now}
}

// Init seeds the store from the feed once when it is empty.
func (s *Service) Init(ctx context.Context) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("%w: count signatures: %v", domain.ErrStorage, err)
	}
	if count > 0 {
		slog.Info("Signature store ready", "signatures", count)
		return nil
	}

	if _, err := s.UpdateFromFeed(ctx); err != nil {
		return err
	}
	return nil
}

// CheckHash returns the signature matching hash in any populated field, or nil.
func (s *Service) CheckHash(ctx context.Context, hash string) (*domain.MalwareSignature, error) {
	h := domain.NormalizeHash(hash)
	if h == "" {
		return nil, nil
	}
	sig, err := s.repo.FindByHash(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return sig, nil
}

// CheckHashes looks up each candidate digest, strongest first.
func (s *Service) CheckHashes(ctx context.Context, hashes domain.FileHashes) (*domain.MalwareSignature, string, error) {
	for _, h := range hashes.Candidates() {
		sig, err := s.CheckHash(ctx, h)
		if err != nil {
			return nil, "", err
		}
		if sig != nil {
			return sig, h, nil
		}
	}
	return nil, "", nil
}

// AddSignature upserts a signature keyed by its hash triple.
func (s *Service) AddSignature(ctx context.Context, sig domain.MalwareSignature) error {
	sig.Normalize()
	if !sig.HasHash() {
		return domain.ErrSignatureNoHash
	}
	if err := s.repo.UpsertSignature(ctx, sig); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

// UpdateFromFeed pulls the feed into the store. It reports whether any
// signature was written.
func (s *Service) UpdateFromFeed(ctx context.Context) (bool, error) {
	sigs, err := s.feed.Fetch(ctx)
	if err != nil {
		audit.Emit(ctx, s.events, domain.EventSystemError, domain.SeverityMedium,
			"Signature update failed", fmt.Sprintf("feed %s: %v", s.feed.Name(), err), "")
		return false, fmt.Errorf("fetch feed %s: %w", s.feed.Name(), err)
	}

	written, err := s.repo.UpsertSignatures(ctx, sigs)
	if err != nil {
		audit.Emit(ctx, s.events, domain.EventSystemError, domain.SeverityMedium,
			"Signature update failed", err.Error(), "")
		return false, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	if err := s.repo.SetLastUpdate(ctx, s.now()); err != nil {
		slog.Warn("Signature update time not recorded", "error", err)
	}

	total, _ := s.repo.Count(ctx)
	slog.Info("Signature database updated", "feed", s.feed.Name(), "written", written, "total", total)
	audit.Emit(ctx, s.events, domain.EventDatabaseUpdated, domain.SeverityLow,
		"Signature database updated",
		fmt.Sprintf("feed=%s written=%d total=%d", s.feed.Name(), written, total), "")

	return written > 0, nil
}

// GetSignatureCount returns the number of stored signatures.
func (s *Service) GetSignatureCount(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// GetLastUpdate returns the time of the last successful feed update.
func (s *Service) GetLastUpdate(ctx context.Context) (time.Time, error) {
	return s.repo.GetLastUpdate(ctx)
}

// SetFeed swaps the data source used by UpdateFromFeed.
func (s *Service) SetFeed(feed ports.SignatureFeed) {
	if feed != nil {
		s.feed = feed
	}
}

var _ ports.SignatureChecker = (*Service)(nil)
