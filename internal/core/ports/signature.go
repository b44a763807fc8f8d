package ports

import (
	"context"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
)

// SignatureFeed is an opaque source of malware signatures.
type SignatureFeed interface {
	// Name identifies the feed in logs and events.
	Name() string
	// Fetch returns the signatures currently published by the feed.
	Fetch(ctx context.Context) ([]domain.MalwareSignature, error)
}

// SignatureChecker looks up known-malware hashes.
type SignatureChecker interface {
	// CheckHash returns the matching signature or nil when the hash is unknown.
	CheckHash(ctx context.Context, hash string) (*domain.MalwareSignature, error)
}
