package sigdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// ReadSeedFile decodes a JSON array of signatures.
func ReadSeedFile(path string) ([]domain.MalwareSignature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var sigs []domain.MalwareSignature
	if err := json.Unmarshal(data, &sigs); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if len(sigs) == 0 {
		return nil, ErrEmptySeed
	}
	return sigs, nil
}

// JSONFeed publishes the signatures stored in a local JSON file.
type JSONFeed struct {
	path string
}

// NewJSONFeed creates a feed backed by a JSON seed file.
func NewJSONFeed(path string) *JSONFeed {
	return &JSONFeed{path: path}
}

// Name identifies the feed.
func (f *JSONFeed) Name() string {
	return "json:" + filepath.Base(f.path)
}

// Fetch reads the file on every call so edits are picked up on the next update.
func (f *JSONFeed) Fetch(ctx context.Context) ([]domain.MalwareSignature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadSeedFile(f.path)
}

// SeedLoader loads signatures from JSON files into the database.
type SeedLoader struct {
	repo ports.SignatureRepository
}

// NewSeedLoader creates a new seed loader.
func NewSeedLoader(repo ports.SignatureRepository) *SeedLoader {
	return &SeedLoader{repo: repo}
}

// LoadFromFile loads signatures from a JSON file and returns how many were written.
func (s *SeedLoader) LoadFromFile(ctx context.Context, path string) (int, error) {
	log.Printf("[SIG-SEED] Loading signatures from %s", path)

	sigs, err := ReadSeedFile(path)
	if err != nil {
		return 0, err
	}

	loaded, err := s.repo.UpsertSignatures(ctx, sigs)
	if err != nil {
		return 0, err
	}

	log.Printf("[SIG-SEED] Loaded %d signatures (%d skipped)", loaded, len(sigs)-loaded)

	if err := s.repo.SetLastUpdate(ctx, time.Now()); err != nil {
		log.Printf("[SIG-SEED] Failed to record update time: %v", err)
	}
	return loaded, nil
}

// LoadFromMultipleFiles loads signatures from several JSON files, skipping files that fail.
func (s *SeedLoader) LoadFromMultipleFiles(ctx context.Context, paths []string) int {
	total := 0
	files := 0

	for _, path := range paths {
		n, err := s.LoadFromFile(ctx, path)
		if err != nil {
			log.Printf("[SIG-SEED] Failed to load %s: %v", path, err)
			continue
		}
		total += n
		files++
	}

	log.Printf("[SIG-SEED] Loaded %d signatures from %d/%d files", total, files, len(paths))
	return total
}

var _ ports.SignatureFeed = (*JSONFeed)(nil)
