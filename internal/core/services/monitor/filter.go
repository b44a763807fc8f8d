package monitor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
)

// Filter reasons, also used as metric labels.
const (
	reasonExcludedPath = "excluded_path"
	reasonExcludedExt  = "excluded_extension"
	reasonTooSmall     = "too_small"
	reasonNotRegular   = "not_regular"
	reasonMissing      = "missing"
)

// eventFilter discards noise before it reaches the queue.
type eventFilter struct {
	excludedPaths []string
	excludedExts  map[string]bool
	minSize       int64
}

func newEventFilter(cfg Config) *eventFilter {
	exts := make(map[string]bool, len(cfg.ExcludedExtensions))
	for _, e := range cfg.ExcludedExtensions {
		exts[e] = true
	}
	return &eventFilter{
		excludedPaths: cfg.ExcludedPaths,
		excludedExts:  exts,
		minSize:       cfg.MinFileSize,
	}
}

// Skip reports whether the event should be dropped and why. A rename is kept
// unless both its old and new paths are filtered.
func (f *eventFilter) Skip(ev domain.FileEvent) (string, bool) {
	reason, skip := f.skipPath(ev.Path, true)
	if !skip || ev.Op != domain.FileRenamed || ev.OldPath == "" {
		return reason, skip
	}
	// the old path no longer exists, so only name rules apply to it
	if _, oldSkip := f.skipPath(ev.OldPath, false); oldSkip {
		return reason, true
	}
	return "", false
}

func (f *eventFilter) skipPath(path string, stat bool) (string, bool) {
	if f.excluded(path) {
		return reasonExcludedPath, true
	}
	if f.excludedExts[strings.ToLower(filepath.Ext(path))] {
		return reasonExcludedExt, true
	}
	if !stat {
		return "", false
	}

	info, err := os.Lstat(path)
	if err != nil {
		return reasonMissing, true
	}
	if !info.Mode().IsRegular() {
		return reasonNotRegular, true
	}
	if info.Size() < f.minSize {
		return reasonTooSmall, true
	}
	return "", false
}

func (f *eventFilter) excluded(path string) bool {
	p := filepath.Clean(path)
	for _, prefix := range f.excludedPaths {
		if p == prefix || strings.HasPrefix(p, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
