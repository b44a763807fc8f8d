package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
)

// Config tunes the real-time monitor.
type Config struct {
	WatchPaths         []string
	ExcludedPaths      []string
	ExcludedExtensions []string
	MinFileSize        int64
	SettleDelay        time.Duration
	QueueSize          int
	StopTimeout        time.Duration
	// SignatureAction is executed for known-malware hash matches.
	SignatureAction domain.RuleAction
}

// DefaultExcludedExtensions are noise suffixes never worth evaluating.
var DefaultExcludedExtensions = []string{".tmp", ".log", ".cache", ".bak", ".old", ".swp", ".lock"}

// DefaultConfig returns the stock monitor configuration.
func DefaultConfig() Config {
	return Config{
		WatchPaths:         DefaultWatchPaths(),
		ExcludedPaths:      DefaultExcludedPaths(),
		ExcludedExtensions: append([]string(nil), DefaultExcludedExtensions...),
		MinFileSize:        1024,
		SettleDelay:        500 * time.Millisecond,
		QueueSize:          1024,
		StopTimeout:        5 * time.Second,
		SignatureAction:    domain.ActionQuarantine,
	}
}

// DefaultWatchPaths returns the user's desktop, documents and downloads
// directories plus the system temp directory.
func DefaultWatchPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		for _, d := range []string{"Desktop", "Documents", "Downloads"} {
			paths = append(paths, filepath.Join(home, d))
		}
	}
	return append(paths, os.TempDir())
}

// DefaultExcludedPaths lists system-critical trees the monitor never touches.
func DefaultExcludedPaths() []string {
	return []string{"/proc", "/sys", "/dev", "/boot", "/usr/lib", "/usr/bin", "/usr/sbin", "/bin", "/sbin", "/etc"}
}

// normalized returns a copy with defaults filled in and lists cleaned.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.MinFileSize < 0 {
		c.MinFileSize = 0
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = d.StopTimeout
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	if !c.SignatureAction.IsValid() {
		c.SignatureAction = d.SignatureAction
	}

	exts := make([]string, 0, len(c.ExcludedExtensions))
	for _, e := range c.ExcludedExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	c.ExcludedExtensions = exts

	paths := make([]string, 0, len(c.ExcludedPaths))
	for _, p := range c.ExcludedPaths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, filepath.Clean(p))
		}
	}
	c.ExcludedPaths = paths
	return c
}
