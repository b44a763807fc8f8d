package ports

import (
	"context"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
)

// FileHasher computes file digests.
type FileHasher interface {
	// HashFile computes a single digest with the named algorithm (lowercase hex).
	HashFile(ctx context.Context, path, algorithm string) (string, error)
	// HashAll computes md5, sha1 and sha256 in one pass.
	HashAll(ctx context.Context, path string) (domain.FileHashes, error)
}

// FileRemover is the safe-delete collaborator.
type FileRemover interface {
	// SafeDelete removes a file unless it lives under a protected path.
	SafeDelete(path string) error
	// SecureErase overwrites a file's content before unlinking it.
	SecureErase(path string) error
}

// FileProbe reports transient file conditions.
type FileProbe interface {
	// InUse reports whether another process holds the file exclusively.
	InUse(path string) bool
}

// Watcher delivers filesystem changes for registered directories.
type Watcher interface {
	// Add registers a directory tree.
	Add(path string) error
	// Close stops delivery and releases OS handles.
	Close() error
}

// WatcherFactory creates a watcher that invokes handler from its own goroutine.
// handler must not block.
type WatcherFactory func(handler func(domain.FileEvent)) (Watcher, error)

// FileTransfer moves file bytes in and out of isolation.
type FileTransfer interface {
	// CopyFile copies src to a new dst and returns the size and sha256 of the bytes written.
	CopyFile(src, dst string) (int64, string, error)
	// MoveFile moves src to dst without overwriting an existing dst.
	MoveFile(src, dst string) error
}
