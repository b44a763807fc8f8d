package fsutil

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// FileOps is the file collaborator used by the quarantine manager and the
// monitor: safe delete, secure erase, in-use probing and byte-exact copies.
type FileOps struct {
	protected []string
	passes    int
}

// NewFileOps creates a collaborator that refuses to touch anything under the
// protected path prefixes.
func NewFileOps(protected []string) *FileOps {
	clean := make([]string, 0, len(protected))
	for _, p := range protected {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, filepath.Clean(p))
		}
	}
	return &FileOps{protected: clean, passes: 1}
}

// IsProtected reports whether path lies under a protected prefix.
func (o *FileOps) IsProtected(path string) bool {
	p := filepath.Clean(path)
	for _, prefix := range o.protected {
		if p == prefix || strings.HasPrefix(p, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// SafeDelete removes a regular file unless it is protected.
func (o *FileOps) SafeDelete(path string) error {
	if o.IsProtected(path) {
		return fmt.Errorf("%w: %s is protected", domain.ErrAccess, path)
	}
	info, err := os.Lstat(path)
	if err != nil {
		return classify(err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", domain.ErrAccess, path)
	}
	return classify(os.Remove(path))
}

// SecureErase overwrites the file with random bytes, syncs, then unlinks it.
func (o *FileOps) SecureErase(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return classify(err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return classify(err)
	}
	for i := 0; i < o.passes; i++ {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return err
		}
		if _, err := io.CopyN(f, rand.Reader, info.Size()); err != nil {
			f.Close()
			return classify(err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return classify(err)
		}
	}
	if err := f.Close(); err != nil {
		return classify(err)
	}
	return classify(os.Remove(path))
}

// CopyFile implements ports.FileTransfer.
func (o *FileOps) CopyFile(src, dst string) (int64, string, error) {
	return CopyFile(src, dst)
}

// MoveFile implements ports.FileTransfer.
func (o *FileOps) MoveFile(src, dst string) error {
	return MoveFile(src, dst)
}

// CopyFile copies the regular file src to dst, creating dst with mode 0600.
// It returns the number of bytes written and their sha256.
func CopyFile(src, dst string) (int64, string, error) {
	info, err := os.Lstat(src)
	if err != nil {
		return 0, "", classify(err)
	}
	if !info.Mode().IsRegular() {
		return 0, "", fmt.Errorf("%w: %s is not a regular file", domain.ErrAccess, src)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, "", classify(err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return 0, "", classify(err)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, h), in)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return 0, "", classify(err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return 0, "", classify(err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return 0, "", classify(err)
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

// MoveFile renames src to dst, falling back to copy+remove across devices.
// It never overwrites an existing dst.
func MoveFile(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%w: %s already exists", domain.ErrAccess, dst)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if _, _, err := CopyFile(src, dst); err != nil {
		return err
	}
	return classify(os.Remove(src))
}

// classify maps OS errors onto the domain taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", domain.ErrAccess, err)
	default:
		return err
	}
}

var (
	_ ports.FileRemover  = (*FileOps)(nil)
	_ ports.FileProbe    = (*FileOps)(nil)
	_ ports.FileTransfer = (*FileOps)(nil)
)
