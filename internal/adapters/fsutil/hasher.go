package fsutil

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/ports"
)

// ErrUnsupportedAlgorithm is returned for hash specs naming an unknown algorithm.
var ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")

// newHash resolves an algorithm name as written in rule hash specs.
func newHash(algorithm string) (hash.Hash, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "md5":
		return md5.New(), nil
	case "sha1", "sha-1":
		return sha1.New(), nil
	case "sha256", "sha-256":
		return sha256.New(), nil
	case "sha512", "sha-512":
		return sha512.New(), nil
	case "sha3-256", "sha3_256":
		return sha3.New256(), nil
	case "blake2b-256", "blake2b":
		return blake2b.New256(nil)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}
}

// Hasher computes file digests. It implements ports.FileHasher.
type Hasher struct{}

// NewHasher creates a hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// HashFile computes one digest with the named algorithm.
func (h *Hasher) HashFile(ctx context.Context, path, algorithm string) (string, error) {
	hh, err := newHash(algorithm)
	if err != nil {
		return "", err
	}
	if err := copyFileInto(ctx, path, hh); err != nil {
		return "", err
	}
	return hex.EncodeToString(hh.Sum(nil)), nil
}

// HashAll computes md5, sha1 and sha256 in a single read of the file.
func (h *Hasher) HashAll(ctx context.Context, path string) (domain.FileHashes, error) {
	m, s1, s256 := md5.New(), sha1.New(), sha256.New()
	if err := copyFileInto(ctx, path, io.MultiWriter(m, s1, s256)); err != nil {
		return domain.FileHashes{}, err
	}
	return domain.FileHashes{
		MD5:    hex.EncodeToString(m.Sum(nil)),
		SHA1:   hex.EncodeToString(s1.Sum(nil)),
		SHA256: hex.EncodeToString(s256.Sum(nil)),
	}, nil
}

func copyFileInto(ctx context.Context, path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return classify(err)
	}
	defer f.Close()

	if _, err := io.Copy(w, &ctxReader{ctx: ctx, r: f}); err != nil {
		return classify(err)
	}
	return nil
}

// ctxReader aborts long reads once the context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrCancelled, err)
	}
	return c.r.Read(p)
}

var _ ports.FileHasher = (*Hasher)(nil)
