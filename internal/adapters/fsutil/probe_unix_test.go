//go:build linux || darwin || freebsd || netbsd || openbsd

package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestFileOps_InUseLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, unix.Flock(int(f.Fd()), unix.LOCK_EX))

	ops := NewFileOps(nil)
	assert.True(t, ops.InUse(path))

	require.NoError(t, unix.Flock(int(f.Fd()), unix.LOCK_UN))
	assert.False(t, ops.InUse(path))
}
