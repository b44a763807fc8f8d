package config

import (
	"flag"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("fsguard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParse_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := parse(newFlagSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".fsguard", "fsguard.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(home, ".fsguard", "quarantine"), cfg.QuarantineDir)
	assert.Equal(t, domain.ActionQuarantine, cfg.SignatureAction)
	assert.Equal(t, int64(1024), cfg.MinFileSize)
	assert.True(t, cfg.AutoStart)
	assert.Contains(t, cfg.ExcludedExtensions, ".tmp")
	assert.Contains(t, cfg.WatchPaths, filepath.Join(home, "Downloads"))
}

func TestParse_EnvThenFlags(t *testing.T) {
	t.Setenv("FSGUARD_WATCH", "/srv/a, /srv/b,,")
	t.Setenv("FSGUARD_SETTLE_DELAY", "2s")
	t.Setenv("FSGUARD_QUEUE_SIZE", "64")
	t.Setenv("FSGUARD_SIGNATURE_ACTION", "alert")
	t.Setenv("FSGUARD_DEBUG", "true")
	t.Setenv("FSGUARD_MIN_SIZE", "not-a-number")

	cfg, err := parse(newFlagSet(), []string{"-queue", "128", "-exclude-ext", "iso", "-monitor=false"})
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/a", "/srv/b"}, cfg.WatchPaths)
	assert.Equal(t, 2*time.Second, cfg.SettleDelay)
	assert.Equal(t, 128, cfg.QueueSize)
	assert.Equal(t, domain.ActionAlert, cfg.SignatureAction)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.AutoStart)
	assert.Equal(t, int64(1024), cfg.MinFileSize)
	assert.Equal(t, []string{"iso"}, cfg.ExcludedExtensions)

	mc := cfg.Monitor()
	assert.Equal(t, cfg.WatchPaths, mc.WatchPaths)
	assert.Equal(t, 128, mc.QueueSize)
	assert.Equal(t, domain.ActionAlert, mc.SignatureAction)
}

func TestParse_Invalid(t *testing.T) {
	_, err := parse(newFlagSet(), []string{"-report", "out.pdf"})
	assert.ErrorContains(t, err, "-report requires -scan")

	_, err = parse(newFlagSet(), []string{"-queue", "0", "-signature-action", "block"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "queue must be positive")
	assert.ErrorContains(t, err, "block is not supported")

	_, err = parse(newFlagSet(), []string{"-unknown"})
	assert.Error(t, err)
}

func TestParse_OneShot(t *testing.T) {
	cfg, err := parse(newFlagSet(), []string{"-scan", "/srv", "-report", "/tmp/out.pdf", "-addr", ""})
	require.NoError(t, err)
	assert.Equal(t, "/srv", cfg.ScanDir)
	assert.Equal(t, "/tmp/out.pdf", cfg.ReportPath)
	assert.Empty(t, cfg.Addr)
}
