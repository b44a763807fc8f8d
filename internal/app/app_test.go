package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/adapters/storage"
	"github.com/lcalzada-xor/fsguard/internal/config"
	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	watch := filepath.Join(base, "watched")
	require.NoError(t, os.MkdirAll(watch, 0o700))

	return &config.Config{
		DBPath:          filepath.Join(base, "state", "fsguard.db"),
		SignatureDBPath: filepath.Join(base, "state", "signatures.db"),
		QuarantineDir:   filepath.Join(base, "vault"),
		WatchPaths:      []string{watch},
		QueueSize:       32,
		StopTimeout:     2 * time.Second,
		SignatureAction: domain.ActionQuarantine,
	}
}

func TestApplication_OneShotScanWithReport(t *testing.T) {
	cfg := testConfig(t)
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "sample.virus"), []byte("payload"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(target, "notes.txt"), []byte("nothing to see"), 0o600))
	reportPath := filepath.Join(t.TempDir(), "report.pdf")

	application, err := New(cfg)
	require.NoError(t, err)
	assert.Nil(t, application.WebServer)

	ctx := context.Background()
	require.NoError(t, application.Load(ctx))

	count, err := application.Security.GetSignatureCount(ctx)
	require.NoError(t, err)
	assert.Positive(t, count)

	result, err := application.Scan(ctx, target, reportPath)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.FilesScanned)
	require.Len(t, result.Detections, 1)
	assert.Equal(t, 1001, result.Detections[0].RuleSid())

	pdf, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	require.NoError(t, application.Close())

	// Trigger statistics are flushed on close.
	store, err := storage.NewSQLiteAdapter(cfg.DBPath)
	require.NoError(t, err)
	defer store.Close()
	rules, err := store.ListRules(ctx)
	require.NoError(t, err)
	var triggered int64
	for _, r := range rules {
		if r.Sid == 1001 {
			triggered = r.TriggerCount
		}
	}
	assert.Equal(t, int64(1), triggered)
}

func TestApplication_RunUntilCancelled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Addr = "127.0.0.1:0"
	cfg.AutoStart = true

	application, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, application.WebServer)
	require.NoError(t, application.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	require.Eventually(t, func() bool {
		return application.Security.MonitorStatus().State == domain.MonitorActive
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not stop")
	}
	assert.Equal(t, domain.MonitorStopped, application.Security.MonitorStatus().State)
}

func TestApplication_StateSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	first, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, first.Load(ctx))
	_, err = first.Security.AddRuleText(ctx, `alert file any any -> any any (msg:"Custom"; content:"*.custom"; sid:9000; rev:1;)`)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, second.Load(ctx))
	defer second.Close()

	rule, err := second.Security.GetRuleBySid(9000)
	require.NoError(t, err)
	assert.Equal(t, "Custom", rule.Message)
}
