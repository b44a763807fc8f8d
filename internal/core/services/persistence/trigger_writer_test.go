package persistence

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockStatsStorage records every batch written.
type MockStatsStorage struct {
	mu      sync.Mutex
	batches [][]domain.RuleTriggerStat
	err     error
}

func (m *MockStatsStorage) SaveTriggerStats(_ context.Context, stats []domain.RuleTriggerStat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, stats)
	return m.err
}

func (m *MockStatsStorage) saved() []domain.RuleTriggerStat {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.RuleTriggerStat
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

func stat(sid int, count int64) domain.RuleTriggerStat {
	return domain.RuleTriggerStat{Sid: sid, TriggerCount: count, LastTriggered: time.Now()}
}

func TestTriggerWriter_Batching(t *testing.T) {
	store := &MockStatsStorage{}
	w := NewTriggerWriter(store, 10)
	w.batchSize = 3
	w.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	w.Record(stat(1, 1))
	w.Record(stat(2, 1))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, store.saved())

	w.Record(stat(3, 1))
	require.Eventually(t, func() bool { return len(store.saved()) == 3 }, time.Second, 10*time.Millisecond)
}

func TestTriggerWriter_Timer(t *testing.T) {
	store := &MockStatsStorage{}
	w := NewTriggerWriter(store, 10)
	w.interval = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	w.Record(stat(7, 1))
	require.Eventually(t, func() bool { return len(store.saved()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestTriggerWriter_FlushOnShutdownKeepsNewest(t *testing.T) {
	store := &MockStatsStorage{}
	w := NewTriggerWriter(store, 10)
	w.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	w.Record(stat(5, 2))
	w.Record(stat(5, 4))
	w.Record(stat(5, 3))
	cancel()
	w.Wait()

	saved := store.saved()
	require.Len(t, saved, 1)
	assert.Equal(t, int64(4), saved[0].TriggerCount)
}

func TestTriggerWriter_DisabledAndFailing(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	store := &MockStatsStorage{err: errors.New("database is locked")}
	w := NewTriggerWriter(store, 10)
	w.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	w.SetEnabled(false)
	w.Record(stat(1, 1))
	w.SetEnabled(true)
	w.Record(stat(2, 1))
	cancel()
	w.Wait()

	saved := store.saved()
	require.Len(t, saved, 1)
	assert.Equal(t, 2, saved[0].Sid)

	assert.Contains(t, logs.String(), `"level":"ERROR"`)
	assert.Contains(t, logs.String(), "database is locked")
}
