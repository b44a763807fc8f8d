package security

import (
	"context"
	"testing"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/lcalzada-xor/fsguard/internal/core/services/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject_FansOut(t *testing.T) {
	journal := audit.NewJournal(nil)
	subject := NewSubject(journal)
	first, second := &recordingObserver{}, &recordingObserver{}
	subject.AddObserver(first)
	subject.AddObserver(second)
	subject.AddObserver(nil)
	ctx := context.Background()

	audit.Emit(ctx, subject, domain.EventSystemError, domain.SeverityHigh, "disk full", "", "/tmp/x")
	subject.NotifyThreatDetected(ctx, domain.ThreatDetection{FilePath: "/tmp/x"})
	subject.NotifyFileQuarantined(ctx, domain.QuarantineItem{ID: 1})

	for _, obs := range []*recordingObserver{first, second} {
		require.Eventually(t, func() bool {
			d, q, e := obs.counts()
			return d == 1 && q == 1 && e == 1
		}, time.Second, 5*time.Millisecond)
	}

	events, err := journal.RecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "disk full", events[0].Message)
}

func TestSubject_WithoutJournal(t *testing.T) {
	subject := NewSubject(nil)
	obs := &recordingObserver{}
	subject.AddObserver(obs)

	subject.Record(context.Background(), domain.SecurityEvent{Type: domain.EventScanCompleted})
	require.Eventually(t, func() bool {
		_, _, e := obs.counts()
		return e == 1
	}, time.Second, 5*time.Millisecond)
}
