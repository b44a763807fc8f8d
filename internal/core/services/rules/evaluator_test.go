package rules

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHasher struct {
	digests map[string]string
	calls   map[string]int
	err     error
}

func (f *fakeHasher) HashFile(_ context.Context, _ string, algorithm string) (string, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[algorithm]++
	if f.err != nil {
		return "", f.err
	}
	return f.digests[algorithm], nil
}

func (f *fakeHasher) HashAll(context.Context, string) (domain.FileHashes, error) {
	return domain.FileHashes{MD5: f.digests["md5"], SHA1: f.digests["sha1"], SHA256: f.digests["sha256"]}, f.err
}

type fakeBehavior map[string]bool

func (f fakeBehavior) HasBehavior(_ context.Context, _ string, tag string) bool {
	return f[tag]
}

type recordingSink struct {
	mu    sync.Mutex
	stats []domain.RuleTriggerStat
}

func (r *recordingSink) Record(stat domain.RuleTriggerStat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, stat)
}

func newTestStore(t *testing.T, texts ...string) *Store {
	t.Helper()
	s := NewStore(nil)
	for _, text := range texts {
		_, err := s.AddText(context.Background(), text)
		require.NoError(t, err)
	}
	return s
}

func TestEvaluate_GlobMatch(t *testing.T) {
	s := newTestStore(t, `alert file any any -> any any (msg:"Test Malware"; content:"*.virus"; sid:1001; rev:1;)`)
	e := NewEvaluator(s, nil, nil)
	ctx := context.Background()

	hits := e.Evaluate(ctx, "/tmp/dir/sample.virus", domain.CategoryFile)
	require.Len(t, hits, 1)
	assert.Equal(t, 1001, hits[0].Sid)
	assert.Equal(t, int64(1), hits[0].TriggerCount)

	assert.Empty(t, e.Evaluate(ctx, "/tmp/dir/sample.txt", domain.CategoryFile))

	r, _ := s.GetBySid(1001)
	assert.Equal(t, int64(1), r.TriggerCount)
	assert.NotNil(t, r.LastTriggered)
}

func TestEvaluate_SubstringMatchIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t, `alert file any any -> any any (content:"Invoice"; sid:1;)`)
	e := NewEvaluator(s, nil, nil)

	assert.Len(t, e.Evaluate(context.Background(), "/x/my-INVOICE-2024.pdf", domain.CategoryFile), 1)
	assert.Empty(t, e.Evaluate(context.Background(), "/invoice/report.pdf", domain.CategoryFile))
}

func TestEvaluate_FiltersCategoryAndDisabled(t *testing.T) {
	s := newTestStore(t,
		`alert process any any -> any any (content:"*"; sid:1;)`,
		`alert file any any -> any any (content:"*"; sid:2;)`,
		`alert file any any -> any any (content:"*"; sid:3;)`,
	)
	require.NoError(t, s.Toggle(context.Background(), 3, false))

	hits := NewEvaluator(s, nil, nil).Evaluate(context.Background(), "/a/b", domain.CategoryFile)
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].Sid)
}

func TestEvaluate_HashCriterion(t *testing.T) {
	s := newTestStore(t,
		`quarantine file any any -> any any (hash:"md5:44D88612FEA8A8F36DE82E1278ABB02F"; sid:1;)`,
		`alert file any any -> any any (hash:"md5:ffff"; sid:2;)`,
		`alert file any any -> any any (hash:"sha256:aa"; sid:3;)`,
	)
	h := &fakeHasher{digests: map[string]string{
		"md5":    "44d88612fea8a8f36de82e1278abb02f",
		"sha256": "bb",
	}}

	hits := NewEvaluator(s, h, nil).Evaluate(context.Background(), "/f", domain.CategoryFile)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Sid)
	assert.Equal(t, 1, h.calls["md5"], "digest computed once per evaluation")
	assert.Equal(t, 1, h.calls["sha256"])
}

func TestEvaluate_HashFailureIsNoMatch(t *testing.T) {
	s := newTestStore(t, `alert file any any -> any any (hash:"md5:abc"; sid:1;)`)
	h := &fakeHasher{err: errors.New("permission denied")}

	assert.Empty(t, NewEvaluator(s, h, nil).Evaluate(context.Background(), "/f", domain.CategoryFile))
}

func TestEvaluate_BehaviorCriterion(t *testing.T) {
	s := newTestStore(t,
		`alert file any any -> any any (behavior:"hidden,script"; sid:1;)`,
		`alert file any any -> any any (behavior:"high_entropy"; sid:2;)`,
	)

	none := NewEvaluator(s, nil, nil)
	assert.Empty(t, none.Evaluate(context.Background(), "/f", domain.CategoryFile))

	e := NewEvaluator(s, nil, fakeBehavior{"script": true})
	hits := e.Evaluate(context.Background(), "/f", domain.CategoryFile)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Sid)
}

func TestEvaluate_AnyCriterionTriggers(t *testing.T) {
	s := newTestStore(t, `alert file any any -> any any (content:"*.nomatch"; hash:"md5:abc"; sid:1;)`)
	h := &fakeHasher{digests: map[string]string{"md5": "ABC"}}

	assert.Len(t, NewEvaluator(s, h, nil).Evaluate(context.Background(), "/f.txt", domain.CategoryFile), 1)
}

func TestEvaluate_RecordsTriggerStats(t *testing.T) {
	s := newTestStore(t, `alert file any any -> any any (content:"*.bin"; sid:12;)`)
	sink := &recordingSink{}
	e := NewEvaluator(s, nil, nil)
	e.SetTriggerRecorder(sink)

	e.Evaluate(context.Background(), "/a.bin", domain.CategoryFile)
	e.Evaluate(context.Background(), "/b.bin", domain.CategoryFile)

	require.Len(t, sink.stats, 2)
	assert.Equal(t, 12, sink.stats[1].Sid)
	assert.Equal(t, int64(2), sink.stats[1].TriggerCount)
}

func TestEvaluate_CancelledContext(t *testing.T) {
	s := newTestStore(t, `alert file any any -> any any (content:"*"; sid:1;)`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, NewEvaluator(s, nil, nil).Evaluate(ctx, "/f", domain.CategoryFile))
}
