package rules

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRuleRepository
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) ListRules(ctx context.Context) ([]domain.SecurityRule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.SecurityRule), args.Error(1)
}

func (m *MockRuleRepository) SaveRule(ctx context.Context, rule domain.SecurityRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) DeleteRule(ctx context.Context, sid int) error {
	args := m.Called(ctx, sid)
	return args.Error(0)
}

func (m *MockRuleRepository) SaveTriggerStats(ctx context.Context, stats []domain.RuleTriggerStat) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func mustParse(t *testing.T, text string) domain.SecurityRule {
	t.Helper()
	r, err := Parse(text)
	require.NoError(t, err)
	return r
}

func TestStore_AddDuplicateSid(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	first, err := s.AddText(ctx, `alert file any any -> any any (msg:"first"; content:"a"; sid:8888;)`)
	require.NoError(t, err)
	assert.Equal(t, "first", first.Message)

	_, err = s.AddText(ctx, `alert file any any -> any any (msg:"second"; content:"b"; sid:8888;)`)
	assert.ErrorIs(t, err, domain.ErrDuplicateSid)

	assert.Equal(t, 1, s.Count())
	got, ok := s.GetBySid(8888)
	require.True(t, ok)
	assert.Equal(t, "first", got.Message)
}

func TestStore_UpdateIncrementsRevision(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	added, err := s.Add(ctx, mustParse(t, `alert file any any -> any any (msg:"v1"; content:"*.x"; sid:77; rev:2;)`))
	require.NoError(t, err)
	s.RecordTrigger(77, time.Now())

	changed := added
	changed.Message = "v2"
	changed.Revision = 100 // ignored
	changed.TriggerCount = 0

	updated, err := s.Update(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, 77, updated.Sid)
	assert.Equal(t, 3, updated.Revision)
	assert.Equal(t, "v2", updated.Message)
	assert.Equal(t, int64(1), updated.TriggerCount)
	assert.Equal(t, added.Created, updated.Created)
	assert.Contains(t, updated.Text, `msg:"v2"`)

	again, err := s.Update(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, 4, again.Revision)
}

func TestStore_UpdateMissing(t *testing.T) {
	s := NewStore(nil)
	_, err := s.Update(context.Background(), domain.SecurityRule{Sid: 5, Category: domain.CategoryFile, Action: domain.ActionAlert})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteAndToggle(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	_, err := s.AddText(ctx, `alert file any any -> any any (content:"x"; sid:1;)`)
	require.NoError(t, err)

	require.NoError(t, s.Toggle(ctx, 1, false))
	r, _ := s.GetBySid(1)
	assert.False(t, r.Enabled)

	require.NoError(t, s.Delete(ctx, 1))
	_, ok := s.GetBySid(1)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Delete(ctx, 1), domain.ErrNotFound)
	assert.ErrorIs(t, s.Toggle(ctx, 1, true), domain.ErrNotFound)
}

func TestStore_SnapshotsAreCopies(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	_, err := s.AddText(ctx, `alert file any any -> any any (msg:"orig"; content:"x"; sid:3;)`)
	require.NoError(t, err)
	_, err = s.AddText(ctx, `alert process any any -> any any (content:"y"; sid:2;)`)
	require.NoError(t, err)

	all := s.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, 2, all[0].Sid)
	assert.Equal(t, 3, all[1].Sid)

	all[1].Message = "mutated"
	r, _ := s.GetBySid(3)
	assert.Equal(t, "orig", r.Message)

	files := s.GetByCategory(domain.CategoryFile)
	require.Len(t, files, 1)
	assert.Equal(t, 3, files[0].Sid)
}

func TestStore_LoadSeedsDefaults(t *testing.T) {
	repo := new(MockRuleRepository)
	ctx := context.Background()

	repo.On("ListRules", ctx).Return([]domain.SecurityRule{}, nil)
	repo.On("SaveRule", ctx, mock.Anything).Return(nil)

	s := NewStore(repo)
	require.NoError(t, s.Load(ctx))

	assert.Equal(t, len(DefaultRuleTexts()), s.Count())
	repo.AssertNumberOfCalls(t, "SaveRule", len(DefaultRuleTexts()))
}

func TestStore_LoadFromRepository(t *testing.T) {
	repo := new(MockRuleRepository)
	ctx := context.Background()

	stored := []domain.SecurityRule{
		{Sid: 50, Revision: 4, Category: domain.CategoryFile, Action: domain.ActionLog, ContentPattern: "x", Enabled: true},
	}
	repo.On("ListRules", ctx).Return(stored, nil)

	s := NewStore(repo)
	require.NoError(t, s.Load(ctx))

	r, ok := s.GetBySid(50)
	require.True(t, ok)
	assert.Equal(t, 4, r.Revision)
	repo.AssertNotCalled(t, "SaveRule", mock.Anything, mock.Anything)
}

func TestStore_LoadFailureSurfaces(t *testing.T) {
	repo := new(MockRuleRepository)
	ctx := context.Background()
	repo.On("ListRules", ctx).Return([]domain.SecurityRule(nil), errors.New("disk gone"))

	err := NewStore(repo).Load(ctx)
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestStore_LoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.rules")
	content := "# local rules\n\n" +
		`alert file any any -> any any (msg:"one"; content:"*.one"; sid:1;)` + "\n" +
		"garbage line\n" +
		`alert file any any -> any any (msg:"dup"; content:"*.dup"; sid:1;)` + "\n" +
		`delete file any any -> any any (msg:"two"; content:"*.two"; sid:2;)` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s := NewStore(nil)
	s.SetSeedFile(path)
	require.NoError(t, s.Load(context.Background()))

	all := s.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "one", all[0].Message)
	assert.Equal(t, domain.ActionDelete, all[1].Action)
}

func TestStore_WriteThroughFailureKeepsMutation(t *testing.T) {
	repo := new(MockRuleRepository)
	ctx := context.Background()
	repo.On("SaveRule", ctx, mock.Anything).Return(errors.New("readonly"))

	s := NewStore(repo)
	_, err := s.AddText(ctx, `alert file any any -> any any (content:"x"; sid:9;)`)
	require.NoError(t, err)

	_, ok := s.GetBySid(9)
	assert.True(t, ok)
}

func TestStore_RecordTrigger(t *testing.T) {
	s := NewStore(nil)
	_, err := s.AddText(context.Background(), `alert file any any -> any any (content:"x"; sid:4;)`)
	require.NoError(t, err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	stat, ok := s.RecordTrigger(4, at)
	require.True(t, ok)
	assert.Equal(t, int64(1), stat.TriggerCount)

	stat, _ = s.RecordTrigger(4, at.Add(time.Minute))
	assert.Equal(t, int64(2), stat.TriggerCount)

	r, _ := s.GetBySid(4)
	require.NotNil(t, r.LastTriggered)
	assert.Equal(t, at.Add(time.Minute), *r.LastTriggered)

	_, ok = s.RecordTrigger(999, at)
	assert.False(t, ok)
}

func TestStore_ReloadKeepsUnflushedTriggerStats(t *testing.T) {
	repo := new(MockRuleRepository)
	ctx := context.Background()
	repo.On("SaveRule", ctx, mock.Anything).Return(nil)

	s := NewStore(repo)
	added, err := s.AddText(ctx, `alert file any any -> any any (msg:"Test Malware"; content:"*.virus"; sid:1001;)`)
	require.NoError(t, err)

	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	s.RecordTrigger(1001, at)
	s.RecordTrigger(1001, at.Add(time.Second))

	// the repository has not seen the triggers yet
	repo.On("ListRules", ctx).Return([]domain.SecurityRule{added}, nil)
	require.NoError(t, s.Load(ctx))

	r, ok := s.GetBySid(1001)
	require.True(t, ok)
	assert.Equal(t, int64(2), r.TriggerCount)
	require.NotNil(t, r.LastTriggered)
	assert.Equal(t, at.Add(time.Second), *r.LastTriggered)

	stat, _ := s.RecordTrigger(1001, at.Add(time.Minute))
	assert.Equal(t, int64(3), stat.TriggerCount)
}
