package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/hirelens/internal/domain"
)

// MockStore mocks the cache entry store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, repoKey string) (*domain.CacheEntry, error) {
	args := m.Called(ctx, repoKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CacheEntry), args.Error(1)
}

func (m *MockStore) Upsert(ctx context.Context, entry *domain.CacheEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStore) TouchLastChecked(ctx context.Context, repoKey string, at time.Time) error {
	args := m.Called(ctx, repoKey, at)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, repoKey string) error {
	args := m.Called(ctx, repoKey)
	return args.Error(0)
}

func testDetector(store Store) *Detector {
	return NewDetector(store, Options{
		ImportantPaths:      []string{"go.mod", "package.json"},
		FullReanalysisRatio: 0.5,
		FullReanalysisAdds:  10,
	})
}

func TestGetCached_Absent(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, "repo-1").Return(nil, domain.ErrCacheEntryNotFound)

	lookup, err := testDetector(store).GetCached(context.Background(), "repo-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, domain.CacheAbsent, lookup.State)
	assert.Nil(t, lookup.Payload())
}

func TestGetCached_Fresh(t *testing.T) {
	store := new(MockStore)
	entry := &domain.CacheEntry{
		RepoKey:         "repo-1",
		LastChecked:     time.Now().UTC().Add(-time.Minute),
		AnalysisPayload: json.RawMessage(`{"ok":true}`),
	}
	store.On("Get", mock.Anything, "repo-1").Return(entry, nil)

	lookup, err := testDetector(store).GetCached(context.Background(), "repo-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, domain.CacheFresh, lookup.State)
	assert.JSONEq(t, `{"ok":true}`, string(lookup.Payload()))
}

func TestGetCached_Stale(t *testing.T) {
	store := new(MockStore)
	entry := &domain.CacheEntry{
		RepoKey:     "repo-1",
		LastChecked: time.Now().UTC().Add(-2 * time.Hour),
	}
	store.On("Get", mock.Anything, "repo-1").Return(entry, nil)

	lookup, err := testDetector(store).GetCached(context.Background(), "repo-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, domain.CacheStale, lookup.State)
}

func TestGetCached_StoreFailureIsFatal(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, "repo-1").Return(nil, errors.New("connection refused"))

	_, err := testDetector(store).GetCached(context.Background(), "repo-1", time.Hour)
	assert.ErrorIs(t, err, domain.ErrCacheStoreUnavailable)
}

func TestCheckForChanges_Classification(t *testing.T) {
	store := new(MockStore)
	entry := &domain.CacheEntry{
		RepoKey: "repo-1",
		FileHashes: map[string]string{
			"a.py": "hash-a",
			"b.py": "hash-b-old",
		},
	}
	store.On("Get", mock.Anything, "repo-1").Return(entry, nil)

	current := map[string]string{
		"a.py": "hash-a",
		"b.py": "hash-b-new",
		"c.py": "hash-c",
	}
	report, err := testDetector(store).CheckForChanges(context.Background(), "repo-1", current)
	require.NoError(t, err)

	assert.Equal(t, []string{"c.py"}, report.Added)
	assert.Equal(t, []string{"b.py"}, report.Modified)
	assert.Empty(t, report.Deleted)
	assert.Equal(t, []string{"a.py"}, report.Unchanged)
	assert.InDelta(t, 2.0/3.0, report.ChangeRatio, 1e-9)
	assert.Equal(t, domain.ImpactMajor, report.Impact)
	assert.False(t, report.ImportantResourceChanged)
	assert.True(t, report.HasChanges())
}

func TestCheckForChanges_Identical(t *testing.T) {
	store := new(MockStore)
	hashes := map[string]string{"a.py": "ha", "b.py": "hb"}
	store.On("Get", mock.Anything, "repo-1").Return(&domain.CacheEntry{
		RepoKey:    "repo-1",
		FileHashes: hashes,
	}, nil)

	report, err := testDetector(store).CheckForChanges(context.Background(), "repo-1", hashes)
	require.NoError(t, err)

	assert.False(t, report.HasChanges())
	assert.Equal(t, 0.0, report.ChangeRatio)
	assert.Equal(t, domain.ImpactNone, report.Impact)
	assert.Equal(t, []string{"a.py", "b.py"}, report.Unchanged)
}

func TestCheckForChanges_Deleted(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, "repo-1").Return(&domain.CacheEntry{
		RepoKey:    "repo-1",
		FileHashes: map[string]string{"a.py": "ha", "b.py": "hb"},
	}, nil)

	report, err := testDetector(store).CheckForChanges(context.Background(), "repo-1",
		map[string]string{"a.py": "ha"})
	require.NoError(t, err)

	assert.Equal(t, []string{"b.py"}, report.Deleted)
	assert.InDelta(t, 0.5, report.ChangeRatio, 1e-9)
	assert.Equal(t, domain.ImpactHigh, report.Impact)
}

func TestCheckForChanges_NoStoredEntryAllAdded(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, "repo-1").Return(nil, domain.ErrCacheEntryNotFound)

	report, err := testDetector(store).CheckForChanges(context.Background(), "repo-1",
		map[string]string{"a.py": "ha", "b.py": "hb"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.py", "b.py"}, report.Added)
	assert.InDelta(t, 1.0, report.ChangeRatio, 1e-9)
	assert.Equal(t, domain.ImpactMajor, report.Impact)
}

func TestCheckForChanges_ImportantPathByBaseName(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, "repo-1").Return(&domain.CacheEntry{
		RepoKey:    "repo-1",
		FileHashes: map[string]string{"backend/go.mod": "old"},
	}, nil)

	report, err := testDetector(store).CheckForChanges(context.Background(), "repo-1",
		map[string]string{"backend/go.mod": "new"})
	require.NoError(t, err)
	assert.True(t, report.ImportantResourceChanged)
}

func TestCheckContentHash(t *testing.T) {
	store := new(MockStore)
	store.On("Get", mock.Anything, "doc-1").Return(&domain.CacheEntry{
		RepoKey:     "doc-1",
		ContentHash: "abc",
	}, nil)
	store.On("Get", mock.Anything, "doc-2").Return(nil, domain.ErrCacheEntryNotFound)

	d := testDetector(store)

	changed, err := d.CheckContentHash(context.Background(), "doc-1", "abc")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = d.CheckContentHash(context.Background(), "doc-1", "def")
	require.NoError(t, err)
	assert.True(t, changed)

	// No entry means the subject is new, which counts as changed.
	changed, err = d.CheckContentHash(context.Background(), "doc-2", "abc")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestNeedsFullReanalysis(t *testing.T) {
	d := testDetector(new(MockStore))

	assert.True(t, d.NeedsFullReanalysis(&domain.ChangeReport{ImportantResourceChanged: true}))
	assert.True(t, d.NeedsFullReanalysis(&domain.ChangeReport{ChangeRatio: 0.51}))
	assert.True(t, d.NeedsFullReanalysis(&domain.ChangeReport{Added: make([]string, 11)}))

	assert.False(t, d.NeedsFullReanalysis(&domain.ChangeReport{
		ChangeRatio: 0.5,
		Added:       make([]string, 10),
	}))
}

func TestSave(t *testing.T) {
	store := new(MockStore)
	var saved *domain.CacheEntry
	store.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.CacheEntry)
	}).Return(nil)

	d := testDetector(store)
	payload := json.RawMessage(`{"chunks":4}`)
	hashes := map[string]string{"a.py": "ha"}

	err := d.Save(context.Background(), "repo-1", payload, map[string]any{"files": 1}, hashes)
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.Equal(t, "repo-1", saved.RepoKey)
	assert.Len(t, saved.ContentHash, 64)
	assert.Equal(t, hashes, saved.FileHashes)
	assert.JSONEq(t, `{"chunks":4}`, string(saved.AnalysisPayload))
	assert.False(t, saved.LastChecked.IsZero())
	store.AssertExpectations(t)
}

func TestSave_StoreFailure(t *testing.T) {
	store := new(MockStore)
	store.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	err := testDetector(store).Save(context.Background(), "repo-1", nil, map[string]any{}, nil)
	assert.ErrorIs(t, err, domain.ErrCacheStoreUnavailable)
}

func TestMarkChecked(t *testing.T) {
	store := new(MockStore)
	store.On("TouchLastChecked", mock.Anything, "repo-1", mock.Anything).Return(nil)

	err := testDetector(store).MarkChecked(context.Background(), "repo-1")
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestInvalidate(t *testing.T) {
	store := new(MockStore)
	store.On("Delete", mock.Anything, "repo-1").Return(nil)
	store.On("Delete", mock.Anything, "repo-2").Return(domain.ErrCacheEntryNotFound)
	store.On("Delete", mock.Anything, "repo-3").Return(errors.New("connection refused"))

	d := testDetector(store)

	assert.NoError(t, d.Invalidate(context.Background(), "repo-1"))
	// Deleting an absent entry is not an error.
	assert.NoError(t, d.Invalidate(context.Background(), "repo-2"))
	assert.ErrorIs(t, d.Invalidate(context.Background(), "repo-3"), domain.ErrCacheStoreUnavailable)
}
