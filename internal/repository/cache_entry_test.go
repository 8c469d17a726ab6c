//go:build integration

package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/hirelens/internal/domain"
	"github.com/hirelens/hirelens/internal/testutil"
)

func newCacheEntry(repoKey string) *domain.CacheEntry {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.CacheEntry{
		RepoKey:     repoKey,
		ContentHash: "hash-v1",
		FileHashes: map[string]string{
			"main.go": "h-main",
			"util.go": "h-util",
		},
		AnalysisPayload: json.RawMessage(`{"file_count":2,"mode":"full"}`),
		LastChecked:     now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestCacheEntryRepository_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewCacheEntryRepository(pool)
	entry := newCacheEntry("applicant-7:github")

	require.NoError(t, repo.Upsert(ctx, entry))

	retrieved, err := repo.Get(ctx, "applicant-7:github")
	require.NoError(t, err)
	assert.Equal(t, entry.RepoKey, retrieved.RepoKey)
	assert.Equal(t, entry.ContentHash, retrieved.ContentHash)
	assert.Equal(t, entry.FileHashes, retrieved.FileHashes)
	assert.JSONEq(t, string(entry.AnalysisPayload), string(retrieved.AnalysisPayload))
	assert.WithinDuration(t, entry.LastChecked, retrieved.LastChecked, time.Second)
}

func TestCacheEntryRepository_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewCacheEntryRepository(pool)

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCacheEntryNotFound)
}

func TestCacheEntryRepository_UpsertOverwritesPreservingCreatedAt(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewCacheEntryRepository(pool)
	entry := newCacheEntry("applicant-7:github")
	require.NoError(t, repo.Upsert(ctx, entry))

	first, err := repo.Get(ctx, "applicant-7:github")
	require.NoError(t, err)

	updated := newCacheEntry("applicant-7:github")
	updated.ContentHash = "hash-v2"
	updated.FileHashes = map[string]string{"main.go": "h-main-2"}
	updated.CreatedAt = time.Now().UTC().Add(time.Hour)
	updated.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.Upsert(ctx, updated))

	second, err := repo.Get(ctx, "applicant-7:github")
	require.NoError(t, err)
	assert.Equal(t, "hash-v2", second.ContentHash)
	assert.Len(t, second.FileHashes, 1)
	// The conflict clause does not touch created_at.
	assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, time.Second)
}

func TestCacheEntryRepository_TouchLastChecked(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewCacheEntryRepository(pool)
	entry := newCacheEntry("applicant-7:github")
	entry.LastChecked = time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Microsecond)
	require.NoError(t, repo.Upsert(ctx, entry))

	checkedAt := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.TouchLastChecked(ctx, "applicant-7:github", checkedAt))

	retrieved, err := repo.Get(ctx, "applicant-7:github")
	require.NoError(t, err)
	assert.WithinDuration(t, checkedAt, retrieved.LastChecked, time.Second)

	assert.ErrorIs(t, repo.TouchLastChecked(ctx, "missing", checkedAt), domain.ErrCacheEntryNotFound)
}

func TestCacheEntryRepository_Delete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewCacheEntryRepository(pool)
	require.NoError(t, repo.Upsert(ctx, newCacheEntry("applicant-7:github")))

	require.NoError(t, repo.Delete(ctx, "applicant-7:github"))

	_, err := repo.Get(ctx, "applicant-7:github")
	assert.ErrorIs(t, err, domain.ErrCacheEntryNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "applicant-7:github"), domain.ErrCacheEntryNotFound)
}

func TestCacheEntryRepository_List(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewCacheEntryRepository(pool)

	older := newCacheEntry("repo-old")
	older.UpdatedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	require.NoError(t, repo.Upsert(ctx, older))

	newer := newCacheEntry("repo-new")
	require.NoError(t, repo.Upsert(ctx, newer))

	entries, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "repo-new", entries[0].RepoKey)
	assert.Equal(t, "repo-old", entries[1].RepoKey)

	limited, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
