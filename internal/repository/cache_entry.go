package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/hirelens/internal/domain"
)

// CacheEntryRepository persists change-detection fingerprints, one row per
// repo key. Writes are atomic upserts; concurrent writers to the same key
// are last-writer-wins.
type CacheEntryRepository struct {
	db dbtx
}

func NewCacheEntryRepository(pool *pgxpool.Pool) *CacheEntryRepository {
	return &CacheEntryRepository{db: pool}
}

func NewCacheEntryRepositoryWithTx(tx pgx.Tx) *CacheEntryRepository {
	return &CacheEntryRepository{db: tx}
}

func (r *CacheEntryRepository) Get(ctx context.Context, repoKey string) (*domain.CacheEntry, error) {
	var entry domain.CacheEntry
	var fileHashes, payload []byte
	err := r.db.QueryRow(ctx,
		`SELECT repo_key, content_hash, file_hashes, analysis_payload, last_checked, created_at, updated_at
		 FROM cache_entries WHERE repo_key = $1`,
		repoKey,
	).Scan(&entry.RepoKey, &entry.ContentHash, &fileHashes, &payload, &entry.LastChecked, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCacheEntryNotFound
		}
		return nil, err
	}

	if len(fileHashes) > 0 {
		if err := json.Unmarshal(fileHashes, &entry.FileHashes); err != nil {
			return nil, fmt.Errorf("failed to decode file hashes for %s: %w", repoKey, err)
		}
	}
	entry.AnalysisPayload = payload

	return &entry, nil
}

// Upsert inserts or overwrites the entry for its repo key. CreatedAt of a
// prior row is preserved; everything else is replaced.
func (r *CacheEntryRepository) Upsert(ctx context.Context, entry *domain.CacheEntry) error {
	fileHashes, err := json.Marshal(entry.FileHashes)
	if err != nil {
		return fmt.Errorf("failed to encode file hashes: %w", err)
	}

	payload := entry.AnalysisPayload
	if payload == nil {
		payload = json.RawMessage("null")
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO cache_entries (repo_key, content_hash, file_hashes, analysis_payload, last_checked, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (repo_key) DO UPDATE SET
			content_hash = EXCLUDED.content_hash,
			file_hashes = EXCLUDED.file_hashes,
			analysis_payload = EXCLUDED.analysis_payload,
			last_checked = EXCLUDED.last_checked,
			updated_at = EXCLUDED.updated_at`,
		entry.RepoKey, entry.ContentHash, fileHashes, []byte(payload),
		entry.LastChecked, entry.CreatedAt, entry.UpdatedAt,
	)
	return err
}

// TouchLastChecked resets the staleness clock after a re-check found the
// stored hashes still valid.
func (r *CacheEntryRepository) TouchLastChecked(ctx context.Context, repoKey string, at time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE cache_entries SET last_checked = $1 WHERE repo_key = $2`,
		at, repoKey,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrCacheEntryNotFound
	}
	return nil
}

func (r *CacheEntryRepository) Delete(ctx context.Context, repoKey string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM cache_entries WHERE repo_key = $1`, repoKey)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrCacheEntryNotFound
	}
	return nil
}

// List returns the most recently updated entries, for the admin CLI.
func (r *CacheEntryRepository) List(ctx context.Context, limit int) ([]*domain.CacheEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT repo_key, content_hash, file_hashes, analysis_payload, last_checked, created_at, updated_at
		 FROM cache_entries
		 ORDER BY updated_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.CacheEntry
	for rows.Next() {
		var entry domain.CacheEntry
		var fileHashes, payload []byte
		if err := rows.Scan(&entry.RepoKey, &entry.ContentHash, &fileHashes, &payload,
			&entry.LastChecked, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		if len(fileHashes) > 0 {
			if err := json.Unmarshal(fileHashes, &entry.FileHashes); err != nil {
				return nil, fmt.Errorf("failed to decode file hashes for %s: %w", entry.RepoKey, err)
			}
		}
		entry.AnalysisPayload = payload
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
