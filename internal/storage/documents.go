package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hirelens/hirelens/internal/cache"
	"github.com/hirelens/hirelens/internal/domain"
)

const documentPrefix = "documents/"

// DocumentStore reads documents stored as JSON objects under documents/.
// It backs the queued-analysis path, where only a document ID travels
// through the job table.
type DocumentStore struct {
	store *SnapshotStore
}

func NewDocumentStore(store *SnapshotStore) *DocumentStore {
	return &DocumentStore{store: store}
}

// GetDocument fetches and decodes documents/<id>.json.
func (d *DocumentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	content, err := d.store.Fetch(ctx, documentPrefix+id+".json")
	if err != nil {
		return nil, fmt.Errorf("fetch document %s: %w", id, err)
	}

	var doc domain.Document
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	if doc.ID == "" {
		doc.ID = id
	}
	if err := domain.ValidateDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SnapshotSourceFor adapts the snapshot store to the analysis service's
// per-repo fetcher contract.
type SnapshotSource struct {
	store *SnapshotStore
}

func NewSnapshotSource(store *SnapshotStore) *SnapshotSource {
	return &SnapshotSource{store: store}
}

func (s *SnapshotSource) FetcherFor(repoKey string) cache.ContentFetcher {
	return s.store.Fetcher(SnapshotPrefix(repoKey))
}
