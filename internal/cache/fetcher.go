package cache

import (
	"context"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ContentFetcher retrieves sub-resource contents for hashing, e.g. files of
// a repository snapshot.
type ContentFetcher interface {
	// List returns the sub-resource paths under root.
	List(ctx context.Context, root string) ([]string, error)
	// Fetch returns the content of one sub-resource.
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// HashFetcher hashes a set of sub-resources with bounded concurrency so the
// upstream provider is never overwhelmed. Each fetch is independent: one
// failure does not cancel its siblings; the failed resource keeps its prior
// hash for this cycle (treated as unchanged) or is skipped when it has none.
// Cancelling the context aborts the whole batch with an error so a partial
// hash map is never mistaken for a complete one.
type HashFetcher struct {
	fetcher     ContentFetcher
	concurrency int64
}

// NewHashFetcher creates a HashFetcher with the given concurrency bound
// (minimum 1).
func NewHashFetcher(fetcher ContentFetcher, concurrency int) *HashFetcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &HashFetcher{fetcher: fetcher, concurrency: int64(concurrency)}
}

// HashTree lists the sub-resources under root and returns path → sha256.
// prior supplies last cycle's hashes for fetch-failure carry-over.
func (h *HashFetcher) HashTree(ctx context.Context, root string, prior map[string]string) (map[string]string, error) {
	paths, err := h.fetcher.List(ctx, root)
	if err != nil {
		return nil, err
	}
	return h.HashAll(ctx, paths, prior)
}

// HashAll hashes the given paths with bounded concurrency.
func (h *HashFetcher) HashAll(ctx context.Context, paths []string, prior map[string]string) (map[string]string, error) {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	hashes := make(map[string]string, len(sorted))
	var mu sync.Mutex

	sem := semaphore.NewWeighted(h.concurrency)
	g, ctx := errgroup.WithContext(ctx)

	for _, p := range sorted {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				// Batch cancelled; surface it so no partial map is persisted.
				return err
			}
			defer sem.Release(1)

			content, err := h.fetcher.Fetch(ctx, p)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("hash fetch: skipping %s (treated as unchanged this cycle): %v", p, err)
				mu.Lock()
				if priorHash, ok := prior[p]; ok {
					hashes[p] = priorHash
				}
				mu.Unlock()
				return nil
			}

			mu.Lock()
			hashes[p] = SHA256Hex(content)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hashes, nil
}
