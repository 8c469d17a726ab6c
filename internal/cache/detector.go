package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/hirelens/hirelens/internal/domain"
)

// Store is the persistence abstraction for cache entries. Implementations
// must upsert atomically per repo key (last writer wins) and preserve
// CreatedAt across upserts.
type Store interface {
	Get(ctx context.Context, repoKey string) (*domain.CacheEntry, error)
	Upsert(ctx context.Context, entry *domain.CacheEntry) error
	TouchLastChecked(ctx context.Context, repoKey string, at time.Time) error
	Delete(ctx context.Context, repoKey string) error
}

// Options tunes the change classification. The stated defaults are
// heuristics, not a guaranteed-correct classifier; they are deliberately
// configurable.
type Options struct {
	// ImportantPaths is the allow-list of structurally significant
	// resources, matched by full path or base name.
	ImportantPaths []string
	// FullReanalysisRatio: a change ratio above this forces full re-analysis.
	FullReanalysisRatio float64
	// FullReanalysisAdds: more additions than this in one check forces full
	// re-analysis.
	FullReanalysisAdds int
}

// Detector decides whether cached analysis results are still trustworthy
// and classifies the magnitude of detected change.
type Detector struct {
	store Store
	opts  Options
	now   func() time.Time
}

// NewDetector creates a Detector over the given store.
func NewDetector(store Store, opts Options) *Detector {
	return &Detector{store: store, opts: opts, now: func() time.Time { return time.Now().UTC() }}
}

// Lookup is the result of a freshness check.
type Lookup struct {
	State domain.CacheState
	Entry *domain.CacheEntry
}

// Payload returns the cached analysis payload, or nil when absent.
func (l *Lookup) Payload() json.RawMessage {
	if l == nil || l.Entry == nil {
		return nil
	}
	return l.Entry.AnalysisPayload
}

// GetCached looks up the entry for repoKey and classifies it against maxAge.
// Absent forces a full analysis; fresh entries can be served as-is; stale
// entries require an explicit hash re-check before the cache is trusted.
// A store failure is fatal for the caller's cache decision and propagates.
func (d *Detector) GetCached(ctx context.Context, repoKey string, maxAge time.Duration) (*Lookup, error) {
	entry, err := d.store.Get(ctx, repoKey)
	if err != nil {
		if errors.Is(err, domain.ErrCacheEntryNotFound) {
			return &Lookup{State: domain.CacheAbsent}, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheStoreUnavailable, err)
	}

	return &Lookup{State: entry.State(d.now(), maxAge), Entry: entry}, nil
}

// CheckForChanges diffs currentHashes against the stored per-file hash map
// and classifies every path as added, modified, deleted or unchanged.
// With no stored entry every current path counts as added.
func (d *Detector) CheckForChanges(ctx context.Context, repoKey string, currentHashes map[string]string) (*domain.ChangeReport, error) {
	var stored map[string]string
	entry, err := d.store.Get(ctx, repoKey)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheEntryNotFound) {
			return nil, fmt.Errorf("%w: %v", domain.ErrCacheStoreUnavailable, err)
		}
	} else {
		stored = entry.FileHashes
	}

	report := d.diff(stored, currentHashes)
	return report, nil
}

// CheckContentHash compares a scalar content hash for single-hash subjects.
// It returns true when the subject changed since the stored entry.
func (d *Detector) CheckContentHash(ctx context.Context, repoKey, currentHash string) (bool, error) {
	entry, err := d.store.Get(ctx, repoKey)
	if err != nil {
		if errors.Is(err, domain.ErrCacheEntryNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("%w: %v", domain.ErrCacheStoreUnavailable, err)
	}
	return entry.ContentHash != currentHash, nil
}

func (d *Detector) diff(stored, current map[string]string) *domain.ChangeReport {
	report := &domain.ChangeReport{
		Added:     []string{},
		Modified:  []string{},
		Deleted:   []string{},
		Unchanged: []string{},
	}

	for p, hash := range current {
		storedHash, ok := stored[p]
		switch {
		case !ok:
			report.Added = append(report.Added, p)
		case storedHash != hash:
			report.Modified = append(report.Modified, p)
		default:
			report.Unchanged = append(report.Unchanged, p)
		}
	}
	for p := range stored {
		if _, ok := current[p]; !ok {
			report.Deleted = append(report.Deleted, p)
		}
	}

	sort.Strings(report.Added)
	sort.Strings(report.Modified)
	sort.Strings(report.Deleted)
	sort.Strings(report.Unchanged)

	changed := len(report.Added) + len(report.Modified) + len(report.Deleted)
	total := changed + len(report.Unchanged)
	if total > 0 {
		report.ChangeRatio = float64(changed) / float64(total)
	}
	report.Impact = domain.ClassifyImpact(report.ChangeRatio)

	for _, p := range report.Added {
		if d.isImportant(p) {
			report.ImportantResourceChanged = true
		}
	}
	for _, p := range report.Modified {
		if d.isImportant(p) {
			report.ImportantResourceChanged = true
		}
	}
	for _, p := range report.Deleted {
		if d.isImportant(p) {
			report.ImportantResourceChanged = true
		}
	}

	return report
}

func (d *Detector) isImportant(resource string) bool {
	for _, important := range d.opts.ImportantPaths {
		if resource == important || path.Base(resource) == important {
			return true
		}
	}
	return false
}

// NeedsFullReanalysis applies the incremental-vs-full heuristic: a full
// re-analysis is required when a structurally significant resource changed,
// the change ratio exceeds the configured bound, or too many resources were
// added in one check. Otherwise only the changed resources are reprocessed.
func (d *Detector) NeedsFullReanalysis(report *domain.ChangeReport) bool {
	if report.ImportantResourceChanged {
		return true
	}
	if report.ChangeRatio > d.opts.FullReanalysisRatio {
		return true
	}
	return len(report.Added) > d.opts.FullReanalysisAdds
}

// Save upserts the cache entry for repoKey: analysis payload, per-file
// hashes, and a canonical content hash over the equivalence projection.
// CreatedAt of a prior entry is preserved by the store.
func (d *Detector) Save(ctx context.Context, repoKey string, payload json.RawMessage, equivalence any, fileHashes map[string]string) error {
	contentHash, err := ContentHash(equivalence)
	if err != nil {
		return err
	}

	now := d.now()
	entry := &domain.CacheEntry{
		RepoKey:         repoKey,
		ContentHash:     contentHash,
		FileHashes:      fileHashes,
		AnalysisPayload: payload,
		LastChecked:     now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := d.store.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheStoreUnavailable, err)
	}
	return nil
}

// MarkChecked records that the stored hashes were re-verified without any
// change, resetting the staleness clock.
func (d *Detector) MarkChecked(ctx context.Context, repoKey string) error {
	if err := d.store.TouchLastChecked(ctx, repoKey, d.now()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheStoreUnavailable, err)
	}
	return nil
}

// Invalidate removes the entry for repoKey, forcing the next lookup to run
// a full analysis.
func (d *Detector) Invalidate(ctx context.Context, repoKey string) error {
	if err := d.store.Delete(ctx, repoKey); err != nil {
		if errors.Is(err, domain.ErrCacheEntryNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", domain.ErrCacheStoreUnavailable, err)
	}
	return nil
}
