package domain

import (
	"encoding/json"
	"time"
)

// CacheState describes where a cache entry sits in the freshness lifecycle.
type CacheState string

const (
	CacheAbsent CacheState = "absent"
	CacheFresh  CacheState = "fresh"
	CacheStale  CacheState = "stale"
)

// CacheEntry is the persisted change-detection fingerprint for one analysis
// subject. One entry per RepoKey; upserted, never duplicated.
type CacheEntry struct {
	RepoKey         string
	ContentHash     string
	FileHashes      map[string]string
	AnalysisPayload json.RawMessage
	LastChecked     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// State classifies the entry against the given max age. A nil entry is absent.
func (e *CacheEntry) State(now time.Time, maxAge time.Duration) CacheState {
	if e == nil {
		return CacheAbsent
	}
	if maxAge > 0 && now.Sub(e.LastChecked) > maxAge {
		return CacheStale
	}
	return CacheFresh
}

// ImpactLevel classifies the magnitude of detected change.
type ImpactLevel string

const (
	ImpactNone   ImpactLevel = "none"
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
	ImpactMajor  ImpactLevel = "major"
)

// ClassifyImpact maps a change ratio to an ImpactLevel.
func ClassifyImpact(ratio float64) ImpactLevel {
	switch {
	case ratio == 0:
		return ImpactNone
	case ratio < 0.1:
		return ImpactLow
	case ratio < 0.3:
		return ImpactMedium
	case ratio < 0.6:
		return ImpactHigh
	default:
		return ImpactMajor
	}
}

// ChangeReport is the derived (never persisted) result of comparing current
// sub-resource hashes against a stored CacheEntry.
type ChangeReport struct {
	Added     []string `json:"added"`
	Modified  []string `json:"modified"`
	Deleted   []string `json:"deleted"`
	Unchanged []string `json:"unchanged"`

	ChangeRatio              float64     `json:"change_ratio"`
	Impact                   ImpactLevel `json:"impact_level"`
	ImportantResourceChanged bool        `json:"important_resource_changed"`
}

// HasChanges reports whether any resource was added, modified or deleted.
func (r *ChangeReport) HasChanges() bool {
	return len(r.Added)+len(r.Modified)+len(r.Deleted) > 0
}
