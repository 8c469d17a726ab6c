package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hirelens/hirelens/internal/api"
	"github.com/hirelens/hirelens/internal/cache"
	"github.com/hirelens/hirelens/internal/domain"
)

type CacheInspector interface {
	GetCached(ctx context.Context, repoKey string, maxAge time.Duration) (*cache.Lookup, error)
	CheckForChanges(ctx context.Context, repoKey string, currentHashes map[string]string) (*domain.ChangeReport, error)
	CheckContentHash(ctx context.Context, repoKey, currentHash string) (bool, error)
	Invalidate(ctx context.Context, repoKey string) error
}

type CacheLister interface {
	List(ctx context.Context, limit int) ([]*domain.CacheEntry, error)
}

type CacheHandler struct {
	detector CacheInspector
	entries  CacheLister
	maxAge   time.Duration
}

func NewCacheHandler(detector CacheInspector, entries CacheLister, maxAge time.Duration) *CacheHandler {
	return &CacheHandler{detector: detector, entries: entries, maxAge: maxAge}
}

type CacheEntryResponse struct {
	RepoKey     string          `json:"repo_key"`
	State       string          `json:"state"`
	ContentHash string          `json:"content_hash,omitempty"`
	FileCount   int             `json:"file_count"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	LastChecked string          `json:"last_checked"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

func cacheEntryToResponse(entry *domain.CacheEntry, state domain.CacheState) *CacheEntryResponse {
	return &CacheEntryResponse{
		RepoKey:     entry.RepoKey,
		State:       string(state),
		ContentHash: entry.ContentHash,
		FileCount:   len(entry.FileHashes),
		Payload:     entry.AnalysisPayload,
		LastChecked: entry.LastChecked.Format("2006-01-02T15:04:05Z"),
		CreatedAt:   entry.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   entry.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Get returns one cache entry with its freshness state.
func (h *CacheHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		api.Error(w, http.StatusBadRequest, "cache key is required")
		return
	}

	lookup, err := h.detector.GetCached(r.Context(), key, h.maxAge)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if lookup.State == domain.CacheAbsent {
		api.Error(w, http.StatusNotFound, "cache entry not found")
		return
	}

	api.Success(w, http.StatusOK, cacheEntryToResponse(lookup.Entry, lookup.State))
}

// List returns recent cache entries without payloads.
func (h *CacheHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.entries.List(r.Context(), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	now := time.Now().UTC()
	responses := make([]*CacheEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp := cacheEntryToResponse(entry, entry.State(now, h.maxAge))
		resp.Payload = nil
		responses = append(responses, resp)
	}

	api.Success(w, http.StatusOK, responses)
}

type CacheCheckRequest struct {
	FileHashes  map[string]string `json:"file_hashes,omitempty"`
	ContentHash string            `json:"content_hash,omitempty"`
}

type CacheCheckResponse struct {
	Changed bool                 `json:"changed"`
	Report  *domain.ChangeReport `json:"report,omitempty"`
}

// Check diffs caller-supplied hashes against the stored entry without
// mutating it. Either a per-file hash map or a single content hash works.
func (h *CacheHandler) Check(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		api.Error(w, http.StatusBadRequest, "cache key is required")
		return
	}

	var req CacheCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.FileHashes) == 0 && req.ContentHash == "" {
		api.Error(w, http.StatusBadRequest, "file_hashes or content_hash is required")
		return
	}

	if len(req.FileHashes) > 0 {
		report, err := h.detector.CheckForChanges(r.Context(), key, req.FileHashes)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		api.Success(w, http.StatusOK, CacheCheckResponse{Changed: report.HasChanges(), Report: report})
		return
	}

	changed, err := h.detector.CheckContentHash(r.Context(), key, req.ContentHash)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, CacheCheckResponse{Changed: changed})
}

// Invalidate drops a cache entry. Missing entries are not an error.
func (h *CacheHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		api.Error(w, http.StatusBadRequest, "cache key is required")
		return
	}

	if err := h.detector.Invalidate(r.Context(), key); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}
