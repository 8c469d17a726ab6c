package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hirelens/hirelens/internal/api"
	"github.com/hirelens/hirelens/internal/domain"
	"github.com/hirelens/hirelens/internal/service"
)

type AnalysisRunner interface {
	AnalyzeDocument(ctx context.Context, doc *domain.Document, cacheKey string, force bool) (*service.DocumentAnalysis, error)
	AnalyzeRepository(ctx context.Context, repoKey string, force bool) (*service.RepositoryAnalysis, error)
}

type AnalysisJobStore interface {
	Create(ctx context.Context, job *domain.AnalysisJob) error
	GetByID(ctx context.Context, id string) (*domain.AnalysisJob, error)
}

type AnalysisHandler struct {
	svc  AnalysisRunner
	jobs AnalysisJobStore
}

func NewAnalysisHandler(svc AnalysisRunner, jobs AnalysisJobStore) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, jobs: jobs}
}

type AnalyzeDocumentRequest struct {
	DocumentID  string            `json:"document_id"`
	SubjectType string            `json:"subject_type"`
	Text        string            `json:"text"`
	Fields      map[string]string `json:"fields,omitempty"`
	CacheKey    string            `json:"cache_key,omitempty"`
	Force       bool              `json:"force,omitempty"`
}

type AnalyzeRepositoryRequest struct {
	RepoKey string `json:"repo_key"`
	Force   bool   `json:"force,omitempty"`
	Async   bool   `json:"async,omitempty"`
}

type JobResponse struct {
	ID          string `json:"id"`
	DocumentID  string `json:"document_id,omitempty"`
	RepoKey     string `json:"repo_key,omitempty"`
	Status      string `json:"status"`
	Retries     int32  `json:"retries"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	ProcessedAt string `json:"processed_at,omitempty"`
}

func jobToResponse(j *domain.AnalysisJob) *JobResponse {
	resp := &JobResponse{
		ID:         j.ID,
		DocumentID: j.DocumentID,
		RepoKey:    j.RepoKey,
		Status:     string(j.Status),
		Retries:    j.Retries,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if j.ProcessedAt != nil {
		resp.ProcessedAt = j.ProcessedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// AnalyzeDocument runs the synchronous document pipeline.
func (h *AnalysisHandler) AnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DocumentID == "" {
		api.Error(w, http.StatusBadRequest, "document_id is required")
		return
	}
	if req.Text == "" {
		api.Error(w, http.StatusBadRequest, "text is required")
		return
	}

	doc := &domain.Document{
		ID:          req.DocumentID,
		SubjectType: domain.SubjectType(req.SubjectType),
		RawText:     req.Text,
		Fields:      req.Fields,
	}

	analysis, err := h.svc.AnalyzeDocument(r.Context(), doc, req.CacheKey, req.Force)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, analysis)
}

// AnalyzeRepository runs or enqueues a repository snapshot analysis.
func (h *AnalysisHandler) AnalyzeRepository(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RepoKey == "" {
		api.Error(w, http.StatusBadRequest, "repo_key is required")
		return
	}

	if req.Async {
		job := &domain.AnalysisJob{
			ID:        uuid.NewString(),
			RepoKey:   req.RepoKey,
			Status:    domain.AnalysisJobStatusPending,
			CreatedAt: time.Now().UTC(),
		}
		if err := h.jobs.Create(r.Context(), job); err != nil {
			api.HandleError(w, err)
			return
		}
		api.Success(w, http.StatusAccepted, jobToResponse(job))
		return
	}

	analysis, err := h.svc.AnalyzeRepository(r.Context(), req.RepoKey, req.Force)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, analysis)
}

// GetJob returns the status of a queued analysis.
func (h *AnalysisHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "job id is required")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, jobToResponse(job))
}
