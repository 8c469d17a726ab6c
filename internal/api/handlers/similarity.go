package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hirelens/hirelens/internal/api"
	"github.com/hirelens/hirelens/internal/domain"
	"github.com/hirelens/hirelens/internal/service"
)

type Comparer interface {
	Compare(ctx context.Context, a, b *domain.Document) (*service.CompareResult, error)
}

type CorpusScorer interface {
	ScoreAgainstCorpus(ctx context.Context, doc *domain.Document, limit int) ([]*service.CorpusMatch, error)
}

type SimilarityHandler struct {
	compare Comparer
	corpus  CorpusScorer
}

func NewSimilarityHandler(compare Comparer, corpus CorpusScorer) *SimilarityHandler {
	return &SimilarityHandler{compare: compare, corpus: corpus}
}

type DocumentPayload struct {
	ID          string            `json:"id"`
	SubjectType string            `json:"subject_type"`
	Text        string            `json:"text"`
	Fields      map[string]string `json:"fields,omitempty"`
}

func (p *DocumentPayload) toDomain() *domain.Document {
	return &domain.Document{
		ID:          p.ID,
		SubjectType: domain.SubjectType(p.SubjectType),
		RawText:     p.Text,
		Fields:      p.Fields,
	}
}

type CompareRequest struct {
	A DocumentPayload `json:"a"`
	B DocumentPayload `json:"b"`
}

// Compare scores two documents against each other.
func (h *SimilarityHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.A.ID == "" || req.B.ID == "" {
		api.Error(w, http.StatusBadRequest, "both documents need an id")
		return
	}
	if req.A.Text == "" || req.B.Text == "" {
		api.Error(w, http.StatusBadRequest, "both documents need text")
		return
	}

	result, err := h.compare.Compare(r.Context(), req.A.toDomain(), req.B.toDomain())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}

type CorpusRequest struct {
	Document DocumentPayload `json:"document"`
	Limit    int             `json:"limit,omitempty"`
}

// Corpus scores one document against the stored corpus.
func (h *SimilarityHandler) Corpus(w http.ResponseWriter, r *http.Request) {
	var req CorpusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Document.ID == "" {
		api.Error(w, http.StatusBadRequest, "document id is required")
		return
	}
	if req.Document.Text == "" {
		api.Error(w, http.StatusBadRequest, "document text is required")
		return
	}

	limit := req.Limit
	if raw := r.URL.Query().Get("limit"); raw != "" && limit == 0 {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	matches, err := h.corpus.ScoreAgainstCorpus(r.Context(), req.Document.toDomain(), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, matches)
}
