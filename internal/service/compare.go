package service

import (
	"context"
	"time"

	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/domain"
	"github.com/hirelens/hirelens/internal/embedding"
	"github.com/hirelens/hirelens/internal/similarity"
	"github.com/hirelens/hirelens/internal/telemetry"
	"github.com/hirelens/hirelens/internal/textproc"
)

const compareKeywordSetSize = 64

// CompareResult is the full outcome of a pairwise document comparison.
// Overall blends the semantic and keyword channels with the configured
// weights; Fields carries the per-field breakdown for documents that
// expose structured fields.
type CompareResult struct {
	Overall    domain.SimilarityScore   `json:"overall"`
	Semantic   domain.SimilarityScore   `json:"semantic"`
	Keyword    domain.SimilarityScore   `json:"keyword"`
	Fields     []domain.SimilarityScore `json:"fields,omitempty"`
	Similar    bool                     `json:"similar"`
	Plagiarism bool                     `json:"plagiarism"`
	Model      string                   `json:"model"`
	ElapsedMS  int64                    `json:"elapsed_ms"`
}

// CompareService scores two documents against each other.
type CompareService struct {
	normalizer *textproc.Normalizer
	provider   embedding.Provider
	scorer     *similarity.Scorer
	cfg        *config.Config
}

func NewCompareService(n *textproc.Normalizer, p embedding.Provider, sc *similarity.Scorer, cfg *config.Config) *CompareService {
	return &CompareService{normalizer: n, provider: p, scorer: sc, cfg: cfg}
}

// Compare runs the semantic, keyword and per-field channels over the two
// documents and blends them into an overall score. An embedding failure is
// returned as an error rather than folded into the score: a pair we could
// not compare is not the same thing as a dissimilar pair.
func (s *CompareService) Compare(ctx context.Context, a, b *domain.Document) (*CompareResult, error) {
	started := time.Now()

	if err := domain.ValidateDocument(a); err != nil {
		return nil, err
	}
	if err := domain.ValidateDocument(b); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartSpan(ctx, "CompareService.Compare", telemetry.SpanAttributes{
		DocumentID: a.ID,
	})
	defer span.End()

	s.ensureNormalized(a)
	s.ensureNormalized(b)

	va, err := s.provider.Embed(ctx, a.NormalizedText, embedding.KindDocument)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	vb, err := s.provider.Embed(ctx, b.NormalizedText, embedding.KindDocument)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	semantic := similarity.CosineVectors(va, vb)

	ka := textproc.ExtractKeywords(a.NormalizedText, compareKeywordSetSize)
	kb := textproc.ExtractKeywords(b.NormalizedText, compareKeywordSetSize)
	keyword := similarity.Jaccard(ka, kb)

	overall := similarity.WeightedAggregate(
		map[string]float64{"semantic": semantic, "keyword": keyword},
		map[string]float64{"semantic": s.cfg.VectorWeight, "keyword": s.cfg.KeywordWeight},
	)

	result := &CompareResult{
		Overall:    s.score(a, b, "", overall, domain.MethodWeighted),
		Semantic:   s.score(a, b, "", semantic, domain.MethodCosine),
		Keyword:    s.score(a, b, "", keyword, domain.MethodJaccard),
		Similar:    overall >= s.cfg.SimilarityThreshold,
		Plagiarism: overall >= s.cfg.PlagiarismThreshold,
		Model:      va.ModelVersion,
	}

	if len(a.Fields) > 0 && len(b.Fields) > 0 {
		fieldScores, _ := s.scorer.CompareFields(a, b, s.cfg.FieldWeights)
		result.Fields = fieldScores
		for _, fs := range fieldScores {
			if fs.Value >= s.cfg.PlagiarismThreshold {
				result.Plagiarism = true
			}
		}
	}

	result.ElapsedMS = time.Since(started).Milliseconds()
	return result, nil
}

func (s *CompareService) ensureNormalized(doc *domain.Document) {
	if doc.NormalizedText == "" {
		doc.NormalizedText = s.normalizer.Normalize(doc.RawText)
	}
}

func (s *CompareService) score(a, b *domain.Document, field string, value float64, method domain.SimilarityMethod) domain.SimilarityScore {
	return domain.SimilarityScore{
		SubjectA: a.ID,
		SubjectB: b.ID,
		Field:    field,
		Value:    value,
		Method:   method,
		Level:    s.scorer.Classify(value),
	}
}
