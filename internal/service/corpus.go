package service

import (
	"context"
	"sort"
	"strings"

	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/domain"
	"github.com/hirelens/hirelens/internal/embedding"
	"github.com/hirelens/hirelens/internal/repository"
	"github.com/hirelens/hirelens/internal/similarity"
	"github.com/hirelens/hirelens/internal/telemetry"
	"github.com/hirelens/hirelens/internal/textproc"
)

const (
	corpusCandidateMultiplier = 4
	corpusMinCandidates       = 20
	corpusMaxCandidates       = 200
)

// VectorIndex serves nearest-neighbour candidates for a query embedding.
type VectorIndex interface {
	SearchSemantic(ctx context.Context, embedding []float32, modelVersion string, subjectType domain.SubjectType, limit int) ([]*repository.CandidateMatch, error)
}

// KeywordIndex serves full-text candidates for a keyword query.
type KeywordIndex interface {
	SearchLexical(ctx context.Context, query string, subjectType domain.SubjectType, limit int) ([]*repository.CandidateMatch, error)
}

// CorpusMatch is one corpus document scored against the probe document.
type CorpusMatch struct {
	DocumentID    string                 `json:"document_id"`
	SubjectType   domain.SubjectType     `json:"subject_type"`
	ChunkIndex    int                    `json:"chunk_index"`
	Snippet       string                 `json:"snippet,omitempty"`
	SemanticScore float64                `json:"semantic_score"`
	KeywordScore  float64                `json:"keyword_score"`
	Score         float64                `json:"score"`
	Level         domain.SimilarityLevel `json:"level"`
}

// CorpusService scores a document against the stored corpus by blending
// vector-space and full-text candidates under the configured weights.
type CorpusService struct {
	normalizer *textproc.Normalizer
	provider   embedding.Provider
	vectors    VectorIndex
	keywords   KeywordIndex
	scorer     *similarity.Scorer
	cfg        *config.Config
}

func NewCorpusService(n *textproc.Normalizer, p embedding.Provider, v VectorIndex, k KeywordIndex, sc *similarity.Scorer, cfg *config.Config) *CorpusService {
	return &CorpusService{normalizer: n, provider: p, vectors: v, keywords: k, scorer: sc, cfg: cfg}
}

// ScoreAgainstCorpus embeds the probe document, gathers semantic and lexical
// candidates, keeps the best chunk per document on each channel and blends
// the two channels into a single score per document. Documents below the
// similarity threshold are dropped. The probe itself is excluded.
func (s *CorpusService) ScoreAgainstCorpus(ctx context.Context, doc *domain.Document, limit int) ([]*CorpusMatch, error) {
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}
	if doc.NormalizedText == "" {
		doc.NormalizedText = s.normalizer.Normalize(doc.RawText)
	}
	if limit <= 0 {
		limit = 10
	}

	ctx, span := telemetry.StartSpan(ctx, "CorpusService.ScoreAgainstCorpus", telemetry.SpanAttributes{
		DocumentID: doc.ID,
	})
	defer span.End()

	candidateLimit := limit * corpusCandidateMultiplier
	if candidateLimit < corpusMinCandidates {
		candidateLimit = corpusMinCandidates
	}
	if candidateLimit > corpusMaxCandidates {
		candidateLimit = corpusMaxCandidates
	}

	vector, err := s.provider.Embed(ctx, doc.NormalizedText, embedding.KindQuery)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	semantic, err := s.vectors.SearchSemantic(ctx, vector.Values, vector.ModelVersion, doc.SubjectType, candidateLimit)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	var lexical []*repository.CandidateMatch
	query := strings.Join(textproc.ExtractKeywords(doc.NormalizedText, compareKeywordSetSize), " ")
	if query != "" {
		lexical, err = s.keywords.SearchLexical(ctx, query, doc.SubjectType, candidateLimit)
		if err != nil {
			return nil, err
		}
	}

	merged := make(map[string]*CorpusMatch)
	order := make([]string, 0, len(semantic)+len(lexical))

	for _, c := range semantic {
		if c.DocumentID == doc.ID {
			continue
		}
		m, ok := merged[c.DocumentID]
		if !ok {
			m = &CorpusMatch{DocumentID: c.DocumentID, SubjectType: c.SubjectType, ChunkIndex: c.ChunkIndex, Snippet: makeSnippet(c.Content)}
			merged[c.DocumentID] = m
			order = append(order, c.DocumentID)
		}
		if c.Score > m.SemanticScore {
			m.SemanticScore = c.Score
			m.ChunkIndex = c.ChunkIndex
			m.Snippet = makeSnippet(c.Content)
		}
	}
	for _, c := range lexical {
		if c.DocumentID == doc.ID {
			continue
		}
		m, ok := merged[c.DocumentID]
		if !ok {
			m = &CorpusMatch{DocumentID: c.DocumentID, SubjectType: c.SubjectType, ChunkIndex: c.ChunkIndex, Snippet: makeSnippet(c.Content)}
			merged[c.DocumentID] = m
			order = append(order, c.DocumentID)
		}
		if c.Score > m.KeywordScore {
			m.KeywordScore = c.Score
		}
	}

	results := make([]*CorpusMatch, 0, len(merged))
	for _, id := range order {
		m := merged[id]
		m.Score = similarity.WeightedAggregate(
			map[string]float64{"semantic": m.SemanticScore, "keyword": m.KeywordScore},
			map[string]float64{"semantic": s.cfg.VectorWeight, "keyword": s.cfg.KeywordWeight},
		)
		m.Level = s.scorer.Classify(m.Score)
		if m.Score >= s.cfg.SimilarityThreshold {
			results = append(results, m)
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

const snippetMaxChars = 220

func makeSnippet(content string) string {
	text := strings.Join(strings.Fields(content), " ")
	if text == "" {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= snippetMaxChars {
		return text
	}
	return strings.TrimSpace(string(runes[:snippetMaxChars])) + "…"
}
