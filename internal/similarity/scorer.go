package similarity

import (
	"math"
	"sort"

	"github.com/hirelens/hirelens/internal/domain"
	"github.com/hirelens/hirelens/internal/textproc"
)

// fieldKeywordSetSize bounds the keyword sets used for field-level Jaccard.
const fieldKeywordSetSize = 64

// Cosine computes the cosine similarity of two equal-length vectors.
// It returns 0.0 on length mismatch or when either vector is all-zero;
// it never fails.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// CosineVectors scores two EmbeddingVectors, returning 0.0 when they are not
// comparable (different model version or dimension).
func CosineVectors(a, b domain.EmbeddingVector) float64 {
	if !a.Comparable(b) {
		return 0.0
	}
	return Cosine(a.Values, b.Values)
}

// Jaccard computes |A∩B| / |A∪B| over two keyword sets. Two empty sets are
// identical absence of content and score 1.0; one empty set scores 0.0.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	union := make(map[string]struct{}, len(a)+len(b))
	for s := range setA {
		union[s] = struct{}{}
	}
	intersection := 0
	for _, s := range b {
		if _, seen := union[s]; !seen {
			union[s] = struct{}{}
			continue
		}
		if _, inA := setA[s]; inA {
			// Count each distinct shared token once.
			delete(setA, s)
			intersection++
		}
	}
	return float64(intersection) / float64(len(union))
}

// WeightedAggregate combines per-field scores into Σ(score·weight)/Σ(weight).
// Fields without a weight are ignored; with no weights at all it returns 0.0.
func WeightedAggregate(scores, weights map[string]float64) float64 {
	var sum, weightSum float64
	for field, weight := range weights {
		if weight <= 0 {
			continue
		}
		score, ok := scores[field]
		if !ok {
			continue
		}
		sum += score * weight
		weightSum += weight
	}
	if weightSum == 0 {
		return 0.0
	}
	return sum / weightSum
}

// Scorer computes document-level similarity scores under configured
// thresholds. All methods are deterministic and replayable.
type Scorer struct {
	levels domain.LevelThresholds

	// Field similarity blends keyword-set Jaccard and raw sequence ratio.
	KeywordWeight  float64
	SequenceWeight float64
}

// NewScorer creates a Scorer with the standard 0.6/0.4 field blend.
func NewScorer(levels domain.LevelThresholds) *Scorer {
	return &Scorer{
		levels:         levels,
		KeywordWeight:  0.6,
		SequenceWeight: 0.4,
	}
}

// Classify maps a score to its configured level.
func (s *Scorer) Classify(value float64) domain.SimilarityLevel {
	return domain.ClassifyLevel(value, s.levels)
}

// FieldSimilarity scores one named field across two documents. A field
// missing or empty on either side scores 0.0 rather than failing.
func (s *Scorer) FieldSimilarity(a, b *domain.Document, field string) domain.SimilarityScore {
	score := domain.SimilarityScore{
		SubjectA: a.ID,
		SubjectB: b.ID,
		Field:    field,
		Method:   domain.MethodWeighted,
	}

	textA := a.Field(field)
	textB := b.Field(field)
	if textA == "" || textB == "" {
		score.Level = s.Classify(0.0)
		return score
	}

	keywordScore := Jaccard(
		textproc.ExtractKeywords(textA, fieldKeywordSetSize),
		textproc.ExtractKeywords(textB, fieldKeywordSetSize),
	)
	sequenceScore := SequenceRatio(textA, textB)

	total := s.KeywordWeight + s.SequenceWeight
	score.Value = (keywordScore*s.KeywordWeight + sequenceScore*s.SequenceWeight) / total
	score.Level = s.Classify(score.Value)
	return score
}

// CompareFields scores every weighted field and the weighted aggregate.
// The aggregate score has an empty Field.
func (s *Scorer) CompareFields(a, b *domain.Document, weights map[string]float64) ([]domain.SimilarityScore, domain.SimilarityScore) {
	fields := make([]string, 0, len(weights))
	for field := range weights {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	fieldScores := make([]domain.SimilarityScore, 0, len(fields))
	scoreValues := make(map[string]float64, len(fields))
	for _, field := range fields {
		fs := s.FieldSimilarity(a, b, field)
		fieldScores = append(fieldScores, fs)
		scoreValues[field] = fs.Value
	}

	aggregate := WeightedAggregate(scoreValues, weights)
	overall := domain.SimilarityScore{
		SubjectA: a.ID,
		SubjectB: b.ID,
		Value:    aggregate,
		Method:   domain.MethodWeighted,
		Level:    s.Classify(aggregate),
	}
	return fieldScores, overall
}
