package domain

// SimilarityMethod names the algorithm that produced a score.
type SimilarityMethod string

const (
	MethodCosine   SimilarityMethod = "cosine"
	MethodJaccard  SimilarityMethod = "jaccard"
	MethodSequence SimilarityMethod = "sequence"
	MethodWeighted SimilarityMethod = "weighted"
)

// SimilarityLevel is the coarse classification of a similarity score.
type SimilarityLevel string

const (
	LevelHigh   SimilarityLevel = "HIGH"
	LevelMedium SimilarityLevel = "MEDIUM"
	LevelLow    SimilarityLevel = "LOW"
)

// Rank orders levels LOW < MEDIUM < HIGH for monotonicity checks.
func (l SimilarityLevel) Rank() int {
	switch l {
	case LevelHigh:
		return 2
	case LevelMedium:
		return 1
	default:
		return 0
	}
}

// LevelThresholds holds the classification cut-offs. These are configuration,
// not literals baked into call sites.
type LevelThresholds struct {
	High   float64
	Medium float64
}

// DefaultLevelThresholds returns the standard HIGH >= 0.8 / MEDIUM >= 0.6 cuts.
func DefaultLevelThresholds() LevelThresholds {
	return LevelThresholds{High: 0.8, Medium: 0.6}
}

// ClassifyLevel maps a score in [0,1] to a SimilarityLevel.
func ClassifyLevel(value float64, t LevelThresholds) SimilarityLevel {
	switch {
	case value >= t.High:
		return LevelHigh
	case value >= t.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// SimilarityScore is one pairwise similarity result. Field is empty for
// whole-document scores.
type SimilarityScore struct {
	SubjectA string           `json:"subject_a"`
	SubjectB string           `json:"subject_b"`
	Field    string           `json:"field,omitempty"`
	Value    float64          `json:"value"`
	Method   SimilarityMethod `json:"method"`
	Level    SimilarityLevel  `json:"level"`
}
