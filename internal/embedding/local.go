package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/hirelens/hirelens/internal/domain"
	"github.com/hirelens/hirelens/internal/textproc"
)

// DefaultLocalDimension is intentionally much smaller than the primary
// provider's dimension: the fallback trades recall for availability.
const DefaultLocalDimension = 256

// LocalProvider is the fallback embedding provider. It hashes tokens into a
// fixed-size feature vector with term-frequency weights and L2 normalization.
// No model download, no network, no corpus preparation step.
type LocalProvider struct {
	dimension int
}

// NewLocalProvider creates a local provider with the given dimension
// (DefaultLocalDimension when non-positive).
func NewLocalProvider(dimension int) *LocalProvider {
	if dimension <= 0 {
		dimension = DefaultLocalDimension
	}
	return &LocalProvider{dimension: dimension}
}

func (p *LocalProvider) Name() string { return "local" }

func (p *LocalProvider) ModelVersion() string { return "local/hashed-tf-v1" }

func (p *LocalProvider) Dimension() int { return p.dimension }

// Embed builds the hashed term-frequency vector. The kind is applied as an
// E5-style role prefix so query and document texts land in slightly
// different regions, matching the asymmetric-retrieval contract.
func (p *LocalProvider) Embed(_ context.Context, text string, kind Kind) (domain.EmbeddingVector, error) {
	if text == "" {
		return domain.EmbeddingVector{}, ErrEmptyText
	}

	switch kind {
	case KindQuery:
		text = "query: " + text
	case KindDocument:
		text = "passage: " + text
	}

	values := make([]float32, p.dimension)
	tokens := textproc.Tokenize(text)
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		idx := int(h.Sum32()) % p.dimension
		if idx < 0 {
			idx += p.dimension
		}
		values[idx]++
	}

	var norm float64
	for _, v := range values {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range values {
			values[i] *= scale
		}
	}

	return domain.EmbeddingVector{
		Values:       values,
		ModelVersion: p.ModelVersion(),
	}, nil
}
