// Package embedding provides the embedding-provider contract the similarity
// core depends on, an OpenAI-backed primary implementation, a local
// hashed-feature fallback, and an auto provider that chains the two.
package embedding

import (
	"context"

	"github.com/hirelens/hirelens/internal/domain"
)

// Kind tells asymmetric retrieval models which role a text plays.
type Kind string

const (
	KindQuery    Kind = "query"
	KindDocument Kind = "document"
)

// Provider maps text to a fixed-length numeric vector. Dimension is constant
// for a given ModelVersion; vectors from different providers must never be
// compared, which the returned EmbeddingVector's ModelVersion enforces.
type Provider interface {
	Name() string
	ModelVersion() string
	Dimension() int
	Embed(ctx context.Context, text string, kind Kind) (domain.EmbeddingVector, error)
}
