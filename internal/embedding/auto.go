package embedding

import (
	"context"
	"fmt"
	"log"

	"github.com/hirelens/hirelens/internal/domain"
)

// AutoProvider chains a primary provider and a lower-dimensional local
// fallback. Callers must not assume a fixed dimension across the two: the
// returned vector's ModelVersion identifies which provider answered, and
// a corpus embedded under one version must be re-embedded before being
// compared against vectors from the other.
type AutoProvider struct {
	primary  Provider
	fallback Provider
}

// NewAutoProvider builds the chain. Primary may be nil, in which case every
// call goes straight to the fallback.
func NewAutoProvider(primary, fallback Provider) *AutoProvider {
	return &AutoProvider{primary: primary, fallback: fallback}
}

func (p *AutoProvider) Name() string { return "auto" }

// ModelVersion reports the preferred provider's version: the one vectors are
// persisted under when the primary is healthy.
func (p *AutoProvider) ModelVersion() string {
	if p.primary != nil {
		return p.primary.ModelVersion()
	}
	return p.fallback.ModelVersion()
}

// Dimension reports the preferred provider's dimension. Per-vector dimension
// comes from the vector itself, never from this method.
func (p *AutoProvider) Dimension() int {
	if p.primary != nil {
		return p.primary.Dimension()
	}
	return p.fallback.Dimension()
}

// Embed tries the primary provider and falls back on failure. When both
// fail it surfaces domain.ErrEmbeddingUnavailable, which callers must keep
// distinct from a 0.0 similarity score.
func (p *AutoProvider) Embed(ctx context.Context, text string, kind Kind) (domain.EmbeddingVector, error) {
	var primaryErr error
	if p.primary != nil {
		vec, err := p.primary.Embed(ctx, text, kind)
		if err == nil {
			return vec, nil
		}
		primaryErr = err
		log.Printf("embedding: primary provider %s failed, falling back to %s: %v",
			p.primary.Name(), p.fallback.Name(), err)
	}

	vec, err := p.fallback.Embed(ctx, text, kind)
	if err == nil {
		return vec, nil
	}

	// Wrap the sentinel so errors.Is keeps working for callers.
	if primaryErr != nil {
		return domain.EmbeddingVector{}, fmt.Errorf("%w (primary: %v; fallback: %v)",
			domain.ErrEmbeddingUnavailable, primaryErr, err)
	}
	return domain.EmbeddingVector{}, fmt.Errorf("%w (fallback: %v)", domain.ErrEmbeddingUnavailable, err)
}
