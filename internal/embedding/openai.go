package embedding

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hirelens/hirelens/internal/domain"
)

const (
	// DefaultOpenAIModel is the OpenAI model used for generating embeddings
	DefaultOpenAIModel = openai.AdaEmbeddingV2
	// DefaultOpenAIDimension is the expected dimension of embeddings from ada-002
	DefaultOpenAIDimension = 1536
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimension is returned when an embedding has unexpected dimensions
	ErrWrongDimension = errors.New("embedding has wrong dimensions")
)

// EmbeddingAPI defines the interface for the upstream embedding call
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// OpenAIProvider is the primary embedding provider.
type OpenAIProvider struct {
	api       EmbeddingAPI
	model     openai.EmbeddingModel
	dimension int
}

type openAIAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func newOpenAIAdapter(apiKey string, model openai.EmbeddingModel) *openAIAdapter {
	return &openAIAdapter{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *openAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey    string
	Model     openai.EmbeddingModel
	Dimension int
}

// NewOpenAIProvider creates the provider with defaults for unset fields.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = DefaultOpenAIDimension
	}
	return &OpenAIProvider{
		api:       newOpenAIAdapter(cfg.APIKey, model),
		model:     model,
		dimension: dimension,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) ModelVersion() string { return "openai/" + string(p.model) }

func (p *OpenAIProvider) Dimension() int { return p.dimension }

// Embed generates an embedding for the given text. OpenAI embedding models
// are symmetric, so the kind requires no prefix transformation here.
func (p *OpenAIProvider) Embed(ctx context.Context, text string, _ Kind) (domain.EmbeddingVector, error) {
	if text == "" {
		return domain.EmbeddingVector{}, ErrEmptyText
	}

	values, err := p.api.CreateEmbeddings(ctx, text)
	if err != nil {
		return domain.EmbeddingVector{}, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(values) != p.dimension {
		return domain.EmbeddingVector{}, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimension, p.dimension, len(values))
	}

	return domain.EmbeddingVector{
		Values:       values,
		ModelVersion: p.ModelVersion(),
	}, nil
}
