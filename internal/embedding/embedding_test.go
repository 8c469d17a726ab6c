package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/hirelens/internal/domain"
	"github.com/hirelens/hirelens/internal/similarity"
)

// MockEmbeddingAPI mocks the upstream embedding call.
type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func TestLocalProvider_Deterministic(t *testing.T) {
	p := NewLocalProvider(DefaultLocalDimension)

	a, err := p.Embed(context.Background(), "golang backend services", KindDocument)
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), "golang backend services", KindDocument)
	require.NoError(t, err)

	assert.Equal(t, a.Values, b.Values)
	assert.Equal(t, "local/hashed-tf-v1", a.ModelVersion)
}

func TestLocalProvider_Dimension(t *testing.T) {
	p := NewLocalProvider(64)
	assert.Equal(t, 64, p.Dimension())

	vec, err := p.Embed(context.Background(), "some text", KindDocument)
	require.NoError(t, err)
	assert.Len(t, vec.Values, 64)

	assert.Equal(t, DefaultLocalDimension, NewLocalProvider(0).Dimension())
}

func TestLocalProvider_Normalized(t *testing.T) {
	p := NewLocalProvider(DefaultLocalDimension)
	vec, err := p.Embed(context.Background(), "golang postgres kafka redis", KindDocument)
	require.NoError(t, err)

	var norm float64
	for _, v := range vec.Values {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestLocalProvider_KindPrefixSeparatesRoles(t *testing.T) {
	p := NewLocalProvider(DefaultLocalDimension)

	q, err := p.Embed(context.Background(), "golang services", KindQuery)
	require.NoError(t, err)
	d, err := p.Embed(context.Background(), "golang services", KindDocument)
	require.NoError(t, err)

	// The role prefix shifts the vector, but shared tokens keep them close.
	sim := similarity.CosineVectors(q, d)
	assert.Greater(t, sim, 0.5)
	assert.Less(t, sim, 1.0)
}

func TestLocalProvider_EmptyText(t *testing.T) {
	p := NewLocalProvider(DefaultLocalDimension)
	_, err := p.Embed(context.Background(), "", KindDocument)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestOpenAIProvider_Embed(t *testing.T) {
	api := new(MockEmbeddingAPI)
	p := &OpenAIProvider{api: api, model: DefaultOpenAIModel, dimension: 3}

	api.On("CreateEmbeddings", mock.Anything, "hello").Return([]float32{0.1, 0.2, 0.3}, nil)

	vec, err := p.Embed(context.Background(), "hello", KindDocument)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec.Values)
	assert.Equal(t, "openai/"+string(DefaultOpenAIModel), vec.ModelVersion)
	api.AssertExpectations(t)
}

func TestOpenAIProvider_EmptyText(t *testing.T) {
	api := new(MockEmbeddingAPI)
	p := &OpenAIProvider{api: api, model: DefaultOpenAIModel, dimension: 3}

	_, err := p.Embed(context.Background(), "", KindDocument)
	assert.ErrorIs(t, err, ErrEmptyText)
	api.AssertNotCalled(t, "CreateEmbeddings")
}

func TestOpenAIProvider_WrongDimension(t *testing.T) {
	api := new(MockEmbeddingAPI)
	p := &OpenAIProvider{api: api, model: DefaultOpenAIModel, dimension: 3}

	api.On("CreateEmbeddings", mock.Anything, "hello").Return([]float32{0.1, 0.2}, nil)

	_, err := p.Embed(context.Background(), "hello", KindDocument)
	assert.ErrorIs(t, err, ErrWrongDimension)
}

func TestOpenAIProvider_APIError(t *testing.T) {
	api := new(MockEmbeddingAPI)
	p := &OpenAIProvider{api: api, model: DefaultOpenAIModel, dimension: 3}

	api.On("CreateEmbeddings", mock.Anything, "hello").Return(nil, errors.New("rate limited"))

	_, err := p.Embed(context.Background(), "hello", KindDocument)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestAutoProvider_PrimaryHealthy(t *testing.T) {
	api := new(MockEmbeddingAPI)
	primary := &OpenAIProvider{api: api, model: DefaultOpenAIModel, dimension: 3}
	auto := NewAutoProvider(primary, NewLocalProvider(DefaultLocalDimension))

	api.On("CreateEmbeddings", mock.Anything, "hello").Return([]float32{1, 0, 0}, nil)

	vec, err := auto.Embed(context.Background(), "hello", KindDocument)
	require.NoError(t, err)
	assert.Equal(t, primary.ModelVersion(), vec.ModelVersion)
	assert.Equal(t, primary.ModelVersion(), auto.ModelVersion())
	assert.Equal(t, 3, auto.Dimension())
}

func TestAutoProvider_FallsBack(t *testing.T) {
	api := new(MockEmbeddingAPI)
	primary := &OpenAIProvider{api: api, model: DefaultOpenAIModel, dimension: 3}
	auto := NewAutoProvider(primary, NewLocalProvider(DefaultLocalDimension))

	api.On("CreateEmbeddings", mock.Anything, "hello").Return(nil, errors.New("timeout"))

	vec, err := auto.Embed(context.Background(), "hello", KindDocument)
	require.NoError(t, err)
	assert.Equal(t, "local/hashed-tf-v1", vec.ModelVersion)
	assert.Len(t, vec.Values, DefaultLocalDimension)
}

func TestAutoProvider_BothFail(t *testing.T) {
	api := new(MockEmbeddingAPI)
	primary := &OpenAIProvider{api: api, model: DefaultOpenAIModel, dimension: 3}
	auto := NewAutoProvider(primary, NewLocalProvider(DefaultLocalDimension))

	api.On("CreateEmbeddings", mock.Anything, "").Maybe()

	// Empty text fails both providers; the sentinel must survive wrapping.
	_, err := auto.Embed(context.Background(), "", KindDocument)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestAutoProvider_NoPrimary(t *testing.T) {
	auto := NewAutoProvider(nil, NewLocalProvider(DefaultLocalDimension))

	assert.Equal(t, "local/hashed-tf-v1", auto.ModelVersion())
	assert.Equal(t, DefaultLocalDimension, auto.Dimension())

	vec, err := auto.Embed(context.Background(), "hello", KindDocument)
	require.NoError(t, err)
	assert.Equal(t, "local/hashed-tf-v1", vec.ModelVersion)

	_, err = auto.Embed(context.Background(), "", KindDocument)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}
