package service

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/hirelens/hirelens/internal/cache"
	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/domain"
	"github.com/hirelens/hirelens/internal/embedding"
	"github.com/hirelens/hirelens/internal/repository"
	"github.com/hirelens/hirelens/internal/similarity"
	"github.com/hirelens/hirelens/internal/textproc"
)

// testConfig mirrors the production defaults, including the OpenAI-sized
// embedding dimension. Persistence keys off the provider's own dimension,
// so local vectors must survive under this config too.
func testConfig() *config.Config {
	return &config.Config{
		DatabaseURL:             "postgres://test",
		EmbeddingDimension:      1536,
		SimilarityThreshold:     0.3,
		PlagiarismThreshold:     0.8,
		LevelHighThreshold:      0.8,
		LevelMediumThreshold:    0.6,
		DuplicateThreshold:      0.8,
		VectorWeight:            0.5,
		KeywordWeight:           0.5,
		FieldWeights:            map[string]float64{"motivation": 1.0, "careerHistory": 1.0},
		ResumeChunkSize:         500,
		ResumeChunkOverlap:      50,
		CoverLetterChunkSize:    400,
		CoverLetterChunkOverlap: 50,
		RepositoryChunkSize:     1200,
		RepositoryChunkOverlap:  200,
		CacheMaxAge:             24 * time.Hour,
		ImportantPaths:          []string{"go.mod", "package.json", "README.md"},
		FullReanalysisRatio:     0.5,
		FullReanalysisAdds:      10,
		HashFetchConcurrency:    4,
	}
}

func testScorer(cfg *config.Config) *similarity.Scorer {
	return similarity.NewScorer(cfg.LevelThresholds())
}

func localProvider() embedding.Provider {
	return embedding.NewLocalProvider(embedding.DefaultLocalDimension)
}

// failingProvider always fails, standing in for an outage of every provider.
type failingProvider struct{}

func (failingProvider) Name() string         { return "failing" }
func (failingProvider) ModelVersion() string { return "failing/v1" }
func (failingProvider) Dimension() int       { return 8 }
func (failingProvider) Embed(context.Context, string, embedding.Kind) (domain.EmbeddingVector, error) {
	return domain.EmbeddingVector{}, errors.New("provider down")
}

// MockChunkStore mocks chunk persistence.
type MockChunkStore struct {
	mock.Mock
}

func (m *MockChunkStore) ReplaceChunks(ctx context.Context, documentID string, subjectType domain.SubjectType, chunks []domain.Chunk, vectors []domain.EmbeddingVector) error {
	args := m.Called(ctx, documentID, subjectType, chunks, vectors)
	return args.Error(0)
}

func (m *MockChunkStore) DeleteChunks(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

// MockCacheStore mocks the cache entry store behind the detector.
type MockCacheStore struct {
	mock.Mock
}

func (m *MockCacheStore) Get(ctx context.Context, repoKey string) (*domain.CacheEntry, error) {
	args := m.Called(ctx, repoKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CacheEntry), args.Error(1)
}

func (m *MockCacheStore) Upsert(ctx context.Context, entry *domain.CacheEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockCacheStore) TouchLastChecked(ctx context.Context, repoKey string, at time.Time) error {
	args := m.Called(ctx, repoKey, at)
	return args.Error(0)
}

func (m *MockCacheStore) Delete(ctx context.Context, repoKey string) error {
	args := m.Called(ctx, repoKey)
	return args.Error(0)
}

func testDetector(store cache.Store, cfg *config.Config) *cache.Detector {
	return cache.NewDetector(store, cache.Options{
		ImportantPaths:      cfg.ImportantPaths,
		FullReanalysisRatio: cfg.FullReanalysisRatio,
		FullReanalysisAdds:  cfg.FullReanalysisAdds,
	})
}

// MockVectorIndex mocks semantic candidate search.
type MockVectorIndex struct {
	mock.Mock
}

func (m *MockVectorIndex) SearchSemantic(ctx context.Context, embedding []float32, modelVersion string, subjectType domain.SubjectType, limit int) ([]*repository.CandidateMatch, error) {
	args := m.Called(ctx, embedding, modelVersion, subjectType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.CandidateMatch), args.Error(1)
}

// MockKeywordIndex mocks lexical candidate search.
type MockKeywordIndex struct {
	mock.Mock
}

func (m *MockKeywordIndex) SearchLexical(ctx context.Context, query string, subjectType domain.SubjectType, limit int) ([]*repository.CandidateMatch, error) {
	args := m.Called(ctx, query, subjectType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.CandidateMatch), args.Error(1)
}

// mapSnapshots serves snapshot file contents from an in-memory map.
type mapSnapshots struct {
	files map[string][]byte
}

func (s *mapSnapshots) FetcherFor(string) cache.ContentFetcher { return s }

func (s *mapSnapshots) List(context.Context, string) ([]string, error) {
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	return paths, nil
}

func (s *mapSnapshots) Fetch(_ context.Context, path string) ([]byte, error) {
	content, ok := s.files[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return content, nil
}

func testNormalizer() *textproc.Normalizer {
	return textproc.DefaultNormalizer()
}
