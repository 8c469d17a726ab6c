//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/hirelens/internal/api/handlers"
	"github.com/hirelens/hirelens/internal/cache"
	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/embedding"
	"github.com/hirelens/hirelens/internal/repository"
	"github.com/hirelens/hirelens/internal/server"
	"github.com/hirelens/hirelens/internal/service"
	"github.com/hirelens/hirelens/internal/similarity"
	"github.com/hirelens/hirelens/internal/storage"
	"github.com/hirelens/hirelens/internal/testutil"
	"github.com/hirelens/hirelens/internal/textproc"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	RustFSC    *testutil.RustFSContainer
	Pool       *pgxpool.Pool
	Server     *httptest.Server
	Snapshots  *storage.SnapshotStore
	Config     *config.Config
	HTTPClient *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and an
// in-process server wired the same way the serve command wires it, with the
// deterministic local embedder standing in for OpenAI.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	snapshots, err := storage.NewSnapshotStore(ctx, storage.SnapshotStoreConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-snapshots",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create snapshot store: %v", err)
	}
	if err := snapshots.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	cfg := &config.Config{
		DatabaseURL:             pgC.ConnectionString(),
		EmbeddingDimension:      1536,
		SimilarityThreshold:     0.3,
		PlagiarismThreshold:     0.8,
		LevelHighThreshold:      0.8,
		LevelMediumThreshold:    0.6,
		DuplicateThreshold:      0.8,
		VectorWeight:            0.5,
		KeywordWeight:           0.5,
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

	cacheRepo := repository.NewCacheEntryRepository(pool)
	chunkRepo := repository.NewDocumentChunkRepository(pool)
	jobRepo := repository.NewAnalysisJobRepository(pool)

	detector := cache.NewDetector(cacheRepo, cache.Options{
		ImportantPaths:      cfg.ImportantPaths,
		FullReanalysisRatio: cfg.FullReanalysisRatio,
		FullReanalysisAdds:  cfg.FullReanalysisAdds,
	})

	provider := embedding.NewLocalProvider(embedding.DefaultLocalDimension)
	normalizer := textproc.DefaultNormalizer()
	scorer := similarity.NewScorer(cfg.LevelThresholds())

	snapshotSource := storage.NewSnapshotSource(snapshots)
	analysisSvc := service.NewAnalysisService(normalizer, provider, chunkRepo, detector, snapshotSource, cfg)
	compareSvc := service.NewCompareService(normalizer, provider, scorer, cfg)
	corpusSvc := service.NewCorpusService(normalizer, provider, chunkRepo, chunkRepo, scorer, cfg)

	router := server.NewRouter(server.RouterConfig{
		AnalysisHandler:   handlers.NewAnalysisHandler(analysisSvc, jobRepo),
		SimilarityHandler: handlers.NewSimilarityHandler(compareSvc, corpusSvc),
		CacheHandler:      handlers.NewCacheHandler(detector, cacheRepo, cfg.CacheMaxAge),
	})

	srv := httptest.NewServer(router)

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		RustFSC:    s3C,
		Pool:       pool,
		Server:     srv,
		Snapshots:  snapshots,
		Config:     cfg,
		HTTPClient: srv.Client(),
	}
}

// Cleanup tears the environment down in dependency order.
func (env *E2ETestEnv) Cleanup() {
	env.Server.Close()
	env.Pool.Close()
	if err := env.RustFSC.Terminate(env.Ctx); err != nil {
		env.T.Logf("failed to terminate rustfs container: %v", err)
	}
	if err := env.PostgresC.Terminate(env.Ctx); err != nil {
		env.T.Logf("failed to terminate postgres container: %v", err)
	}
}

// APIResponse is the generic envelope every endpoint uses.
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (env *E2ETestEnv) do(method, path string, body interface{}) (*APIResponse, int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(env.Ctx, method, env.Server.URL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := env.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return &APIResponse{}, resp.StatusCode, nil
	}

	var out APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return &out, resp.StatusCode, nil
}

// Post sends a JSON POST and returns the decoded envelope.
func (env *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, int, error) {
	return env.do(http.MethodPost, path, body)
}

// Get sends a GET and returns the decoded envelope.
func (env *E2ETestEnv) Get(path string) (*APIResponse, int, error) {
	return env.do(http.MethodGet, path, nil)
}

// Delete sends a DELETE.
func (env *E2ETestEnv) Delete(path string) (*APIResponse, int, error) {
	return env.do(http.MethodDelete, path, nil)
}

// PutSnapshotFile stores one file in a repo key's snapshot prefix.
func (env *E2ETestEnv) PutSnapshotFile(repoKey, path string, content []byte) {
	key := storage.SnapshotPrefix(repoKey) + path
	if err := env.Snapshots.Put(env.Ctx, key, content); err != nil {
		env.T.Fatalf("failed to upload snapshot file %s: %v", key, err)
	}
}

// DeleteSnapshotFile removes one file from a repo key's snapshot prefix.
func (env *E2ETestEnv) DeleteSnapshotFile(repoKey, path string) {
	key := storage.SnapshotPrefix(repoKey) + path
	if err := env.Snapshots.Delete(env.Ctx, key); err != nil {
		env.T.Fatalf("failed to delete snapshot file %s: %v", key, err)
	}
}
