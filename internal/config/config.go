package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/hirelens/hirelens/internal/domain"
)

// Config is the single configuration surface for the similarity core.
// Every threshold the scoring and cache layers consult lives here; call
// sites never carry their own literals.
type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Embedding providers
	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel     string `envconfig:"EMBEDDING_MODEL"`
	EmbeddingDimension int    `envconfig:"EMBEDDING_DIMENSION" default:"1536"`

	// Similarity thresholds. The plagiarism threshold is a stricter,
	// separate flag from general "similar".
	SimilarityThreshold  float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.3"`
	PlagiarismThreshold  float64 `envconfig:"PLAGIARISM_THRESHOLD" default:"0.8"`
	LevelHighThreshold   float64 `envconfig:"LEVEL_HIGH_THRESHOLD" default:"0.8"`
	LevelMediumThreshold float64 `envconfig:"LEVEL_MEDIUM_THRESHOLD" default:"0.6"`
	DuplicateThreshold   float64 `envconfig:"DUPLICATE_THRESHOLD" default:"0.8"`

	// Hybrid scoring blend
	VectorWeight  float64 `envconfig:"VECTOR_WEIGHT" default:"0.5"`
	KeywordWeight float64 `envconfig:"KEYWORD_WEIGHT" default:"0.5"`

	// Per-field weights for field-level document comparison.
	FieldWeights map[string]float64 `envconfig:"FIELD_WEIGHTS" default:"growthBackground:1.0,motivation:1.0,careerHistory:1.0"`

	// Chunk profiles per subject type
	ResumeChunkSize         int `envconfig:"RESUME_CHUNK_SIZE" default:"500"`
	ResumeChunkOverlap      int `envconfig:"RESUME_CHUNK_OVERLAP" default:"50"`
	CoverLetterChunkSize    int `envconfig:"COVER_LETTER_CHUNK_SIZE" default:"400"`
	CoverLetterChunkOverlap int `envconfig:"COVER_LETTER_CHUNK_OVERLAP" default:"50"`
	RepositoryChunkSize     int `envconfig:"REPOSITORY_CHUNK_SIZE" default:"1200"`
	RepositoryChunkOverlap  int `envconfig:"REPOSITORY_CHUNK_OVERLAP" default:"200"`

	// Change-detection cache
	CacheMaxAge          time.Duration `envconfig:"CACHE_MAX_AGE" default:"24h"`
	ImportantPaths       []string      `envconfig:"IMPORTANT_PATHS" default:"go.mod,go.sum,package.json,requirements.txt,pom.xml,Dockerfile,README.md"`
	FullReanalysisRatio  float64       `envconfig:"FULL_REANALYSIS_RATIO" default:"0.5"`
	FullReanalysisAdds   int           `envconfig:"FULL_REANALYSIS_ADDS" default:"10"`
	HashFetchConcurrency int           `envconfig:"HASH_FETCH_CONCURRENCY" default:"10"`

	// Snapshot storage (S3-compatible) for repository subjects
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"hirelens-snapshots"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

// ChunkProfile holds the chunking parameters for one subject type.
type ChunkProfile struct {
	Size    int
	Overlap int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("HIRELENS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate checks the configuration once at startup so the scoring and
// chunking layers can trust their parameters at call time.
func (c *Config) Validate() error {
	for name, v := range map[string]float64{
		"SIMILARITY_THRESHOLD":   c.SimilarityThreshold,
		"PLAGIARISM_THRESHOLD":   c.PlagiarismThreshold,
		"LEVEL_HIGH_THRESHOLD":   c.LevelHighThreshold,
		"LEVEL_MEDIUM_THRESHOLD": c.LevelMediumThreshold,
		"DUPLICATE_THRESHOLD":    c.DuplicateThreshold,
	} {
		if v < 0 || v > 1 {
			return domain.NewDomainError(domain.ErrCodeConfiguration, fmt.Sprintf("%s must be in [0,1], got %v", name, v))
		}
	}

	if c.VectorWeight < 0 || c.KeywordWeight < 0 || c.VectorWeight+c.KeywordWeight == 0 {
		return domain.NewDomainError(domain.ErrCodeConfiguration, "vector/keyword blend weights must be non-negative and not both zero")
	}

	for _, p := range []ChunkProfile{
		{c.ResumeChunkSize, c.ResumeChunkOverlap},
		{c.CoverLetterChunkSize, c.CoverLetterChunkOverlap},
		{c.RepositoryChunkSize, c.RepositoryChunkOverlap},
	} {
		if p.Size <= 0 {
			return domain.ErrInvalidChunkSize
		}
		if p.Overlap < 0 || p.Overlap >= p.Size {
			return domain.ErrInvalidChunkOverlap
		}
	}

	if c.HashFetchConcurrency <= 0 {
		return domain.NewDomainError(domain.ErrCodeConfiguration, "HASH_FETCH_CONCURRENCY must be positive")
	}

	return nil
}

// ChunkProfileFor returns the chunking parameters for the given subject type.
func (c *Config) ChunkProfileFor(subject domain.SubjectType) ChunkProfile {
	switch subject {
	case domain.SubjectResume:
		return ChunkProfile{Size: c.ResumeChunkSize, Overlap: c.ResumeChunkOverlap}
	case domain.SubjectCoverLetter:
		return ChunkProfile{Size: c.CoverLetterChunkSize, Overlap: c.CoverLetterChunkOverlap}
	default:
		return ChunkProfile{Size: c.RepositoryChunkSize, Overlap: c.RepositoryChunkOverlap}
	}
}

// LevelThresholds returns the configured similarity level cut-offs.
func (c *Config) LevelThresholds() domain.LevelThresholds {
	return domain.LevelThresholds{High: c.LevelHighThreshold, Medium: c.LevelMediumThreshold}
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
