package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/hirelens/hirelens/internal/api/handlers"
	"github.com/hirelens/hirelens/internal/cache"
	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/database"
	"github.com/hirelens/hirelens/internal/embedding"
	"github.com/hirelens/hirelens/internal/jobs"
	"github.com/hirelens/hirelens/internal/repository"
	"github.com/hirelens/hirelens/internal/server"
	"github.com/hirelens/hirelens/internal/service"
	"github.com/hirelens/hirelens/internal/similarity"
	"github.com/hirelens/hirelens/internal/storage"
	"github.com/hirelens/hirelens/internal/telemetry"
	"github.com/hirelens/hirelens/internal/textproc"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the hirelens API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Do not start the background analysis worker")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	cacheRepo := repository.NewCacheEntryRepository(pool)
	chunkRepo := repository.NewDocumentChunkRepository(pool)
	jobRepo := repository.NewAnalysisJobRepository(pool)

	detector := cache.NewDetector(cacheRepo, cache.Options{
		ImportantPaths:      cfg.ImportantPaths,
		FullReanalysisRatio: cfg.FullReanalysisRatio,
		FullReanalysisAdds:  cfg.FullReanalysisAdds,
	})

	provider := buildProvider(cfg)
	log.Printf("embedding provider: %s (%s)", provider.Name(), provider.ModelVersion())

	var snapshotSource service.SnapshotSource
	var documentSource service.DocumentSource
	if cfg.HasS3() {
		snapshotStore, err := storage.NewSnapshotStore(ctx, storage.SnapshotStoreConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create snapshot store: %w", err)
		}
		if err := snapshotStore.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure snapshot bucket: %w", err)
		}
		log.Printf("snapshot bucket '%s' ready", cfg.S3Bucket)
		snapshotSource = storage.NewSnapshotSource(snapshotStore)
		documentSource = storage.NewDocumentStore(snapshotStore)
	}

	normalizer := textproc.DefaultNormalizer()
	scorer := similarity.NewScorer(cfg.LevelThresholds())

	analysisSvc := service.NewAnalysisService(normalizer, provider, chunkRepo, detector, snapshotSource, cfg)
	compareSvc := service.NewCompareService(normalizer, provider, scorer, cfg)
	corpusSvc := service.NewCorpusService(normalizer, provider, chunkRepo, chunkRepo, scorer, cfg)

	var analysisWorker *jobs.Worker
	noWorker, _ := cmd.Flags().GetBool("no-worker")
	if !noWorker {
		jobAnalyzer := service.NewJobAnalyzer(analysisSvc, documentSource)
		processor := jobs.NewAnalysisWorker(jobRepo, jobAnalyzer)
		analysisWorker = jobs.NewWorker(processor, 10*time.Second)
		go analysisWorker.Start(ctx)
		log.Println("analysis worker started")
	}

	routerCfg := server.RouterConfig{
		AnalysisHandler:   handlers.NewAnalysisHandler(analysisSvc, jobRepo),
		SimilarityHandler: handlers.NewSimilarityHandler(compareSvc, corpusSvc),
		CacheHandler:      handlers.NewCacheHandler(detector, cacheRepo, cfg.CacheMaxAge),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if analysisWorker != nil {
		analysisWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// buildProvider assembles the embedding provider chain: OpenAI when an API
// key is configured, the deterministic local embedder as fallback.
func buildProvider(cfg *config.Config) embedding.Provider {
	local := embedding.NewLocalProvider(embedding.DefaultLocalDimension)
	if !cfg.HasOpenAI() {
		log.Println("no OpenAI API key configured, using local embeddings only")
		return local
	}
	primary := embedding.NewOpenAIProvider(embedding.OpenAIConfig{
		APIKey:    cfg.OpenAIAPIKey,
		Model:     openai.EmbeddingModel(cfg.EmbeddingModel),
		Dimension: cfg.EmbeddingDimension,
	})
	return embedding.NewAutoProvider(primary, local)
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err == migrate.ErrNoChange {
		log.Println("database schema up to date")
	} else {
		log.Println("database migrations applied")
	}

	return nil
}
