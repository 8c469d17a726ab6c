package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hirelens/hirelens/internal/api"
	"github.com/hirelens/hirelens/internal/api/handlers"
	"github.com/hirelens/hirelens/internal/api/middleware"
)

type RouterConfig struct {
	AnalysisHandler   *handlers.AnalysisHandler
	SimilarityHandler *handlers.SimilarityHandler
	CacheHandler      *handlers.CacheHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/documents", func(r chi.Router) {
		r.Post("/analyze", cfg.AnalysisHandler.AnalyzeDocument)
	})

	r.Route("/repositories", func(r chi.Router) {
		r.Post("/analyze", cfg.AnalysisHandler.AnalyzeRepository)
	})

	r.Get("/jobs/{id}", cfg.AnalysisHandler.GetJob)

	r.Route("/similarity", func(r chi.Router) {
		r.Post("/compare", cfg.SimilarityHandler.Compare)
		r.Post("/corpus", cfg.SimilarityHandler.Corpus)
	})

	r.Route("/cache", func(r chi.Router) {
		r.Get("/", cfg.CacheHandler.List)
		r.Get("/{key}", cfg.CacheHandler.Get)
		r.Post("/{key}/check", cfg.CacheHandler.Check)
		r.Delete("/{key}", cfg.CacheHandler.Invalidate)
	})

	return r
}
