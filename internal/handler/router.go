package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoArmGo/PromptReveal/internal/metrics"
)

// NewRouter собирает chi-роутер со всеми маршрутами API.
func NewRouter(h *PromptHandler, m *metrics.Metrics, timeout time.Duration, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger, m))
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", h.UploadImage)

		r.Get("/prompts", h.ListPrompts)
		r.Post("/prompts", h.CreatePrompt)
		r.Post("/prompts/ingest", h.IngestPrompt)
		r.Get("/prompts/{id}", h.GetPrompt)

		r.Get("/home", h.Home)
		r.Get("/categories", h.Categories)
		r.Get("/generators", h.Generators)
	})

	return r
}
