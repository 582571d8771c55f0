package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/infra"
	"server/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(cfg.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/engine/healthz", app.EngineHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
		r.Post("/v1/generate", app.Generate)
		r.Get("/v1/content/{fingerprint}/export", app.ExportContent)
		r.Delete("/v1/content/{fingerprint}", app.InvalidateContent)
	})

	return r
}
