package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/albapepper/notify-engine/internal/api/handler"
	"github.com/albapepper/notify-engine/internal/cache"
	"github.com/albapepper/notify-engine/internal/config"
	"github.com/albapepper/notify-engine/internal/scheduler"
)

// NewRouter creates and configures the Chi router with all middleware and
// routes. db may be nil when the service runs without Postgres.
func NewRouter(engine *scheduler.Engine, appCache *cache.Cache, db handler.HealthChecker, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(engine, appCache, db, logger)

	// --- Routes ---

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		// Scheduling
		r.Post("/notifications", h.ScheduleNotification)
		r.Post("/notifications/admit", h.AdmitNotification)
		r.Post("/engagements", h.RecordEngagement)
		r.Get("/throttle", h.GetThrottleState)

		// Batches
		r.Get("/batches", h.ListBatches)
		r.Get("/batches/{group}", h.GetBatch)
		r.Post("/batches/{group}", h.ForceBatch)
		r.Delete("/batches/{group}", h.CancelBatch)

		// Optimizer
		r.Get("/optimization", h.GetOptimization)

		// Configuration
		r.Get("/config/schedule", h.GetScheduleConfig)
		r.Put("/config/schedule", h.PutScheduleConfig)
		r.Post("/config/schedule/reset", h.ResetScheduleConfig)
		r.Get("/config/batch", h.GetBatchConfig)
		r.Put("/config/batch", h.PutBatchConfig)
		r.Post("/config/batch/reset", h.ResetBatchConfig)
	})

	return r
}
