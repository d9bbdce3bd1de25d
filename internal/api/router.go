package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/hackgods/health-record-sharing/internal/auth"
	"github.com/hackgods/health-record-sharing/internal/metrics"
)

type RouterConfig struct {
	Records      RecordService
	Sessions     SessionService
	Health       *HealthHandler
	JWTSecret    string
	ShareBaseURL string
	CORSOrigins  []string
	// ResolveLimiter throttles share token lookups; nil disables it.
	ResolveLimiter *RateLimiter
	Metrics        *metrics.Metrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(LoggingMiddleware(cfg.Logger, cfg.Metrics))
	r.Use(RecoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints
	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Health record endpoints
	r.Route("/api/health-record", func(r chi.Router) {
		r.Use(Authenticate(cfg.JWTSecret))

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(auth.RolePatient))
			r.Post("/create", createRecordHandler(cfg.Records))
			r.Put("/update", updateRecordHandler(cfg.Records))
			r.Get("/get-record", getRecordHandler(cfg.Records))
			r.Post("/create-session", createSessionHandler(cfg.Sessions, cfg.ShareBaseURL))
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(auth.RoleDoctor))
			r.Post("/add-visit", addVisitHandler(cfg.Records))
			r.Post("/add-note", addNoteHandler(cfg.Records))

			resolve := resolveSessionHandler(cfg.Sessions)
			if cfg.ResolveLimiter != nil {
				r.With(cfg.ResolveLimiter.Middleware).Get("/session/{token}", resolve)
			} else {
				r.Get("/session/{token}", resolve)
			}
		})
	})

	return r
}
