// Package api provides the HTTP API for the prayer-time engine.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/polarischronos/polarischronos/internal/api/handler"
	"github.com/polarischronos/polarischronos/internal/api/middleware"
	"github.com/polarischronos/polarischronos/internal/location"
	"github.com/polarischronos/polarischronos/internal/provider/resilience"
	"github.com/polarischronos/polarischronos/internal/solver"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger

	// Metrics is optional; nil disables HTTP metrics.
	Metrics *middleware.Metrics

	Resolver      *location.Resolver
	Dataset       *location.Dataset
	LocationCache *location.Cache
	ComputeCache  *solver.Cache

	// Providers reports external provider health on the ops endpoint.
	Providers *resilience.Registry

	// AdminSigningKey guards the admin routes. Empty disables them.
	AdminSigningKey string
}

// NewRouter creates a chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.ContentTypeJSON)

	resolveHandler := handler.NewResolveHandler(cfg.Resolver)
	scheduleHandler := handler.NewScheduleHandler(cfg.Resolver, cfg.ComputeCache, cfg.Logger)
	citiesHandler := handler.NewCitiesHandler(cfg.Dataset)
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Providers)
	adminHandler := handler.NewAdminHandler(cfg.LocationCache, cfg.Logger)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)
	adminRateLimit := middleware.RateLimitByIP(middleware.AdminRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.With(standardRateLimit).Get("/resolve", resolveHandler.Resolve)
		r.With(standardRateLimit).Get("/cities", citiesHandler.List)

		r.With(standardRateLimit).Get("/schedule", scheduleHandler.Day)
		// Month fan-out computes up to 31 days per call.
		r.With(expensiveRateLimit).Get("/schedule/month", scheduleHandler.Month)

		if cfg.AdminSigningKey != "" {
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.Admin(cfg.AdminSigningKey))
				r.Use(adminRateLimit)
				r.Post("/cache/purge", adminHandler.PurgeCache)
			})
		}
	})

	return r
}
