// Package main provides the entrypoint for the Polaris Chronos API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/polarischronos/polarischronos/internal/api"
	"github.com/polarischronos/polarischronos/internal/api/middleware"
	"github.com/polarischronos/polarischronos/internal/location"
	"github.com/polarischronos/polarischronos/internal/location/ipapi"
	"github.com/polarischronos/polarischronos/internal/location/nominatim"
	"github.com/polarischronos/polarischronos/internal/location/tzlookup"
	"github.com/polarischronos/polarischronos/internal/provider/resilience"
	"github.com/polarischronos/polarischronos/internal/solver"
	"github.com/polarischronos/polarischronos/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "polaris-chronos-api"

	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Polaris Chronos API")

	port := getEnv("APP_PORT", "8080")
	env := getEnv("APP_ENV", "development")
	otlpEndpoint := getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"
	offline := os.Getenv("OFFLINE") == "true"

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Location cache store: a JSON file by default, Postgres when several
	// instances share one cache.
	var store location.Store
	switch getEnv("CACHE_BACKEND", "file") {
	case "postgres":
		pgConfig := location.PostgresConfigFromEnv()
		pgStore, pgErr := location.OpenPostgresStore(ctx, pgConfig)
		if pgErr != nil {
			log.Fatal().Err(pgErr).Msg("failed to open postgres cache store")
		}
		defer pgStore.Close()
		store = pgStore
		log.Info().
			Str("host", pgConfig.Host).
			Str("database", pgConfig.Database).
			Msg("using postgres location cache")
	default:
		path := getEnv("CACHE_PATH", location.DefaultCachePath())
		store = location.NewFileStore(path)
		log.Info().Str("path", path).Msg("using file location cache")
	}

	locationCache := location.NewCache(location.CacheConfig{
		Store:  store,
		Logger: log,
	})

	zones := tzlookup.NewResolver(tzlookup.ResolverConfig{
		Offline: offline,
		Logger:  log,
	})

	providers := resilience.NewRegistry()

	var geocoder location.Geocoder
	var ipLocator location.IPLocator
	if !offline {
		geocodeClient := resilience.NewClient(resilience.DefaultClientConfig(nominatim.ProviderName))
		providers.Register(nominatim.ProviderName, geocodeClient)
		geocoder = nominatim.NewClient(nominatim.ClientConfig{
			BaseURL:    os.Getenv("NOMINATIM_URL"),
			HTTPClient: geocodeClient,
			// The public Nominatim endpoint allows one request per second.
			Limiter: rate.NewLimiter(rate.Limit(1), 1),
			Zone:    zones.Zone,
			Logger:  log,
		})

		ipClient := resilience.NewClient(resilience.DefaultClientConfig(ipapi.ProviderName))
		providers.Register(ipapi.ProviderName, ipClient)
		ipLocator = ipapi.NewClient(ipapi.ClientConfig{
			BaseURL:    os.Getenv("IPAPI_URL"),
			HTTPClient: ipClient,
			Logger:     log,
		})
	} else {
		log.Warn().Msg("offline mode: geocoder and IP detection disabled")
	}

	resolver := location.NewResolver(location.ResolverConfig{
		Cache:    locationCache,
		Dataset:  location.NewDataset(),
		Geocoder: geocoder,
		IP:       ipLocator,
		Zones:    zones,
		Logger:   log,
	})
	log.Info().Msg("location resolver initialized")

	computeCache := solver.NewCache(1 * time.Hour)

	adminKey := os.Getenv("ADMIN_SIGNING_KEY")
	if adminKey == "" {
		log.Warn().Msg("ADMIN_SIGNING_KEY not set - admin endpoints disabled")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		Metrics:         metrics,
		Resolver:        resolver,
		Dataset:         location.NewDataset(),
		LocationCache:   locationCache,
		ComputeCache:    computeCache,
		Providers:       providers,
		AdminSigningKey: adminKey,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
