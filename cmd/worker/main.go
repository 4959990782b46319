// Package main provides the entrypoint for the cache-refresh worker.
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

	"github.com/polarischronos/polarischronos/internal/location"
	"github.com/polarischronos/polarischronos/internal/location/nominatim"
	"github.com/polarischronos/polarischronos/internal/location/tzlookup"
	"github.com/polarischronos/polarischronos/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "polaris-chronos-worker"

	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting cache-refresh worker")

	port := getEnv("APP_PORT", "8081")
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := getEnv("PUBSUB_SUBSCRIPTION", "chronos-cache-refresh")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The worker shares the API's cache store so its refreshes land where
	// resolutions read.
	var store location.Store
	switch getEnv("CACHE_BACKEND", "file") {
	case "postgres":
		pgStore, err := location.OpenPostgresStore(ctx, location.PostgresConfigFromEnv())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open postgres cache store")
		}
		defer pgStore.Close()
		store = pgStore
	default:
		store = location.NewFileStore(getEnv("CACHE_PATH", location.DefaultCachePath()))
	}

	locationCache := location.NewCache(location.CacheConfig{
		Store:  store,
		Logger: log,
	})

	zones := tzlookup.NewResolver(tzlookup.ResolverConfig{Logger: log})

	geocoder := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL: os.Getenv("NOMINATIM_URL"),
		Limiter: rate.NewLimiter(rate.Limit(1), 1),
		Zone:    zones.Zone,
		Logger:  log,
	})

	resolver := location.NewResolver(location.ResolverConfig{
		Cache:    locationCache,
		Dataset:  location.NewDataset(),
		Geocoder: geocoder,
		Zones:    zones,
		Logger:   log,
	})

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:   worker.DefaultRefreshConfig(),
		Resolver: resolver,
		Logger:   log,
	})

	// Health endpoint for the platform's liveness probes.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy","version":"` + Version + `"}`))
	})
	healthServer := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		log.Info().Str("addr", healthServer.Addr).Msg("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	if projectID != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub receive stopped")
			}
		}()
	} else {
		// Without Pub/Sub the worker degrades to a fixed-interval refresh.
		interval, err := time.ParseDuration(getEnv("REFRESH_INTERVAL", "6h"))
		if err != nil {
			interval = 6 * time.Hour
		}
		log.Warn().
			Dur("interval", interval).
			Msg("PUBSUB_PROJECT_ID not set - running interval refresh loop")

		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			refreshJob.Run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					refreshJob.Run(ctx)
				}
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
