package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/polarischronos/polarischronos/internal/location"
)

// RefreshJob re-resolves a configured set of queries so their cache entries
// never age out. Resolution writes through the location cache, so a
// successful pass is exactly a cache warm.
type RefreshJob struct {
	config   RefreshConfig
	resolver *location.Resolver
	logger   zerolog.Logger
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config   RefreshConfig
	Resolver *location.Resolver
	Logger   zerolog.Logger
}

// NewRefreshJob creates a refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:   cfg.Config.withDefaults(),
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
	}
}

// RefreshResult summarizes one refresh pass.
type RefreshResult struct {
	StartTime  time.Time
	Duration   time.Duration
	Total      int
	Successful int
	Failed     int
	Errors     []RefreshError
}

// RefreshError records one failed query.
type RefreshError struct {
	Query string
	Error string
}

// Run resolves every configured query with bounded concurrency.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	start := time.Now()
	result := &RefreshResult{StartTime: start, Total: len(j.config.Queries)}

	j.logger.Info().
		Int("queries", result.Total).
		Int("concurrency", j.config.Concurrency).
		Msg("starting location cache refresh")

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, j.config.Concurrency)

	for _, query := range j.config.Queries {
		wg.Add(1)
		sem <- struct{}{}
		go func(query string) {
			defer wg.Done()
			defer func() { <-sem }()

			reqCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
			defer cancel()

			_, err := j.resolver.Resolve(reqCtx, query, location.Options{})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, RefreshError{Query: query, Error: err.Error()})
				j.logger.Warn().Err(err).Str("query", query).Msg("cache refresh resolution failed")
				return
			}
			result.Successful++
		}(query)
	}
	wg.Wait()

	result.Duration = time.Since(start)
	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("location cache refresh completed")

	return result
}
