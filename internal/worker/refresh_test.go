package worker_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarischronos/polarischronos/internal/location"
	"github.com/polarischronos/polarischronos/internal/worker"
)

type staticZones struct{}

func (staticZones) Zone(context.Context, float64, float64) string { return "UTC" }

func newOfflineResolver(t *testing.T) (*location.Resolver, *location.Cache) {
	t.Helper()
	cache := location.NewCache(location.CacheConfig{
		Store:  location.NewFileStore(filepath.Join(t.TempDir(), "cache.json")),
		Logger: zerolog.Nop(),
	})
	resolver := location.NewResolver(location.ResolverConfig{
		Cache:   cache,
		Dataset: location.NewDataset(),
		Zones:   staticZones{},
		Logger:  zerolog.Nop(),
	})
	return resolver, cache
}

func TestRefreshJob_Run(t *testing.T) {
	resolver, _ := newOfflineResolver(t)

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Queries:     []string{"mecca", "tromso", "stockholm"},
			Concurrency: 2,
		},
		Resolver: resolver,
		Logger:   zerolog.Nop(),
	})

	result := job.Run(context.Background())
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)
}

func TestRefreshJob_RecordsFailures(t *testing.T) {
	resolver, _ := newOfflineResolver(t)

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Queries:     []string{"mecca", "xyznonexistentcity123"},
			Concurrency: 1,
		},
		Resolver: resolver,
		Logger:   zerolog.Nop(),
	})

	result := job.Run(context.Background())
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "xyznonexistentcity123", result.Errors[0].Query)
}

func TestRefreshJob_DefaultConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()
	assert.NotEmpty(t, cfg.Queries)
	assert.Greater(t, cfg.Concurrency, 0)
	assert.Greater(t, cfg.Timeout.Seconds(), 0.0)
}
