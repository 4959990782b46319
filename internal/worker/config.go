// Package worker provides background cache-warming jobs for the engine.
package worker

import (
	"time"
)

// RefreshConfig holds configuration for the location-cache refresh job.
type RefreshConfig struct {
	// Queries are re-resolved on each refresh so popular lookups stay
	// inside the cache TTL. Empty uses DefaultRefreshQueries.
	Queries []string

	// Concurrency is the number of concurrent resolutions. The public
	// geocoder allows one request per second, so this stays small.
	// Default: 2.
	Concurrency int

	// Timeout bounds each resolution. Default: 15 seconds.
	Timeout time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Queries:     DefaultRefreshQueries(),
		Concurrency: 2,
		Timeout:     15 * time.Second,
	}
}

// DefaultRefreshQueries returns the queries kept warm by default: the
// dataset's high-traffic cities plus the high-latitude locations where
// schedule requests cluster.
func DefaultRefreshQueries() []string {
	return []string{
		"mecca",
		"medina, sa",
		"istanbul",
		"cairo",
		"jakarta",
		"karachi",
		"london",
		"stockholm",
		"oslo",
		"tromso",
		"longyearbyen",
		"reykjavik",
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	if len(c.Queries) == 0 {
		c.Queries = DefaultRefreshQueries()
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return c
}
