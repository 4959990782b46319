package solver

import (
	"fmt"
	"sync"
	"time"

	"github.com/polarischronos/polarischronos/internal/schedule"
)

// maxCacheEntries caps the compute cache before expired entries are swept.
const maxCacheEntries = 1000

// Cache memoizes day schedules. The computation is deterministic, so
// (lat, lon, date, tz, strategy) fully identifies a result.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	schedule *DaySchedule
	created  time.Time
}

// NewCache creates a compute cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// CacheKey builds the memoization key for a day computation.
func CacheKey(lat, lon float64, date Date, tz string, strategy schedule.Strategy) string {
	return fmt.Sprintf("%.4f,%.4f,%s,%s,%s", lat, lon, date, tz, strategy)
}

// Get returns a cached schedule if present and fresh.
func (c *Cache) Get(key string) (*DaySchedule, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(entry.created) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.schedule, true
}

// Put stores a computed schedule, sweeping expired entries when the cache
// grows past its cap.
func (c *Cache) Put(key string, ds *DaySchedule) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) > maxCacheEntries {
		for k, e := range c.entries {
			if time.Since(e.created) >= c.ttl {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = cacheEntry{schedule: ds, created: time.Now()}
}
