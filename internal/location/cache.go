package location

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CacheSchemaVersion tags persisted entries so future readers can migrate
// older layouts instead of discarding them.
const CacheSchemaVersion = 2

// DefaultCacheTTL is how long cached resolutions stay valid.
const DefaultCacheTTL = 30 * 24 * time.Hour

// CacheEntry is one persisted resolution.
type CacheEntry struct {
	SchemaVersion int              `json:"schema_version"`
	Query         string           `json:"query"`
	Location      ResolvedLocation `json:"location"`
	StoredAt      time.Time        `json:"stored_at"`
}

// Store persists cache entries. Implementations must be safe for concurrent
// use; readers never observe torn entries.
type Store interface {
	// Get returns the entry for a key, or nil when absent.
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Put replaces any prior entry for the key.
	Put(ctx context.Context, key string, entry *CacheEntry) error

	// MostRecent returns the newest entry, or nil when the store is empty.
	MostRecent(ctx context.Context) (*CacheEntry, error)

	// Purge removes every entry.
	Purge(ctx context.Context) error
}

// CacheConfig holds configuration for the location cache.
type CacheConfig struct {
	// Store is the persistence backend (required).
	Store Store

	// TTL is the entry lifetime (default: 30 days).
	TTL time.Duration

	// Logger for cache operations.
	Logger zerolog.Logger

	// now overrides the clock in tests.
	now func() time.Time
}

// Cache maps normalized queries to resolved locations with a TTL. Read
// errors behave as misses; write errors are logged and swallowed, so a
// broken cache never fails the outer resolution.
type Cache struct {
	store  Store
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewCache creates a location cache.
func NewCache(cfg CacheConfig) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	now := cfg.now
	if now == nil {
		now = time.Now
	}
	return &Cache{
		store:  cfg.Store,
		ttl:    ttl,
		logger: cfg.Logger,
		now:    now,
	}
}

// Get returns the cached location for a query, or nil on miss, expiry, or
// read failure.
func (c *Cache) Get(ctx context.Context, query string) *ResolvedLocation {
	key := NormalizeQuery(query)
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("location cache read failed; treating as miss")
		return nil
	}
	if entry == nil || c.expired(entry) {
		return nil
	}

	loc := entry.Location
	loc.Source = SourceCache
	return &loc
}

// Put stores a resolution under the normalized query, and additionally under
// the resolved canonical name when it differs, so follow-up queries for
// either form hit.
func (c *Cache) Put(ctx context.Context, query string, loc ResolvedLocation) {
	keys := []string{NormalizeQuery(query)}
	if name := NormalizeQuery(loc.Name); name != keys[0] && name != "" {
		keys = append(keys, name)
	}

	for _, key := range keys {
		entry := &CacheEntry{
			SchemaVersion: CacheSchemaVersion,
			Query:         key,
			Location:      loc,
			StoredAt:      c.now(),
		}
		if err := c.store.Put(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("location cache write failed")
		}
	}
}

// MostRecent returns the freshest cached location, used as a last resort
// when IP auto-detection is unreachable.
func (c *Cache) MostRecent(ctx context.Context) *ResolvedLocation {
	entry, err := c.store.MostRecent(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("location cache scan failed")
		return nil
	}
	if entry == nil || c.expired(entry) {
		return nil
	}
	loc := entry.Location
	loc.Source = SourceCache
	return &loc
}

// Purge clears the cache.
func (c *Cache) Purge(ctx context.Context) error {
	return c.store.Purge(ctx)
}

func (c *Cache) expired(entry *CacheEntry) bool {
	return c.now().Sub(entry.StoredAt) > c.ttl
}
