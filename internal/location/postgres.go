package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds connection settings for the shared cache store. The
// store owns a single small table, so pool sizing defaults stay minimal: a
// resolution touches the cache at most twice.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// MaxConns caps the pool. Default: 4.
	MaxConns int

	// ConnMaxLifetime recycles connections. Default: 5 minutes.
	ConnMaxLifetime time.Duration
}

// PostgresConfigFromEnv reads the store's connection settings from the
// CACHE_DB_* environment variables.
func PostgresConfigFromEnv() PostgresConfig {
	port, _ := strconv.Atoi(envOrDefault("CACHE_DB_PORT", "5432"))
	maxConns, _ := strconv.Atoi(envOrDefault("CACHE_DB_MAX_CONNS", "4"))
	lifetime, _ := time.ParseDuration(envOrDefault("CACHE_DB_CONN_MAX_LIFETIME", "5m"))

	return PostgresConfig{
		Host:            envOrDefault("CACHE_DB_HOST", "localhost"),
		Port:            port,
		User:            envOrDefault("CACHE_DB_USER", "chronos"),
		Password:        envOrDefault("CACHE_DB_PASSWORD", "localdev"),
		Database:        envOrDefault("CACHE_DB_NAME", "chronos"),
		SSLMode:         envOrDefault("CACHE_DB_SSL_MODE", "disable"),
		MaxConns:        maxConns,
		ConnMaxLifetime: lifetime,
	}
}

func (c PostgresConfig) dsn() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// PostgresStore persists cache entries in a `location_cache` table, for
// deployments where several instances share one cache. Entry payloads are
// stored as JSONB so schema evolution follows the JSON layout.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgresStore connects to Postgres, verifies the connection, and makes
// sure the cache table exists. Close releases the pool.
func OpenPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("parse cache store config: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	poolConfig.MaxConns = int32(maxConns) //nolint:gosec // bounded by config
	poolConfig.MaxConnLifetime = lifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create cache store pool: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore wraps an existing pool, for callers that manage their own
// connections.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Close releases the store's connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// ensureSchema pings the database and creates the cache table when missing.
func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping cache store: %w", err)
	}

	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS location_cache (
			query      TEXT PRIMARY KEY,
			payload    JSONB NOT NULL,
			stored_at  TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create location_cache table: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, key string) (*CacheEntry, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM location_cache WHERE query = $1`, key,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying location cache: %w", err)
	}
	return decodeCacheEntry(payload)
}

// Put implements Store.
func (s *PostgresStore) Put(ctx context.Context, key string, entry *CacheEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding location cache entry: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO location_cache (query, payload, stored_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (query) DO UPDATE
		SET payload = EXCLUDED.payload, stored_at = EXCLUDED.stored_at`,
		key, payload, entry.StoredAt,
	)
	if err != nil {
		return fmt.Errorf("upserting location cache entry: %w", err)
	}
	return nil
}

// MostRecent implements Store.
func (s *PostgresStore) MostRecent(ctx context.Context) (*CacheEntry, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM location_cache ORDER BY stored_at DESC LIMIT 1`,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying location cache: %w", err)
	}
	return decodeCacheEntry(payload)
}

// Purge implements Store.
func (s *PostgresStore) Purge(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM location_cache`); err != nil {
		return fmt.Errorf("purging location cache: %w", err)
	}
	return nil
}

func decodeCacheEntry(payload []byte) (*CacheEntry, error) {
	var entry CacheEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("decoding location cache entry: %w", err)
	}
	return &entry, nil
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
