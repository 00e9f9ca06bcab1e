package benchmarks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TTLs for cached benchmark responses. Sector and industry averages move slowly;
// water stress is refreshed more often.
const (
	TTLSectorCarbon = 7 * 24 * time.Hour
	TTLWaterStress  = 24 * time.Hour
	TTLJobCreation  = 7 * 24 * time.Hour
)

// Cache stores benchmark payloads as JSON with an expiry.
// Get returns entries regardless of expiry and backs the stale fallback.
type Cache interface {
	GetIfFresh(ctx context.Context, key string) (json.RawMessage, error)
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Store(ctx context.Context, key string, data interface{}, ttl time.Duration) error
}

// SQLiteCache persists benchmark payloads in the benchmark_cache table of the cache database
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache creates a cache over an already migrated cache database
func NewSQLiteCache(db *sql.DB) *SQLiteCache {
	return &SQLiteCache{db: db}
}

// Store saves data with expiration = now + ttl
func (c *SQLiteCache) Store(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal benchmark %s: %w", key, err)
	}

	expiresAt := time.Now().Add(ttl).Unix()
	_, err = c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO benchmark_cache (cache_key, data, expires_at) VALUES (?, ?, ?)",
		key, string(payload), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store benchmark %s: %w", key, err)
	}
	return nil
}

// GetIfFresh returns nil, nil if the key is missing or expired
func (c *SQLiteCache) GetIfFresh(ctx context.Context, key string) (json.RawMessage, error) {
	var data string
	err := c.db.QueryRowContext(ctx,
		"SELECT data FROM benchmark_cache WHERE cache_key = ? AND expires_at > ?",
		key, time.Now().Unix(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read benchmark %s: %w", key, err)
	}
	return json.RawMessage(data), nil
}

// Get returns data regardless of expiration status, nil, nil if missing
func (c *SQLiteCache) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var data string
	err := c.db.QueryRowContext(ctx,
		"SELECT data FROM benchmark_cache WHERE cache_key = ?", key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read benchmark %s: %w", key, err)
	}
	return json.RawMessage(data), nil
}

// Delete removes a single entry
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM benchmark_cache WHERE cache_key = ?", key); err != nil {
		return fmt.Errorf("failed to delete benchmark %s: %w", key, err)
	}
	return nil
}

// DeleteExpired removes expired rows older than the grace period and returns the number deleted.
// The grace period keeps recently expired rows around for the stale fallback.
func (c *SQLiteCache) DeleteExpired(ctx context.Context, grace time.Duration) (int64, error) {
	cutoff := time.Now().Add(-grace).Unix()
	result, err := c.db.ExecContext(ctx, "DELETE FROM benchmark_cache WHERE expires_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired benchmarks: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// TieredCache reads through a fast shared cache before the local one and writes to both.
type TieredCache struct {
	first  Cache
	second Cache
}

// NewTieredCache layers first (e.g. Redis) over second (e.g. SQLite)
func NewTieredCache(first, second Cache) *TieredCache {
	return &TieredCache{first: first, second: second}
}

func (t *TieredCache) GetIfFresh(ctx context.Context, key string) (json.RawMessage, error) {
	data, err := t.first.GetIfFresh(ctx, key)
	if err == nil && data != nil {
		return data, nil
	}
	return t.second.GetIfFresh(ctx, key)
}

func (t *TieredCache) Get(ctx context.Context, key string) (json.RawMessage, error) {
	data, err := t.first.Get(ctx, key)
	if err == nil && data != nil {
		return data, nil
	}
	return t.second.Get(ctx, key)
}

func (t *TieredCache) Store(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	firstErr := t.first.Store(ctx, key, data, ttl)
	if err := t.second.Store(ctx, key, data, ttl); err != nil {
		return err
	}
	return firstErr
}
