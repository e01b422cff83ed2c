package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mikey/phishguard/internal/ports"
	"go.uber.org/zap"
)

const lookupCacheSchema = `
	CREATE TABLE IF NOT EXISTS lookup_cache (
		cache_key VARCHAR(255) PRIMARY KEY,
		cache_value TEXT NOT NULL,
		expires_at BIGINT NOT NULL
	)`

// SQLCache stores lookup results in a table of the relational store, for
// deployments that share one database between several scanners
type SQLCache struct {
	db          *sqlx.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	now         func() time.Time
}

// NewSQLCache creates the cache table if needed. A positive cleanupFreq
// starts a background task that drops expired rows.
func NewSQLCache(ctx context.Context, db *sqlx.DB, logger *zap.Logger, cleanupFreq time.Duration) (*SQLCache, error) {
	if _, err := db.ExecContext(ctx, lookupCacheSchema); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &SQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache, nil
}

// Get retrieves a cached value
func (c *SQLCache) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := c.db.GetContext(ctx, &value, c.db.Rebind(`
		SELECT cache_value FROM lookup_cache
		WHERE cache_key = ? AND expires_at > ?`), key, c.now().Unix())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}
	return []byte(value), nil
}

// Set stores a value, replacing any previous row for the key
func (c *SQLCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM lookup_cache WHERE cache_key = ?`), key); err != nil {
		return fmt.Errorf("failed to replace cache entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO lookup_cache (cache_key, cache_value, expires_at) VALUES (?, ?, ?)`),
		key, string(value), c.now().Add(ttl).Unix()); err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return tx.Commit()
}

// Delete removes a cached value
func (c *SQLCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, c.db.Rebind(`DELETE FROM lookup_cache WHERE cache_key = ?`), key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (c *SQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, c.db.Rebind(`DELETE FROM lookup_cache WHERE expires_at <= ?`), c.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *SQLCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task
func (c *SQLCache) Stop() {
	close(c.stopCh)
}
