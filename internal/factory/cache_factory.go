package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mikey/phishguard/internal/adapters/cache"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/ports"
	"go.uber.org/zap"
)

// CacheFactory creates the lookup cache based on configuration and stops
// whatever it created on Close
type CacheFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	closers []func()
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLookupCache creates the configured lookup cache. It returns a nil
// cache when caching is disabled. The sql type shares db with the store.
func (f *CacheFactory) CreateLookupCache(ctx context.Context, db *sqlx.DB) (ports.LookupCache, error) {
	cacheCfg := f.cfg.GetCache()
	if !cacheCfg.Enabled {
		f.logger.Info("Lookup cache disabled")
		return nil, nil
	}

	switch cacheCfg.Type {
	case "memory":
		c := cache.NewMemoryCache(f.logger, cacheCfg.CleanupFrequency)
		f.closers = append(f.closers, c.Stop)
		return c, nil
	case "redis":
		c := cache.NewRedisCache(
			cache.NewRedisClient(cacheCfg.RedisAddr, cacheCfg.RedisPassword, cacheCfg.RedisDB),
			cacheCfg.KeyPrefix,
			f.logger,
		)
		f.closers = append(f.closers, func() {
			if err := c.Close(); err != nil {
				f.logger.Warn("Failed to close redis cache", zap.Error(err))
			}
		})
		return c, nil
	case "sql":
		if db == nil {
			return nil, fmt.Errorf("sql cache requires an open store")
		}
		c, err := cache.NewSQLCache(ctx, db, f.logger, cacheCfg.CleanupFrequency)
		if err != nil {
			return nil, fmt.Errorf("failed to create sql cache: %w", err)
		}
		f.closers = append(f.closers, c.Stop)
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheCfg.Type)
	}
}

// GetCacheTTL returns the configured cache TTL
func (f *CacheFactory) GetCacheTTL() time.Duration {
	return f.cfg.GetCache().TTL
}

// Close stops the caches created by the factory
func (f *CacheFactory) Close() {
	for _, c := range f.closers {
		c()
	}
	f.closers = nil
}
