package factory

import (
	"context"
	"fmt"

	"github.com/mikey/phishguard/internal/adapters/store"
	"github.com/mikey/phishguard/internal/config"
	"go.uber.org/zap"
)

// StoreFactory opens and migrates the relational store
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore opens the configured database and applies the schema
func (f *StoreFactory) CreateStore(ctx context.Context) (*store.Store, error) {
	storeCfg := f.cfg.GetStore()

	db, dialect, err := store.Open(storeCfg)
	if err != nil {
		return nil, err
	}

	s := store.New(db, dialect, f.logger)
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}

	f.logger.Info("Opened store", zap.String("driver", storeCfg.Driver))
	return s, nil
}
