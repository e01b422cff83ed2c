package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/adapters/store"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/factory"
	"github.com/mikey/phishguard/internal/logging"
	"github.com/mikey/phishguard/internal/ports"
	"github.com/mikey/phishguard/internal/utils"
)

// BuildContainer creates and configures a dependency injection container.
// An empty configFile searches the standard locations.
func BuildContainer(configFile string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.NewFromFile(configFile)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewScorerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewAnalyzerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMailboxFactory); err != nil {
		return nil, err
	}

	// Register store and repository
	if err := container.Provide(func(f *factory.StoreFactory) (*store.Store, error) {
		return f.CreateStore(context.Background())
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s *store.Store) core.Repository {
		return s
	}); err != nil {
		return nil, err
	}

	// Register lookup cache, which may be nil when disabled
	if err := container.Provide(func(f *factory.CacheFactory, s *store.Store) (ports.LookupCache, error) {
		return f.CreateLookupCache(context.Background(), s.DB())
	}); err != nil {
		return nil, err
	}

	// Register external scorer, which may be nil
	if err := container.Provide(func(f *factory.ScorerFactory) (core.ExternalScorer, error) {
		return f.CreateScorer(context.Background())
	}); err != nil {
		return nil, err
	}

	// Register analyzers
	if err := container.Provide(func(f *factory.AnalyzerFactory, c ports.LookupCache, cf *factory.CacheFactory) core.URLAnalyzer {
		return f.CreateURLAnalyzer(c, cf.GetCacheTTL())
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.AnalyzerFactory, scorer core.ExternalScorer) core.TextClassifier {
		return f.CreateClassifier(scorer)
	}); err != nil {
		return nil, err
	}

	// Register services
	if err := container.Provide(func(
		repo core.Repository,
		mailboxes *factory.MailboxFactory,
		classifier core.TextClassifier,
		analyzer core.URLAnalyzer,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.ScanService {
		scanCfg := cfg.GetScan()
		return core.NewScanService(repo, mailboxes, classifier, analyzer, logger, core.ScanOptions{
			MaxResults: scanCfg.MaxResults,
			Query:      scanCfg.Query,
			Fetch: core.FetchOptions{
				Concurrency: scanCfg.Concurrency,
				Threshold:   scanCfg.ConcurrencyThreshold,
			},
		})
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		repo core.Repository,
		mailboxes *factory.MailboxFactory,
		logger *zap.Logger,
	) *core.AccountService {
		return core.NewAccountService(repo, mailboxes, mailboxes.Revoker(), logger)
	}); err != nil {
		return nil, err
	}

	// Register trigger surfaces
	if err := container.Provide(func(s *core.ScanService) ports.Scanner {
		return s
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s *core.AccountService) ports.AccountManager {
		return s
	}); err != nil {
		return nil, err
	}

	return container, nil
}
