package factory

import (
	"net/http"
	"time"

	"github.com/mikey/phishguard/internal/adapters/httpprobe"
	"github.com/mikey/phishguard/internal/adapters/whois"
	"github.com/mikey/phishguard/internal/aitext"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/ports"
	"github.com/mikey/phishguard/internal/urlrisk"
	"go.uber.org/zap"
)

// AnalyzerFactory creates the URL risk analyzer and the AI text classifier
type AnalyzerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(cfg *config.Config, logger *zap.Logger) *AnalyzerFactory {
	return &AnalyzerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateURLAnalyzer creates the URL analyzer. WHOIS answers go through
// lookupCache when it is not nil.
func (f *AnalyzerFactory) CreateURLAnalyzer(lookupCache ports.LookupCache, cacheTTL time.Duration) *urlrisk.Analyzer {
	riskCfg := f.cfg.GetURLRisk()

	opts := urlrisk.Options{
		Lists: urlrisk.Lists{
			SuspiciousTLDs: riskCfg.SuspiciousTLDs,
			TrustedDomains: riskCfg.TrustedDomains,
			Keywords:       riskCfg.Keywords,
			Brands:         riskCfg.Brands,
		},
		LookupTimeout: riskCfg.LookupTimeout,
	}

	if riskCfg.WhoisEnabled {
		opts.DomainAges = whois.NewLookup(riskCfg.LookupTimeout, lookupCache, cacheTTL, f.logger)
	} else {
		f.logger.Info("WHOIS lookups disabled")
	}

	if riskCfg.ProbeRedirects {
		client := &http.Client{Timeout: riskCfg.LookupTimeout}
		opts.Redirects = httpprobe.NewProber(client, riskCfg.MaxRedirects, f.logger)
	} else {
		f.logger.Info("Redirect probing disabled")
	}

	return urlrisk.NewAnalyzer(opts, f.logger)
}

// CreateClassifier creates the AI text classifier around an optional scorer
func (f *AnalyzerFactory) CreateClassifier(scorer core.ExternalScorer) *aitext.Classifier {
	return aitext.NewClassifier(aitext.Options{
		Scorer:        scorer,
		ScorerTimeout: f.cfg.GetClassifier().Timeout,
	}, f.logger)
}
