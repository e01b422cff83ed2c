package factory

import (
	"context"
	"fmt"

	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/utils"
	"go.uber.org/zap"
)

// ScorerFactory creates the optional external text scorer
type ScorerFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewScorerFactory creates a new scorer factory
func NewScorerFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ScorerFactory {
	return &ScorerFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateScorer creates the scorer of the configured classifier provider.
// The "none" provider yields a nil scorer and heuristic-only verdicts.
func (f *ScorerFactory) CreateScorer(ctx context.Context) (core.ExternalScorer, error) {
	provider := f.cfg.GetClassifier().Provider

	switch provider {
	case "", "none":
		f.logger.Info("No external scorer configured, using heuristics only")
		return nil, nil
	case "bedrock":
		s, err := NewBedrockFactory(f.cfg, f.logger, f.textProcessor).CreateScorer(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "gemini":
		s, err := NewGeminiFactory(f.cfg, f.logger, f.textProcessor).CreateScorer(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "openai":
		s, err := NewOpenAIFactory(f.cfg, f.logger, f.textProcessor).CreateScorer()
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", provider)
	}
}
