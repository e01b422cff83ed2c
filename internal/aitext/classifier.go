package aitext

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/metrics"
	"go.uber.org/zap"
)

// Signal names as reported in AIVerdict.Signals
const (
	SignalPerplexity = "perplexity"
	SignalBurstiness = "burstiness"
	SignalPattern    = "pattern_match"
	SignalUniformity = "uniformity"
	SignalVocabulary = "vocabulary_diversity"
	SignalStructure  = "sentence_structure"
	SignalExternal   = "external"
)

// Method tags
const (
	MethodHybrid    = "transformer-hybrid"
	MethodHeuristic = "heuristic-only"
)

const (
	minTextLength      = 50
	hybridThreshold    = 0.65
	heuristicThreshold = 0.70
	defaultTimeout     = 10 * time.Second
)

// TooShortIndicator is the only indicator of a text rejected by the length guard
const TooShortIndicator = "too short"

type weight struct {
	signal string
	value  float64
}

var (
	hybridWeights = []weight{
		{SignalExternal, 0.5},
		{SignalPerplexity, 0.15},
		{SignalBurstiness, 0.15},
		{SignalPattern, 0.1},
		{SignalUniformity, 0.05},
		{SignalVocabulary, 0.05},
	}
	heuristicWeights = []weight{
		{SignalPerplexity, 0.25},
		{SignalBurstiness, 0.25},
		{SignalPattern, 0.20},
		{SignalUniformity, 0.15},
		{SignalVocabulary, 0.10},
		{SignalStructure, 0.05},
	}
)

// indicatorRules append an indicator when a signal crosses its bound,
// regardless of the final verdict
var indicatorRules = []struct {
	signal  string
	above   bool
	bound   float64
	message string
}{
	{SignalPerplexity, true, 0.7, "Low perplexity (predictable text)"},
	{SignalBurstiness, true, 0.7, "Low burstiness (uniform sentences)"},
	{SignalPattern, true, 0.5, "Contains common AI phrases"},
	{SignalUniformity, true, 0.6, "Repetitive sentence structure"},
	{SignalVocabulary, false, 0.3, "Limited vocabulary diversity"},
}

// Options configures a Classifier
type Options struct {
	Lexicon *Lexicon
	Tables  Tables
	// Scorer is the optional external sequence classifier
	Scorer core.ExternalScorer
	// ScorerTimeout bounds a single Scorer call
	ScorerTimeout time.Duration
}

// Classifier fuses the text signals and an optional external score into a
// single machine-generated text verdict
type Classifier struct {
	lex           *Lexicon
	tables        Tables
	scorer        core.ExternalScorer
	scorerTimeout time.Duration
	logger        *zap.Logger
}

// NewClassifier creates a new classifier
func NewClassifier(opts Options, logger *zap.Logger) *Classifier {
	if opts.Lexicon == nil {
		opts.Lexicon = DefaultLexicon()
	}
	if opts.Tables.Burstiness.Steps == nil {
		opts.Tables = DefaultTables()
	}
	if opts.ScorerTimeout <= 0 {
		opts.ScorerTimeout = defaultTimeout
	}
	return &Classifier{
		lex:           opts.Lexicon,
		tables:        opts.Tables,
		scorer:        opts.Scorer,
		scorerTimeout: opts.ScorerTimeout,
		logger:        logger,
	}
}

// Classify scores one text body
func (c *Classifier) Classify(ctx context.Context, text string) *core.AIVerdict {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minTextLength {
		return &core.AIVerdict{
			Confidence: 0,
			Label:      ConfidenceLabel(0),
			Signals:    map[string]float64{},
			Indicators: []string{TooShortIndicator},
		}
	}

	signals := map[string]float64{
		SignalPerplexity: Perplexity(text),
		SignalBurstiness: Burstiness(text, c.tables.Burstiness),
		SignalPattern:    PatternScore(text, c.lex),
		SignalUniformity: Uniformity(text, c.tables.Uniformity),
		SignalVocabulary: VocabularyDiversity(text, c.tables.Vocabulary),
		SignalStructure:  StructureComplexity(text, c.lex),
	}

	weights, threshold, method := heuristicWeights, heuristicThreshold, MethodHeuristic
	if ext, ok := c.externalScore(ctx, text); ok {
		signals[SignalExternal] = ext
		weights, threshold, method = hybridWeights, hybridThreshold, MethodHybrid
	}

	confidence := 0.0
	for _, w := range weights {
		confidence += signals[w.signal] * w.value
	}
	confidence = math.Max(0, math.Min(confidence, 1))

	verdict := &core.AIVerdict{
		IsAIGenerated: confidence > threshold,
		Confidence:    confidence,
		Label:         ConfidenceLabel(confidence),
		Signals:       signals,
		Indicators:    []string{},
		Method:        method,
	}
	if verdict.IsAIGenerated {
		verdict.Indicators = append(verdict.Indicators, fmt.Sprintf("High AI probability (%.1f%%)", confidence*100))
	}
	for _, r := range indicatorRules {
		v := signals[r.signal]
		if (r.above && v > r.bound) || (!r.above && v < r.bound) {
			verdict.Indicators = append(verdict.Indicators, r.message)
		}
	}
	return verdict
}

// ClassifyAll scores each text in order
func (c *Classifier) ClassifyAll(ctx context.Context, texts []string) []*core.AIVerdict {
	verdicts := make([]*core.AIVerdict, len(texts))
	for i, t := range texts {
		verdicts[i] = c.Classify(ctx, t)
	}
	return verdicts
}

// externalScore calls the scorer under a timeout; errors and values outside
// [0,1] count as absent
func (c *Classifier) externalScore(ctx context.Context, text string) (float64, bool) {
	if c.scorer == nil {
		return 0, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.scorerTimeout)
	defer cancel()

	score, err := c.scorer.ScoreText(ctx, text)
	metrics.RecordExternalScore(c.scorer.Name(), err)
	if err != nil {
		c.logger.Warn("External scorer failed, using heuristics only",
			zap.String("scorer", c.scorer.Name()),
			zap.Error(err))
		return 0, false
	}
	if math.IsNaN(score) || score < 0 || score > 1 {
		c.logger.Warn("External scorer returned an out of range score",
			zap.String("scorer", c.scorer.Name()),
			zap.Float64("score", score))
		return 0, false
	}
	return score, true
}
