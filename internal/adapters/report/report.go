package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

const bodyPreviewSize = 500

// MessageReport is the one-shot verdict of a single message
type MessageReport struct {
	Subject    string             `json:"subject"`
	Sender     string             `json:"sender"`
	Date       string             `json:"date,omitempty"`
	BodyLength int                `json:"body_length"`
	Body       string             `json:"-"`
	IsPhishing bool               `json:"is_phishing"`
	RiskLevel  core.RiskLevel     `json:"risk_level"`
	URLs       []*core.URLVerdict `json:"urls"`
	AI         *core.AIVerdict    `json:"ai_analysis"`
	Duration   time.Duration      `json:"-"`
}

// AnalyzeMessage scores a message without persisting anything, deriving the
// risk level the same way a scan does
func AnalyzeMessage(ctx context.Context, analyzer core.URLAnalyzer, classifier core.TextClassifier, raw *core.RawMessage) *MessageReport {
	start := time.Now()

	r := &MessageReport{
		Subject:    raw.Subject,
		Sender:     raw.Sender,
		Date:       raw.Date,
		BodyLength: len(raw.Body),
		Body:       raw.Body,
		URLs:       make([]*core.URLVerdict, 0, len(raw.Links)),
	}

	maxScore := 0
	for _, link := range raw.Links {
		v := analyzer.Analyze(ctx, link)
		r.URLs = append(r.URLs, v)
		if v.Score > maxScore {
			maxScore = v.Score
		}
		if v.IsSuspicious {
			r.IsPhishing = true
		}
	}

	r.AI = classifier.Classify(ctx, raw.Body)
	r.RiskLevel, _ = core.DeriveRisk(r.IsPhishing, r.AI.IsAIGenerated, maxScore)
	r.Duration = time.Since(start)
	return r
}

// Printer writes reports as readable text or as indented JSON
type Printer struct {
	out     io.Writer
	json    bool
	verbose bool
	logger  *zap.Logger
}

// NewPrinter creates a new report printer
func NewPrinter(out io.Writer, jsonOutput, verbose bool, logger *zap.Logger) *Printer {
	return &Printer{
		out:     out,
		json:    jsonOutput,
		verbose: verbose,
		logger:  logger,
	}
}

// PrintURL writes the verdict of a single URL
func (p *Printer) PrintURL(v *core.URLVerdict, duration time.Duration) error {
	if p.json {
		return p.writeJSON(v)
	}

	w := &errWriter{w: p.out}
	w.printf("\n=== URL Analysis ===\n")
	p.writeURL(w, v)
	w.printf("Processing time: %v\n", duration)
	return w.err
}

// PrintMessage writes the verdict of a message with its links and text analysis
func (p *Printer) PrintMessage(r *MessageReport) error {
	if p.json {
		return p.writeJSON(r)
	}

	w := &errWriter{w: p.out}
	w.printf("\n=== Email Summary ===\n")
	w.printf("From: %s\n", r.Sender)
	w.printf("Subject: %s\n", r.Subject)
	if r.Date != "" {
		w.printf("Date: %s\n", r.Date)
	}
	w.printf("Body length: %d bytes\n", r.BodyLength)

	if p.verbose {
		preview := r.Body
		if len(preview) > bodyPreviewSize {
			preview = preview[:bodyPreviewSize] + "..."
		}
		w.printf("\nBody preview:\n%s\n", preview)
	}

	w.printf("\n=== Links (%d) ===\n", len(r.URLs))
	for _, v := range r.URLs {
		p.writeURL(w, v)
		w.printf("\n")
	}

	w.printf("=== AI Text Analysis ===\n")
	w.printf("AI generated: %t\n", r.AI.IsAIGenerated)
	w.printf("Confidence: %.4f (%s)\n", r.AI.Confidence, r.AI.Label)
	if r.AI.Method != "" {
		w.printf("Method: %s\n", r.AI.Method)
	}
	if p.verbose && len(r.AI.Signals) > 0 {
		names := make([]string, 0, len(r.AI.Signals))
		for name := range r.AI.Signals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			w.printf("  %s: %.4f\n", name, r.AI.Signals[name])
		}
	}
	if len(r.AI.Indicators) > 0 {
		w.printf("Indicators: %s\n", strings.Join(r.AI.Indicators, "; "))
	}

	w.printf("\n=== Results ===\n")
	w.printf("Is phishing: %t\n", r.IsPhishing)
	w.printf("Risk level: %s\n", r.RiskLevel)
	w.printf("Processing time: %v\n", r.Duration)
	return w.err
}

func (p *Printer) writeURL(w *errWriter, v *core.URLVerdict) {
	w.printf("URL: %s\n", v.URL)
	if v.Error != "" {
		w.printf("Error: %s\n", v.Error)
		return
	}
	w.printf("Suspicious: %t\n", v.IsSuspicious)
	w.printf("Risk score: %d (%s)\n", v.Score, v.Level)
	for _, ind := range v.Indicators {
		w.printf("  - %s\n", ind)
	}
	if p.verbose && len(v.Details) > 0 {
		keys := make([]string, 0, len(v.Details))
		for k := range v.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			w.printf("  %s: %v\n", k, v.Details[k])
		}
	}
}

func (p *Printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		p.logger.Error("Failed to encode report", zap.Error(err))
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// errWriter keeps the first write error
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
