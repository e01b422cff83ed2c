package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mikey/phishguard/internal/adapters/mailfile"
	"github.com/mikey/phishguard/internal/adapters/report"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/di"
	"github.com/mikey/phishguard/internal/factory"
	"github.com/mikey/phishguard/internal/utils"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	analyzer core.URLAnalyzer,
	classifier core.TextClassifier,
	scorer core.ExternalScorer,
	caches *factory.CacheFactory,
	printer *report.Printer,
) error {
	defer logger.Sync()
	defer caches.Close()
	defer func() {
		if closer, ok := scorer.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close external scorer", zap.Error(err))
			}
		}
	}()

	ctx := context.Background()

	if flags.URL != "" {
		start := time.Now()
		v := analyzer.Analyze(ctx, flags.URL)
		return printer.PrintURL(v, time.Since(start))
	}

	// Read email from file or stdin
	var (
		input io.Reader = os.Stdin
		name            = "stdin"
	)
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		input = file
		name = filepath.Base(flags.InputFile)
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		logger.Info("Reading email from stdin")
	}

	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	return printer.PrintMessage(report.AnalyzeMessage(ctx, analyzer, classifier, parseInput(name, data, logger)))
}

// parseInput reads data as a MIME message and falls back to plain text when
// no message body can be read
func parseInput(name string, data []byte, logger *zap.Logger) *core.RawMessage {
	raw, err := mailfile.ReadMessage(name, bytes.NewReader(data))
	if err == nil && strings.TrimSpace(raw.Body) != "" {
		return raw
	}
	logger.Debug("Input is not a MIME message, analyzing as plain text", zap.Error(err))

	body := string(data)
	html := utils.LooksLikeHTML(body)
	return &core.RawMessage{
		ID:      name,
		Body:    body,
		Links:   utils.CollectLinks(body, html),
		Snippet: utils.Snippet(body, html, 200),
	}
}
