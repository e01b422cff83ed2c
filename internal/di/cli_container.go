package di

import (
	"context"
	"flag"
	"os"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/adapters/report"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/factory"
	"github.com/mikey/phishguard/internal/logging"
	"github.com/mikey/phishguard/internal/ports"
	"github.com/mikey/phishguard/internal/utils"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Scorer provider flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64
	MaxBodySize int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string
	OpenAIBaseURL   string

	// URL analysis flags
	NoWhois        bool
	NoRedirects    bool
	TrustedDomains string

	// Input flags
	URL        string
	InputFile  string
	Verbose    bool
	JSONLog    bool
	JSONOutput bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	return parseFlags(flag.CommandLine, os.Args[1:])
}

func parseFlags(fs *flag.FlagSet, args []string) *CLIFlags {
	flags := &CLIFlags{}

	// Scorer provider flags
	fs.StringVar(&flags.Provider, "provider", "none", "External AI text scorer (none, bedrock, gemini, openai)")
	fs.IntVar(&flags.MaxTokens, "max-tokens", 300, "Maximum tokens for the scorer response")
	fs.Float64Var(&flags.Temperature, "temperature", 0.0, "Temperature for the scorer")
	fs.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for the scorer")
	fs.IntVar(&flags.MaxBodySize, "max-body-size", 4096, "Maximum body size sent to the scorer")

	// Bedrock flags
	fs.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	fs.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	fs.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	fs.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	fs.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	fs.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")
	fs.StringVar(&flags.OpenAIBaseURL, "openai-base-url", "", "Base URL of an OpenAI compatible endpoint")

	// URL analysis flags
	fs.BoolVar(&flags.NoWhois, "no-whois", false, "Skip WHOIS domain age lookups")
	fs.BoolVar(&flags.NoRedirects, "no-redirects", false, "Skip following redirects")
	fs.StringVar(&flags.TrustedDomains, "trusted", "", "Comma-separated list of trusted domains")

	// Input flags
	fs.StringVar(&flags.URL, "url", "", "URL to analyze")
	fs.StringVar(&flags.InputFile, "file", "", "Email or text file to analyze (use stdin if neither -url nor -file is given)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging and detailed output")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.BoolVar(&flags.JSONOutput, "json", false, "Print the report as JSON")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	fs.Parse(args)
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register text processor and factories
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewScorerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewAnalyzerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}

	// Register lookup cache; without a store only memory and redis apply
	if err := container.Provide(func(f *factory.CacheFactory) (ports.LookupCache, error) {
		return f.CreateLookupCache(context.Background(), nil)
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

	// Register report printer
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) *report.Printer {
		return report.NewPrinter(os.Stdout, flags.JSONOutput, flags.Verbose, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// The CLI keeps WHOIS answers for the process lifetime only
	v.Set("cache.type", "memory")

	// Set scorer provider
	v.Set("classifier.provider", flags.Provider)
	v.Set("classifier.max_body_size", flags.MaxBodySize)

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.base_url", flags.OpenAIBaseURL)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
	}

	// Set URL analysis switches
	v.Set("urlrisk.whois_enabled", !flags.NoWhois)
	v.Set("urlrisk.probe_redirects", !flags.NoRedirects)
	if flags.TrustedDomains != "" {
		domains := strings.Split(flags.TrustedDomains, ",")
		for i, domain := range domains {
			domains[i] = strings.TrimSpace(domain)
		}
		v.Set("urlrisk.trusted_domains", domains)
	}

	return config.NewFromViper(v)
}
