package config

import (
	"time"
)

// ScanConfig represents the configuration for scan runs
type ScanConfig struct {
	MaxResults           int
	Query                string
	Concurrency          int
	ConcurrencyThreshold int
	Interval             time.Duration
	Owners               []string
}

// StoreConfig represents the configuration for the relational store
type StoreConfig struct {
	Driver       string
	SQLitePath   string
	DSN          string
	MaxOpenConns int
}

// MailboxConfig represents the configuration for the mailbox provider
type MailboxConfig struct {
	Provider        string
	PageSize        int
	CredentialsFile string
	TokenDir        string
	Dir             string
}

// IMAPConfig represents the configuration for an IMAP mailbox
type IMAPConfig struct {
	Server      string
	Username    string
	Password    string
	Mailbox     string
	TLS         bool
	DialTimeout time.Duration
}

// ClassifierConfig represents the configuration for the external text scorer
type ClassifierConfig struct {
	Provider    string
	Timeout     time.Duration
	MaxBodySize int
}

// URLRiskConfig represents the configuration for the URL risk analyzer.
// Empty lists fall back to the built-in defaults.
type URLRiskConfig struct {
	LookupTimeout  time.Duration
	WhoisEnabled   bool
	ProbeRedirects bool
	MaxRedirects   int
	SuspiciousTLDs []string
	TrustedDomains []string
	Keywords       []string
	Brands         []string
}

// CacheConfig represents the configuration for the lookup cache
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	KeyPrefix        string
}

// MetricsConfig represents the configuration for the metrics endpoint
type MetricsConfig struct {
	Enabled       bool
	ListenAddress string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GetScan returns the scan configuration
func (c *Config) GetScan() ScanConfig {
	return ScanConfig{
		MaxResults:           c.GetInt("scan.max_results"),
		Query:                c.GetString("scan.query"),
		Concurrency:          c.GetInt("scan.concurrency"),
		ConcurrencyThreshold: c.GetInt("scan.concurrency_threshold"),
		Interval:             c.durationOr("scan.interval", 0),
		Owners:               c.GetStringSlice("scan.owners"),
	}
}

// GetStore returns the store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Driver:       c.GetString("store.driver"),
		SQLitePath:   c.GetString("store.sqlite_path"),
		DSN:          c.GetString("store.dsn"),
		MaxOpenConns: c.GetInt("store.max_open_conns"),
	}
}

// GetMailbox returns the mailbox configuration
func (c *Config) GetMailbox() MailboxConfig {
	return MailboxConfig{
		Provider:        c.GetString("mailbox.provider"),
		PageSize:        c.GetInt("mailbox.page_size"),
		CredentialsFile: c.GetString("mailbox.credentials_file"),
		TokenDir:        c.GetString("mailbox.token_dir"),
		Dir:             c.GetString("mailbox.dir"),
	}
}

// GetIMAP returns the IMAP configuration
func (c *Config) GetIMAP() IMAPConfig {
	return IMAPConfig{
		Server:      c.GetString("imap.server"),
		Username:    c.GetString("imap.username"),
		Password:    c.GetString("imap.password"),
		Mailbox:     c.GetString("imap.mailbox"),
		TLS:         c.GetBool("imap.tls"),
		DialTimeout: c.durationOr("imap.dial_timeout", 30*time.Second),
	}
}

// GetClassifier returns the external scorer configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Provider:    c.GetString("classifier.provider"),
		Timeout:     c.durationOr("classifier.timeout", 10*time.Second),
		MaxBodySize: c.GetInt("classifier.max_body_size"),
	}
}

// GetURLRisk returns the URL risk analyzer configuration
func (c *Config) GetURLRisk() URLRiskConfig {
	return URLRiskConfig{
		LookupTimeout:  c.durationOr("urlrisk.lookup_timeout", 5*time.Second),
		WhoisEnabled:   c.GetBool("urlrisk.whois_enabled"),
		ProbeRedirects: c.GetBool("urlrisk.probe_redirects"),
		MaxRedirects:   c.GetInt("urlrisk.max_redirects"),
		SuspiciousTLDs: c.GetStringSlice("urlrisk.suspicious_tlds"),
		TrustedDomains: c.GetStringSlice("urlrisk.trusted_domains"),
		Keywords:       c.GetStringSlice("urlrisk.keywords"),
		Brands:         c.GetStringSlice("urlrisk.brands"),
	}
}

// GetCache returns the cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              c.durationOr("cache.ttl", 24*time.Hour),
		CleanupFrequency: c.durationOr("cache.cleanup_frequency", time.Hour),
		RedisAddr:        c.GetString("cache.redis_addr"),
		RedisPassword:    c.GetString("cache.redis_password"),
		RedisDB:          c.GetInt("cache.redis_db"),
		KeyPrefix:        c.GetString("cache.key_prefix"),
	}
}

// GetMetrics returns the metrics configuration
func (c *Config) GetMetrics() MetricsConfig {
	return MetricsConfig{
		Enabled:       c.GetBool("metrics.enabled"),
		ListenAddress: c.GetString("metrics.listen_address"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

func (c *Config) durationOr(key string, fallback time.Duration) time.Duration {
	d, err := c.GetDuration(key)
	if err != nil {
		return fallback
	}
	return d
}
