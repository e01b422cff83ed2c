package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mikey/phishguard/internal/adapters/mailfile"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/utils"
	"go.uber.org/zap"
)

func newTestConfig(settings map[string]interface{}) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range settings {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestCreateScorerNone(t *testing.T) {
	logger := zap.NewNop()
	f := NewScorerFactory(newTestConfig(nil), logger, utils.NewTextProcessor(logger))

	scorer, err := f.CreateScorer(context.Background())
	if err != nil {
		t.Fatalf("CreateScorer: %v", err)
	}
	if scorer != nil {
		t.Errorf("scorer = %v, want nil", scorer)
	}
}

func TestCreateScorerErrors(t *testing.T) {
	logger := zap.NewNop()
	tests := map[string]map[string]interface{}{
		"unknown provider":   {"classifier.provider": "llama"},
		"openai without key": {"classifier.provider": "openai"},
		"gemini without key": {"classifier.provider": "gemini"},
	}
	for name, settings := range tests {
		t.Run(name, func(t *testing.T) {
			f := NewScorerFactory(newTestConfig(settings), logger, utils.NewTextProcessor(logger))
			scorer, err := f.CreateScorer(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if scorer != nil {
				t.Errorf("scorer = %v, want nil", scorer)
			}
		})
	}
}

func TestCreateScorerOpenAI(t *testing.T) {
	logger := zap.NewNop()
	cfg := newTestConfig(map[string]interface{}{
		"classifier.provider": "openai",
		"openai.api_key":      "sk-test",
		"openai.base_url":     "http://localhost:1/v1",
	})

	scorer, err := NewScorerFactory(cfg, logger, utils.NewTextProcessor(logger)).CreateScorer(context.Background())
	if err != nil {
		t.Fatalf("CreateScorer: %v", err)
	}
	if scorer.Name() != "openai" {
		t.Errorf("Name() = %q", scorer.Name())
	}
}

func TestCreateLookupCache(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	disabled := NewCacheFactory(newTestConfig(map[string]interface{}{"cache.enabled": false}), logger)
	if c, err := disabled.CreateLookupCache(ctx, nil); err != nil || c != nil {
		t.Errorf("disabled cache = %v, %v; want nil, nil", c, err)
	}

	memory := NewCacheFactory(newTestConfig(nil), logger)
	c, err := memory.CreateLookupCache(ctx, nil)
	if err != nil || c == nil {
		t.Fatalf("memory cache = %v, %v", c, err)
	}
	memory.Close()

	sqlNoDB := NewCacheFactory(newTestConfig(map[string]interface{}{"cache.type": "sql"}), logger)
	if _, err := sqlNoDB.CreateLookupCache(ctx, nil); err == nil {
		t.Error("expected error for sql cache without a store")
	}

	unknown := NewCacheFactory(newTestConfig(map[string]interface{}{"cache.type": "memcached"}), logger)
	if _, err := unknown.CreateLookupCache(ctx, nil); err == nil {
		t.Error("expected error for unsupported cache type")
	}
}

func TestCreateStoreWithSQLCache(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	cfg := newTestConfig(map[string]interface{}{
		"store.sqlite_path": filepath.Join(t.TempDir(), "db", "phishguard.db"),
		"cache.type":        "sql",
	})

	s, err := NewStoreFactory(cfg, logger).CreateStore(ctx)
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	defer s.Close()

	cf := NewCacheFactory(cfg, logger)
	defer cf.Close()
	c, err := cf.CreateLookupCache(ctx, s.DB())
	if err != nil {
		t.Fatalf("CreateLookupCache: %v", err)
	}
	if err := c.Set(ctx, "whois:example.com", []byte("2020-01-01T00:00:00Z"), cf.GetCacheTTL()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "whois:example.com")
	if err != nil || string(got) != "2020-01-01T00:00:00Z" {
		t.Errorf("Get = %q, %v", got, err)
	}
}

func TestCreateStoreUnsupportedDriver(t *testing.T) {
	cfg := newTestConfig(map[string]interface{}{"store.driver": "oracle"})
	if _, err := NewStoreFactory(cfg, zap.NewNop()).CreateStore(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestMailboxFactory(t *testing.T) {
	logger := zap.NewNop()

	f, err := NewMailboxFactory(newTestConfig(map[string]interface{}{
		"mailbox.provider": "file",
		"mailbox.dir":      t.TempDir(),
	}), logger)
	if err != nil {
		t.Fatalf("NewMailboxFactory: %v", err)
	}
	client, err := f.NewMailboxClient()
	if err != nil {
		t.Fatalf("NewMailboxClient: %v", err)
	}
	if _, ok := client.(*mailfile.Mailbox); !ok {
		t.Errorf("client = %T, want *mailfile.Mailbox", client)
	}
	if f.Revoker() != nil {
		t.Error("file provider should have no revoker")
	}

	imapNoServer, _ := NewMailboxFactory(newTestConfig(map[string]interface{}{"mailbox.provider": "imap"}), logger)
	if _, err := imapNoServer.NewMailboxClient(); err == nil {
		t.Error("expected error for imap without a server")
	}

	missing := newTestConfig(map[string]interface{}{
		"mailbox.provider":         "gmail",
		"mailbox.credentials_file": filepath.Join(t.TempDir(), "missing.json"),
	})
	if _, err := NewMailboxFactory(missing, logger); err == nil {
		t.Error("expected error for missing gmail credentials")
	}
}

func TestCreateURLAnalyzerOffline(t *testing.T) {
	cfg := newTestConfig(map[string]interface{}{
		"urlrisk.whois_enabled":   false,
		"urlrisk.probe_redirects": false,
	})
	f := NewAnalyzerFactory(cfg, zap.NewNop())

	v := f.CreateURLAnalyzer(nil, 0).Analyze(context.Background(), "http://192.168.0.1/login")
	if v.Score == 0 {
		t.Errorf("Score = %d, want a positive score for an IP host", v.Score)
	}

	c := f.CreateClassifier(nil)
	if got := c.Classify(context.Background(), "short"); got.IsAIGenerated {
		t.Error("short text should not be flagged")
	}
}
