package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	scan := cfg.GetScan()
	if scan.MaxResults != 50 {
		t.Errorf("MaxResults = %d, want 50", scan.MaxResults)
	}
	if scan.Concurrency != 5 || scan.ConcurrencyThreshold != 10 {
		t.Errorf("concurrency = %d/%d, want 5/10", scan.Concurrency, scan.ConcurrencyThreshold)
	}
	if scan.Interval != 0 {
		t.Errorf("Interval = %v, want 0", scan.Interval)
	}

	if got := cfg.GetURLRisk().LookupTimeout; got != 5*time.Second {
		t.Errorf("LookupTimeout = %v, want 5s", got)
	}
	if got := cfg.GetMailbox().PageSize; got != 500 {
		t.Errorf("PageSize = %d, want 500", got)
	}
	if got := cfg.GetStore().Driver; got != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", got)
	}
	if got := cfg.GetClassifier().Provider; got != "none" {
		t.Errorf("classifier provider = %q, want none", got)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	v := NewEmptyViper()
	v.Set("cache.ttl", "soon")
	cfg := NewFromViper(v)

	if _, err := cfg.GetDuration("cache.ttl"); err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if got := cfg.GetCache().TTL; got != 24*time.Hour {
		t.Errorf("TTL = %v, want fallback 24h", got)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "phishguard.yaml")
	data := []byte(`
scan:
  max_results: 20
urlrisk:
  trusted_domains: [example.org]
store:
  driver: postgres
  dsn: postgres://localhost/phishguard
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	if got := cfg.GetScan().MaxResults; got != 20 {
		t.Errorf("MaxResults = %d, want 20", got)
	}
	if got := cfg.GetURLRisk().TrustedDomains; len(got) != 1 || got[0] != "example.org" {
		t.Errorf("TrustedDomains = %v", got)
	}
	if got := cfg.GetStore().DSN; got != "postgres://localhost/phishguard" {
		t.Errorf("DSN = %q", got)
	}
}
