package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/phishguard/internal/ports"
	"go.uber.org/zap"
)

func exerciseCache(t *testing.T, c ports.LookupCache, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	if _, err := c.Get(ctx, "whois:example.com"); !errors.Is(err, ports.ErrCacheMiss) {
		t.Fatalf("Get on empty cache: %v", err)
	}

	if err := c.Set(ctx, "whois:example.com", []byte(`{"created":"2020-01-01T00:00:00Z"}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "whois:example.com")
	if err != nil || string(got) != `{"created":"2020-01-01T00:00:00Z"}` {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := c.Set(ctx, "whois:example.com", []byte("v2"), time.Minute); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if got, _ := c.Get(ctx, "whois:example.com"); string(got) != "v2" {
		t.Errorf("overwritten value = %q", got)
	}

	if err := c.Delete(ctx, "whois:example.com"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "whois:example.com"); !errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("Get after Delete: %v", err)
	}

	if err := c.Set(ctx, "short", []byte("x"), time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	advance(2 * time.Second)
	if _, err := c.Get(ctx, "short"); !errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("expired entry returned: %v", err)
	}
	if err := c.Cleanup(ctx); err != nil {
		t.Errorf("Cleanup: %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	now := time.Now()
	c.now = func() time.Time { return now }

	exerciseCache(t, c, func(d time.Duration) { now = now.Add(d) })

	if len(c.entries) != 0 {
		t.Errorf("Cleanup left %d entries", len(c.entries))
	}
	c.Stop()
	c.Stop()
}

func TestSQLCache(t *testing.T) {
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	c, err := NewSQLCache(context.Background(), db, zap.NewNop(), 0)
	if err != nil {
		t.Fatalf("NewSQLCache: %v", err)
	}
	now := time.Now()
	c.now = func() time.Time { return now }

	exerciseCache(t, c, func(d time.Duration) { now = now.Add(d) })

	var rows int
	if err := db.Get(&rows, `SELECT COUNT(*) FROM lookup_cache`); err != nil || rows != 0 {
		t.Errorf("rows after cleanup = %d, %v", rows, err)
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	rdb := NewRedisClient("127.0.0.1:1", "", 0)
	c := NewRedisCache(rdb, "phishguard:", zap.NewNop())
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.Get(ctx, "whois:example.com")
	if err == nil || errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("Get = %v, want a connection error", err)
	}
	if err := c.Cleanup(ctx); err != nil {
		t.Errorf("Cleanup: %v", err)
	}
}
