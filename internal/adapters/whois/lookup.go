package whois

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"github.com/mikey/phishguard/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

var (
	// ErrNoDomain is returned for hosts without a registrable domain, such as IP literals
	ErrNoDomain = errors.New("host has no registrable domain")
	// ErrNoCreationDate is returned when the WHOIS record carries no usable creation date
	ErrNoCreationDate = errors.New("whois record has no creation date")
)

// createdLayouts are the creation date formats seen in registry responses
var createdLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02",
	"02-Jan-2006",
	"02-Jan-2006 15:04:05 MST",
	"2006.01.02",
	"2006/01/02",
	"January 2 2006",
}

// QueryFunc returns the raw WHOIS response for a domain
type QueryFunc func(domain string) (string, error)

// Lookup resolves domain registration dates over WHOIS, caching successful
// answers per registrable domain
type Lookup struct {
	query  QueryFunc
	cache  ports.LookupCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewLookup creates a WHOIS lookup backed by the public registries. cache may be nil.
func NewLookup(timeout time.Duration, cache ports.LookupCache, ttl time.Duration, logger *zap.Logger) *Lookup {
	client := whois.NewClient().SetTimeout(timeout)
	return NewLookupWithQuery(func(domain string) (string, error) {
		return client.Whois(domain)
	}, cache, ttl, logger)
}

// NewLookupWithQuery creates a lookup around a custom query function
func NewLookupWithQuery(query QueryFunc, cache ports.LookupCache, ttl time.Duration, logger *zap.Logger) *Lookup {
	return &Lookup{
		query:  query,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// RegistrationDate returns the creation date of the host's registrable domain
func (l *Lookup) RegistrationDate(ctx context.Context, host string) (time.Time, error) {
	domain, err := RegistrableDomain(host)
	if err != nil {
		return time.Time{}, err
	}

	key := "whois:" + domain
	if l.cache != nil {
		if cached, err := l.cache.Get(ctx, key); err == nil {
			if created, err := time.Parse(time.RFC3339, string(cached)); err == nil {
				return created, nil
			}
		} else if !errors.Is(err, ports.ErrCacheMiss) {
			l.logger.Warn("Failed to read WHOIS cache", zap.String("domain", domain), zap.Error(err))
		}
	}

	raw, err := l.queryContext(ctx, domain)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query whois for %s: %w", domain, err)
	}

	created, err := parseCreated(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse whois for %s: %w", domain, err)
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, key, []byte(created.UTC().Format(time.RFC3339)), l.ttl); err != nil {
			l.logger.Warn("Failed to write WHOIS cache", zap.String("domain", domain), zap.Error(err))
		}
	}
	return created, nil
}

// queryContext runs the blocking query and gives up when ctx is done
func (l *Lookup) queryContext(ctx context.Context, domain string) (string, error) {
	type result struct {
		raw string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		raw, err := l.query(domain)
		ch <- result{raw, err}
	}()

	select {
	case r := <-ch:
		return r.raw, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// RegistrableDomain reduces a host to its eTLD+1
func RegistrableDomain(host string) (string, error) {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "" || net.ParseIP(strings.Trim(host, "[]")) != nil {
		return "", ErrNoDomain
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDomain, err)
	}
	return domain, nil
}

func parseCreated(raw string) (time.Time, error) {
	info, err := whoisparser.Parse(raw)
	if err != nil {
		return time.Time{}, err
	}
	if info.Domain == nil || info.Domain.CreatedDate == "" {
		return time.Time{}, ErrNoCreationDate
	}

	value := strings.TrimSpace(info.Domain.CreatedDate)
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", ErrNoCreationDate, value)
}
