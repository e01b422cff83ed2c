package urlrisk

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/metrics"
	"github.com/mikey/phishguard/internal/whitelist"
	"go.uber.org/zap"
)

// Detail keys
const (
	DetailTrusted       = "trusted_domain"
	DetailDomainAgeDays = "domain_age_days"
	DetailDomainAge     = "domain_age"
	DetailUsesHTTPS     = "uses_https"
	DetailRedirectCount = "redirect_count"
	DetailRedirects     = "redirects"
)

// Check weights
const (
	longURLScore       = 10
	suspiciousTLDScore = 20
	ipHostScore        = 25
	manyDotsScore      = 15
	atSignScore        = 20
	doubleSlashScore   = 10
	keywordScore       = 5
	newDomainScore     = 25
	youngDomainScore   = 10
	plainHTTPScore     = 15
	redirectScore      = 15
	brandScore         = 30

	maxScore          = 100
	longURLLength     = 75
	maxDots           = 4
	maxRedirects      = 2
	newDomainAge      = 30 * 24 * time.Hour
	youngDomainAge    = 180 * 24 * time.Hour
	defaultLookupWait = 5 * time.Second

	unableToRetrieve = "Unable to retrieve"
	unableToCheck    = "Unable to check"
)

var ipHost = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// Options configures an Analyzer
type Options struct {
	Lists Lists
	// DomainAges resolves registration dates; nil reports the age as unavailable
	DomainAges core.DomainAgeLookup
	// Redirects counts redirect hops; nil reports redirects as unchecked
	Redirects core.RedirectProber
	// LookupTimeout bounds each WHOIS lookup and redirect probe
	LookupTimeout time.Duration
}

// Analyzer scores URLs with a fixed battery of additive phishing checks
type Analyzer struct {
	lists         Lists
	trust         *whitelist.Checker
	ages          core.DomainAgeLookup
	redirects     core.RedirectProber
	lookupTimeout time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewAnalyzer creates a new URL risk analyzer
func NewAnalyzer(opts Options, logger *zap.Logger) *Analyzer {
	lists := DefaultLists().Override(opts.Lists)
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = defaultLookupWait
	}
	return &Analyzer{
		lists:         lists,
		trust:         whitelist.NewChecker(lists.TrustedDomains, logger),
		ages:          opts.DomainAges,
		redirects:     opts.Redirects,
		lookupTimeout: opts.LookupTimeout,
		logger:        logger,
		now:           time.Now,
	}
}

// verdict accumulates check results
type verdict struct {
	*core.URLVerdict
}

func (v verdict) add(score int, indicator string) {
	v.Score += score
	v.Indicators = append(v.Indicators, indicator)
}

// Analyze scores one URL. It never fails: a URL without a recoverable host
// comes back with Error set and only the string checks applied.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) *core.URLVerdict {
	v := verdict{&core.URLVerdict{
		URL:        rawURL,
		Indicators: []string{},
		Details:    map[string]any{},
	}}
	defer func() {
		v.Score = min(v.Score, maxScore)
		v.IsSuspicious = v.Score >= core.SuspiciousScore
		v.Level = core.ScoreLevel(v.Score)
		metrics.RecordURLCheck(string(v.Level))
	}()

	scheme, host, hostname, ok := splitURL(rawURL)
	lower := strings.ToLower(rawURL)
	if !ok {
		a.checkLength(v, rawURL)
		a.checkPatterns(v, rawURL, lower)
		v.Error = "no host in URL"
		a.logger.Debug("Failed to find URL host", zap.String("url", rawURL))
		return v.URLVerdict
	}

	if _, trusted := a.trust.IsTrusted(host); trusted {
		v.Details[DetailTrusted] = true
		return v.URLVerdict
	}

	a.checkLength(v, rawURL)
	a.checkTLD(v, host)
	a.checkIPHost(v, host)
	a.checkPatterns(v, rawURL, lower)
	a.checkDomainAge(ctx, v, hostname)
	a.checkHTTPS(v, scheme)
	a.checkRedirects(ctx, v, rawURL)
	a.checkBrand(v, host)

	return v.URLVerdict
}

// AnalyzeAll scores each URL in order
func (a *Analyzer) AnalyzeAll(ctx context.Context, urls []string) []*core.URLVerdict {
	verdicts := make([]*core.URLVerdict, len(urls))
	for i, u := range urls {
		verdicts[i] = a.Analyze(ctx, u)
	}
	return verdicts
}

func (a *Analyzer) checkLength(v verdict, rawURL string) {
	if utf8.RuneCountInString(rawURL) > longURLLength {
		v.add(longURLScore, "Unusually long URL")
	}
}

func (a *Analyzer) checkTLD(v verdict, host string) {
	for _, tld := range a.lists.SuspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			v.add(suspiciousTLDScore, "Suspicious TLD: "+tld)
			return
		}
	}
}

func (a *Analyzer) checkIPHost(v verdict, host string) {
	if ipHost.MatchString(host) {
		v.add(ipHostScore, "IP address instead of domain name")
	}
}

func (a *Analyzer) checkPatterns(v verdict, rawURL, lower string) {
	if strings.Count(lower, ".") > maxDots {
		v.add(manyDotsScore, "Multiple subdomains")
	}
	if strings.Contains(rawURL, "@") {
		v.add(atSignScore, "Contains @ symbol")
	}
	if strings.Count(lower, "//") > 1 {
		v.add(doubleSlashScore, "Multiple // in URL")
	}
	for _, keyword := range a.lists.Keywords {
		if strings.Contains(lower, keyword) {
			v.add(keywordScore, "Suspicious keyword: "+keyword)
			return
		}
	}
}

func (a *Analyzer) checkDomainAge(ctx context.Context, v verdict, host string) {
	if a.ages == nil || host == "" {
		v.Details[DetailDomainAge] = unableToRetrieve
		return
	}

	ctx, cancel := context.WithTimeout(ctx, a.lookupTimeout)
	defer cancel()

	start := time.Now()
	created, err := a.ages.RegistrationDate(ctx, host)
	metrics.RecordLookup("whois", err, time.Since(start))
	if err != nil {
		a.logger.Debug("Domain age lookup failed", zap.String("host", host), zap.Error(err))
		v.Details[DetailDomainAge] = unableToRetrieve
		return
	}

	age := a.now().Sub(created)
	switch {
	case age < newDomainAge:
		v.add(newDomainScore, "Domain less than 30 days old")
	case age < youngDomainAge:
		v.add(youngDomainScore, "Domain less than 6 months old")
	}
	v.Details[DetailDomainAgeDays] = int(age.Hours() / 24)
}

func (a *Analyzer) checkHTTPS(v verdict, scheme string) {
	https := strings.EqualFold(scheme, "https")
	if !https {
		v.add(plainHTTPScore, "Not using HTTPS")
	}
	v.Details[DetailUsesHTTPS] = https
}

func (a *Analyzer) checkRedirects(ctx context.Context, v verdict, rawURL string) {
	if a.redirects == nil {
		v.Details[DetailRedirects] = unableToCheck
		return
	}

	ctx, cancel := context.WithTimeout(ctx, a.lookupTimeout)
	defer cancel()

	start := time.Now()
	hops, err := a.redirects.CountRedirects(ctx, rawURL)
	metrics.RecordLookup("redirect", err, time.Since(start))
	if err != nil {
		a.logger.Debug("Redirect probe failed", zap.String("url", rawURL), zap.Error(err))
		v.Details[DetailRedirects] = unableToCheck
		return
	}

	if hops > maxRedirects {
		v.add(redirectScore, fmt.Sprintf("Multiple redirects: %d", hops))
	}
	v.Details[DetailRedirectCount] = hops
}

func (a *Analyzer) checkBrand(v verdict, host string) {
	for _, brand := range a.lists.Brands {
		if strings.Contains(host, brand) && !strings.HasSuffix(host, brand+".com") {
			v.add(brandScore, fmt.Sprintf("Possible %s impersonation", brand))
			return
		}
	}
}

// splitURL returns the lower-cased scheme, host with port, and hostname of
// rawURL. Input that url.Parse rejects, such as a bad escape in the path, is
// split by hand at "://" and the first of "/?#"; ok is false when that
// split finds no host either.
func splitURL(rawURL string) (scheme, host, hostname string, ok bool) {
	if u, err := url.Parse(rawURL); err == nil {
		host = strings.ToLower(u.Host)
		return strings.ToLower(u.Scheme), host, strings.ToLower(u.Hostname()), true
	}

	rest := rawURL
	if i := strings.Index(rest, "://"); i >= 0 {
		scheme, rest = strings.ToLower(rest[:i]), rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest = rest[i+1:]
	}
	host = strings.ToLower(rest)
	hostname = host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = strings.Trim(h, "[]")
	}
	return scheme, host, hostname, host != ""
}
