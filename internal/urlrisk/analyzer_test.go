package urlrisk

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeAges struct {
	created time.Time
	err     error
	hosts   []string
}

func (f *fakeAges) RegistrationDate(ctx context.Context, host string) (time.Time, error) {
	f.hosts = append(f.hosts, host)
	return f.created, f.err
}

type fakeRedirects struct {
	hops int
	err  error
}

func (f *fakeRedirects) CountRedirects(ctx context.Context, rawURL string) (int, error) {
	return f.hops, f.err
}

func newTestAnalyzer(opts Options) *Analyzer {
	a := NewAnalyzer(opts, zap.NewNop())
	a.now = func() time.Time { return fixedNow }
	return a
}

func TestTrustedHostShortCircuits(t *testing.T) {
	ages := &fakeAges{created: fixedNow}
	a := newTestAnalyzer(Options{DomainAges: ages, Redirects: &fakeRedirects{hops: 9}})

	v := a.Analyze(context.Background(), "http://google.com.evil-login.click/verify-account")

	if v.Score != 0 || v.IsSuspicious || v.Level != core.RiskLow {
		t.Errorf("verdict = %+v, want score 0 LOW", v)
	}
	if len(v.Indicators) != 0 {
		t.Errorf("Indicators = %v", v.Indicators)
	}
	if !reflect.DeepEqual(v.Details, map[string]any{DetailTrusted: true}) {
		t.Errorf("Details = %v", v.Details)
	}
	if len(ages.hosts) != 0 {
		t.Error("trusted host should not be looked up")
	}
}

func TestIPAddressHost(t *testing.T) {
	v := newTestAnalyzer(Options{}).Analyze(context.Background(), "http://192.168.1.1/update")

	if v.Score != 45 {
		t.Errorf("Score = %d, want 45 (ip + http + keyword)", v.Score)
	}
	if v.Level != core.RiskMedium || v.IsSuspicious {
		t.Errorf("Level = %s suspicious = %v", v.Level, v.IsSuspicious)
	}
	want := []string{"IP address instead of domain name", "Suspicious keyword: update", "Not using HTTPS"}
	if !reflect.DeepEqual(v.Indicators, want) {
		t.Errorf("Indicators = %v, want %v", v.Indicators, want)
	}
	if v.Details[DetailDomainAge] != unableToRetrieve || v.Details[DetailRedirects] != unableToCheck {
		t.Errorf("Details = %v", v.Details)
	}
	if v.Details[DetailUsesHTTPS] != false {
		t.Errorf("uses_https = %v", v.Details[DetailUsesHTTPS])
	}
}

func TestBrandImpersonation(t *testing.T) {
	a := newTestAnalyzer(Options{
		DomainAges: &fakeAges{created: fixedNow.Add(-400 * 24 * time.Hour)},
		Redirects:  &fakeRedirects{hops: 1},
	})

	v := a.Analyze(context.Background(), "http://paypal-verify-account.xyz/login")

	// tld 20 + keyword 5 + http 15 + brand 30
	if v.Score != 70 || !v.IsSuspicious || v.Level != core.RiskHigh {
		t.Errorf("verdict = %d %v %s, want 70 true HIGH", v.Score, v.IsSuspicious, v.Level)
	}
	want := []string{
		"Suspicious TLD: .xyz",
		"Suspicious keyword: verify",
		"Not using HTTPS",
		"Possible paypal impersonation",
	}
	if !reflect.DeepEqual(v.Indicators, want) {
		t.Errorf("Indicators = %v, want %v", v.Indicators, want)
	}
	if v.Details[DetailDomainAgeDays] != 400 || v.Details[DetailRedirectCount] != 1 {
		t.Errorf("Details = %v", v.Details)
	}
}

func TestBrandOnOwnDomainIsNotImpersonation(t *testing.T) {
	a := newTestAnalyzer(Options{Lists: Lists{TrustedDomains: []string{"example.org"}}})
	v := a.Analyze(context.Background(), "https://shop.amazon.com/deals")
	for _, ind := range v.Indicators {
		if strings.Contains(ind, "impersonation") {
			t.Errorf("unexpected indicator %q", ind)
		}
	}
}

func TestDomainAgeBuckets(t *testing.T) {
	tests := []struct {
		age       time.Duration
		score     int
		indicator string
	}{
		{10 * 24 * time.Hour, 25, "Domain less than 30 days old"},
		{90 * 24 * time.Hour, 10, "Domain less than 6 months old"},
		{365 * 24 * time.Hour, 0, ""},
	}
	for _, tt := range tests {
		a := newTestAnalyzer(Options{
			DomainAges: &fakeAges{created: fixedNow.Add(-tt.age)},
			Redirects:  &fakeRedirects{},
		})
		v := a.Analyze(context.Background(), "https://example.net/")
		if v.Score != tt.score {
			t.Errorf("age %v: Score = %d, want %d", tt.age, v.Score, tt.score)
		}
		if tt.indicator != "" && (len(v.Indicators) != 1 || v.Indicators[0] != tt.indicator) {
			t.Errorf("age %v: Indicators = %v", tt.age, v.Indicators)
		}
	}
}

func TestLookupFailuresDegradeSoftly(t *testing.T) {
	a := newTestAnalyzer(Options{
		DomainAges: &fakeAges{err: errors.New("whois: connection refused")},
		Redirects:  &fakeRedirects{err: errors.New("dial tcp: timeout")},
	})

	v := a.Analyze(context.Background(), "https://example.net/")

	if v.Score != 0 || v.Error != "" {
		t.Errorf("verdict = %+v", v)
	}
	if v.Details[DetailDomainAge] != unableToRetrieve {
		t.Errorf("domain_age = %v", v.Details[DetailDomainAge])
	}
	if v.Details[DetailRedirects] != unableToCheck {
		t.Errorf("redirects = %v", v.Details[DetailRedirects])
	}
	if _, ok := v.Details[DetailRedirectCount]; ok {
		t.Error("redirect_count should be absent after a failed probe")
	}
}

func TestScoreIsCapped(t *testing.T) {
	a := newTestAnalyzer(Options{
		DomainAges: &fakeAges{created: fixedNow.Add(-24 * time.Hour)},
		Redirects:  &fakeRedirects{hops: 5},
	})

	v := a.Analyze(context.Background(),
		"http://user@10.0.0.1.paypal.secure.login.xyz//verify/account/update/confirm?next=http://a.b.c")

	if v.Score != 100 {
		t.Errorf("Score = %d, want 100", v.Score)
	}
	if v.Level != core.RiskCritical || !v.IsSuspicious {
		t.Errorf("Level = %s suspicious = %v", v.Level, v.IsSuspicious)
	}
	if len(v.Indicators) < 8 {
		t.Errorf("Indicators = %v", v.Indicators)
	}
}

func TestLongURLAddsScore(t *testing.T) {
	a := newTestAnalyzer(Options{})
	short := "https://example.net/a"
	long := short + strings.Repeat("a", 80)

	s, l := a.Analyze(context.Background(), short), a.Analyze(context.Background(), long)
	if l.Score != s.Score+longURLScore {
		t.Errorf("long = %d, short = %d", l.Score, s.Score)
	}
}

func TestMalformedEscapeStillScored(t *testing.T) {
	a := newTestAnalyzer(Options{
		DomainAges: &fakeAges{created: fixedNow.Add(-400 * 24 * time.Hour)},
		Redirects:  &fakeRedirects{hops: 1},
	})

	clean := a.Analyze(context.Background(), "http://paypal-verify-account.xyz/login")
	broken := a.Analyze(context.Background(), "http://paypal-verify-account.xyz/login/%zz")

	if broken.Error != "" {
		t.Errorf("Error = %q, want none when the host is recoverable", broken.Error)
	}
	if broken.Score < clean.Score || !broken.IsSuspicious {
		t.Errorf("broken = %d %v, clean = %d", broken.Score, broken.IsSuspicious, clean.Score)
	}
	if !reflect.DeepEqual(broken.Indicators, clean.Indicators) {
		t.Errorf("Indicators = %v, want %v", broken.Indicators, clean.Indicators)
	}
	if broken.Details[DetailDomainAgeDays] != 400 {
		t.Errorf("Details = %v", broken.Details)
	}
}

func TestSplitURL(t *testing.T) {
	tests := []struct {
		raw                    string
		scheme, host, hostname string
		ok                     bool
	}{
		{"https://Example.COM:8443/a", "https", "example.com:8443", "example.com", true},
		{"http://user@evil.example:80/%zz", "http", "evil.example:80", "evil.example", true},
		{"http://10.0.0.1/%zz?q=1", "http", "10.0.0.1", "10.0.0.1", true},
		{"http:///%zz", "http", "", "", false},
	}
	for _, tt := range tests {
		scheme, host, hostname, ok := splitURL(tt.raw)
		if scheme != tt.scheme || host != tt.host || hostname != tt.hostname || ok != tt.ok {
			t.Errorf("splitURL(%q) = %q %q %q %v", tt.raw, scheme, host, hostname, ok)
		}
	}
}

func TestUnrecoverableHostIsReported(t *testing.T) {
	v := newTestAnalyzer(Options{}).Analyze(context.Background(), "http:///verify/%zz")

	if v.Error == "" {
		t.Fatal("expected an error for a URL without a host")
	}
	if v.Score != keywordScore || v.IsSuspicious {
		t.Errorf("verdict = %+v, want only the keyword check", v)
	}
}

func TestLongURLCountsCharacters(t *testing.T) {
	a := newTestAnalyzer(Options{})
	base := "https://example.net/"
	// 75 characters but well over 75 bytes
	cyrillic := base + strings.Repeat("ж", longURLLength-len(base))

	if v := a.Analyze(context.Background(), cyrillic); v.Score != 0 {
		t.Errorf("Score = %d, want 0 at %d characters", v.Score, longURLLength)
	}
	if v := a.Analyze(context.Background(), cyrillic+"ж"); v.Score != longURLScore {
		t.Errorf("Score = %d, want %d past the limit", v.Score, longURLScore)
	}
}

func TestAnalyzeAll(t *testing.T) {
	urls := []string{"https://github.com/x", "http://192.168.1.1/update"}
	verdicts := newTestAnalyzer(Options{}).AnalyzeAll(context.Background(), urls)
	if len(verdicts) != 2 || verdicts[0].URL != urls[0] || verdicts[1].Score != 45 {
		t.Errorf("AnalyzeAll = %+v", verdicts)
	}
}

func TestListsOverride(t *testing.T) {
	l := DefaultLists().Override(Lists{Brands: []string{"acme"}})
	if !reflect.DeepEqual(l.Brands, []string{"acme"}) {
		t.Errorf("Brands = %v", l.Brands)
	}
	if len(l.SuspiciousTLDs) != 9 || len(l.TrustedDomains) != 10 {
		t.Error("unset lists should keep their defaults")
	}
}
