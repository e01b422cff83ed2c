package httpprobe

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const (
	defaultMaxRedirects = 10
	drainLimit          = 64 << 10
)

// Prober follows a URL with GET and counts the redirect hops
type Prober struct {
	client       *http.Client
	maxRedirects int
	logger       *zap.Logger
}

// NewProber creates a new redirect prober. A nil client uses http.DefaultTransport.
func NewProber(client *http.Client, maxRedirects int, logger *zap.Logger) *Prober {
	if client == nil {
		client = &http.Client{}
	}
	if maxRedirects <= 0 {
		maxRedirects = defaultMaxRedirects
	}
	return &Prober{
		client:       client,
		maxRedirects: maxRedirects,
		logger:       logger,
	}
}

// CountRedirects returns the number of redirects followed before the final
// response. Following stops at the configured maximum.
func (p *Prober) CountRedirects(ctx context.Context, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "phishguard-link-check/1.0")

	hops := 0
	client := *p.client
	client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if len(via) > p.maxRedirects {
			return http.ErrUseLastResponse
		}
		hops = len(via)
		return nil
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to follow %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))

	p.logger.Debug("Probed redirects",
		zap.String("url", rawURL),
		zap.Int("hops", hops),
		zap.Int("status", resp.StatusCode))
	return hops, nil
}
