package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker reports whether a URL host belongs to a trusted domain
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new trusted domain checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	// Normalize domains (lowercase)
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		if d := strings.ToLower(strings.TrimSpace(domain)); d != "" {
			normalized = append(normalized, d)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Debug("Initialized trusted domain checker", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsTrusted reports whether the host contains any trusted domain.
//
// Matching is by substring, so google.com.evil.example is trusted as well.
func (c *Checker) IsTrusted(host string) (string, bool) {
	host = strings.ToLower(host)
	for _, trusted := range c.domains {
		if strings.Contains(host, trusted) {
			if c.logger != nil {
				c.logger.Debug("Host is trusted",
					zap.String("host", host),
					zap.String("domain", trusted))
			}
			return trusted, true
		}
	}
	return "", false
}
