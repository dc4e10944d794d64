package allowlist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker filters threat feed candidates against domains that must never be blocklisted
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new allowlist checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 {
		logger.Info("Initialized allowlist checker", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsAllowed reports whether entry equals or is a subdomain of an allowlisted domain
func (c *Checker) IsAllowed(entry string) bool {
	if len(c.domains) == 0 {
		return false
	}

	entry = strings.ToLower(strings.TrimSpace(entry))
	for _, allowed := range c.domains {
		if entry == allowed || strings.HasSuffix(entry, "."+allowed) {
			return true
		}
	}
	return false
}

// Filter drops allowlisted entries, preserving order
func (c *Checker) Filter(entries []string) []string {
	if len(c.domains) == 0 {
		return entries
	}

	kept := make([]string, 0, len(entries))
	for _, entry := range entries {
		if c.IsAllowed(entry) {
			c.logger.Debug("Dropping allowlisted feed entry", zap.String("entry", entry))
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}
