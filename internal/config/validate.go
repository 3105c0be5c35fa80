package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the configuration required for the given mode is
// present. Modes: "appraise" (single scan and batch), "serve", "cache".
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	// Shared bounds
	check(c.Batch.MaxConcurrentScans >= 1 && c.Batch.MaxConcurrentScans <= 32,
		"batch.max_concurrent_scans must be between 1 and 32")
	check(c.Cache.TTLHours >= 0, "cache.ttl_hours must be >= 0")
	check(c.Pricing.ConservativeMultiplier > 0 && c.Pricing.ConservativeMultiplier <= 1,
		"pricing.conservative_multiplier must be in (0, 1]")
	check(c.Decision.MarginThreshold > 0 && c.Decision.MarginThreshold < 1,
		"decision.margin_threshold must be in (0, 1)")

	switch c.Store.Driver {
	case "sqlite":
		check(c.Store.Path != "", "store.path is required for sqlite")
	case "postgres":
		check(c.Store.DatabaseURL != "", "store.database_url is required for postgres")
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	switch mode {
	case "appraise":
		check(c.Vision.Key != "", "vision.key is required")
		check(c.Marketplace.Key != "", "marketplace.key is required")
	case "serve":
		check(c.Vision.Key != "", "vision.key is required")
		check(c.Marketplace.Key != "", "marketplace.key is required")
		check(c.Server.Port > 0, "server.port must be > 0")
	case "cache":
		// store checks above are enough
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
