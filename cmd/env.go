package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fliplens/appraise-cli/internal/analyzer"
	"github.com/fliplens/appraise-cli/internal/catalog"
	"github.com/fliplens/appraise-cli/internal/decision"
	"github.com/fliplens/appraise-cli/internal/model"
	"github.com/fliplens/appraise-cli/internal/pricetruth"
	"github.com/fliplens/appraise-cli/internal/resilience"
	"github.com/fliplens/appraise-cli/internal/store"
	"github.com/fliplens/appraise-cli/pkg/certregistry"
	"github.com/fliplens/appraise-cli/pkg/marketplace"
	"github.com/fliplens/appraise-cli/pkg/vision"
)

// appEnv bundles everything a command needs after wiring.
type appEnv struct {
	Store    store.Store
	Analyzer *analyzer.Analyzer
}

func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initAnalyzer wires the full appraisal stack. noCache additionally bypasses
// snapshot reads on top of whatever the config says.
func initAnalyzer(ctx context.Context, noCache bool) (*appEnv, error) {
	if err := cfg.Validate("appraise"); err != nil {
		return nil, err
	}

	reg, err := catalog.Load()
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	visionClient := vision.NewClient(cfg.Vision.Key, vision.WithModel(cfg.Vision.Model))
	market := marketplace.NewClient(cfg.Marketplace.Key,
		marketplace.WithBaseURL(cfg.Marketplace.BaseURL),
		marketplace.WithRateLimit(cfg.Marketplace.RequestsPerSec, cfg.Marketplace.Burst),
	)

	// Cert verification is optional; without a key the slab grade from the
	// scan still stands, just unverified.
	var certs certregistry.Client
	if cfg.CertRegistry.Key != "" {
		certs = certregistry.NewClient(cfg.CertRegistry.Key,
			certregistry.WithBaseURL(cfg.CertRegistry.BaseURL),
			certregistry.WithDailyQuota(cfg.CertRegistry.DailyQuota),
		)
	}

	breaker := resilience.NewBreaker("marketplace",
		cfg.Marketplace.BreakerThreshold,
		time.Duration(cfg.Marketplace.BreakerCoolSecs)*time.Second,
	)

	a, err := analyzer.New(analyzer.Deps{
		Catalog:       reg,
		Vision:        visionClient,
		Market:        market,
		Certs:         certs,
		Store:         st,
		Pricing:       pricingConfig(),
		Constants:     decisionConstants(),
		Retry:         retryPolicy(),
		Breaker:       breaker,
		CacheDisabled: cfg.Cache.Disabled || noCache,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	return &appEnv{Store: st, Analyzer: a}, nil
}

func pricingConfig() pricetruth.Config {
	pc := pricetruth.DefaultConfig()
	pc.Ceilings = map[model.Category]float64{
		model.CategoryCard:  cfg.Pricing.CardCeiling,
		model.CategoryWatch: cfg.Pricing.WatchCeiling,
	}
	pc.SanityMultiple = cfg.Pricing.SanityMultiple
	pc.ConservativeMultiplier = cfg.Pricing.ConservativeMultiplier
	pc.HighMinSamples = cfg.Pricing.HighMinSamples
	pc.HighMaxCV = cfg.Pricing.HighMaxCV
	pc.HighMaxSpread = cfg.Pricing.HighMaxSpread
	pc.SnapshotTTL = time.Duration(cfg.Cache.TTLHours) * time.Hour
	return pc
}

func decisionConstants() decision.Constants {
	c := decision.DefaultConstants()
	c.FeeRates = map[model.Category]float64{
		model.CategoryCard:  cfg.Decision.CardFeeRate,
		model.CategoryWatch: cfg.Decision.WatchFeeRate,
	}
	c.MarginThreshold = cfg.Decision.MarginThreshold
	c.TargetProfitFloor = cfg.Decision.TargetProfitFloor
	c.SafetyReduction = cfg.Decision.SafetyReduction
	c.Overhead = cfg.Decision.Overhead
	return c
}

func retryPolicy() resilience.Policy {
	return resilience.Policy{
		Attempts:   cfg.Retry.Attempts,
		BaseDelay:  time.Duration(cfg.Retry.BaseDelayMs) * time.Millisecond,
		MaxDelay:   time.Duration(cfg.Retry.MaxDelayMs) * time.Millisecond,
		Multiplier: cfg.Retry.Multiplier,
		Jitter:     cfg.Retry.JitterFraction,
	}
}
