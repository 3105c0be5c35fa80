// Package pricetruth turns filtered comp statistics plus an identity's
// confidence into a stable, cacheable pricing snapshot. Guardrails here are
// one-way: a ceiling or clamp can only ever lower a price and its confidence,
// never raise them.
package pricetruth

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fliplens/appraise-cli/internal/compstats"
	"github.com/fliplens/appraise-cli/internal/model"
)

// Config carries every tunable the builder uses. Constructed once and
// treated as immutable afterwards.
type Config struct {
	// Ceilings caps the anchor per category. Categories absent from the map
	// fall back to DefaultCeilingMultiple times the trimmed median.
	Ceilings map[model.Category]float64

	DefaultCeilingMultiple float64 // 2.5
	SanityMultiple         float64 // 3.0: anchor may not exceed 3x buy or 3x median
	ConservativeMultiplier float64 // 0.85 discount for unconfirmed variants

	HighMinSamples int           // comps observed before HIGH is possible
	HighMaxCV      float64       // 0.30
	HighMaxSpread  float64       // 2.2
	SnapshotTTL    time.Duration // validity window for cached snapshots
}

// DefaultConfig returns the production builder configuration.
func DefaultConfig() Config {
	return Config{
		Ceilings: map[model.Category]float64{
			model.CategoryCard:  5_000,
			model.CategoryWatch: 25_000,
		},
		DefaultCeilingMultiple: 2.5,
		SanityMultiple:         3.0,
		ConservativeMultiplier: 0.85,
		HighMinSamples:         5,
		HighMaxCV:              0.30,
		HighMaxSpread:          2.2,
		SnapshotTTL:            6 * time.Hour,
	}
}

// Validate rejects configurations that would invert a guardrail.
func (c Config) Validate() error {
	if c.DefaultCeilingMultiple <= 0 {
		return eris.New("pricetruth: default ceiling multiple must be > 0")
	}
	if c.SanityMultiple <= 1 {
		return eris.New("pricetruth: sanity multiple must be > 1")
	}
	if c.ConservativeMultiplier <= 0 || c.ConservativeMultiplier > 1 {
		return eris.New("pricetruth: conservative multiplier must be in (0, 1]")
	}
	if c.HighMinSamples < 1 {
		return eris.New("pricetruth: high-tier minimum samples must be >= 1")
	}
	for cat, ceil := range c.Ceilings {
		if ceil <= 0 {
			return eris.Errorf("pricetruth: ceiling for %s must be > 0", cat)
		}
	}
	return nil
}

// Builder assembles price truth snapshots.
type Builder struct {
	cfg Config
	now func() time.Time
}

// NewBuilder validates the config and returns a builder.
func NewBuilder(cfg Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, now: time.Now}, nil
}

// WithNow fixes the builder clock, for tests.
func (b *Builder) WithNow(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Input carries the identity-side context a snapshot is built against.
type Input struct {
	Category         model.Category
	IdentityTier     model.ConfidenceTier
	VariantConfirmed bool
	BuyPrice         *float64
	Source           model.PriceSource
}

// FromComps builds a snapshot from processed comp statistics.
func (b *Builder) FromComps(stats compstats.Result, in Input) model.PriceTruth {
	pt := model.PriceTruth{
		Source:     in.Source,
		CompsUsed:  len(stats.FinalComps),
		SampleSize: len(stats.Raw),
		BuiltAt:    b.now(),
		TTL:        b.cfg.SnapshotTTL,
	}

	if stats.Median <= 0 || len(stats.FinalComps) == 0 {
		pt.Source = model.PriceSourceNone
		pt.Confidence = model.PriceNone
		pt.Notes = append(pt.Notes, "no usable comps after filtering")
		return pt
	}

	anchor := stats.Median
	pt.Low = stats.Low
	pt.High = stats.High

	anchor, pt.CeilingApplied = b.applyCeiling(anchor, stats.Median, in.Category)
	anchor, pt.ClampApplied = b.applySanityClamp(anchor, stats.Median, in.BuyPrice)

	pt.Confidence = b.assessConfidence(stats, in, pt.CeilingApplied || pt.ClampApplied)

	if !in.VariantConfirmed {
		anchor *= b.cfg.ConservativeMultiplier
		pt.IsConservativeEstimate = true
		pt.Notes = append(pt.Notes, fmt.Sprintf("variant unconfirmed; anchor discounted to %.0f%%", b.cfg.ConservativeMultiplier*100))
	}

	pt.Anchor = &anchor
	return pt
}

// FromMedian builds a snapshot from a directly supplied median. Legacy path:
// no comp distribution means confidence can never exceed ESTIMATE.
func (b *Builder) FromMedian(median float64, in Input) model.PriceTruth {
	pt := model.PriceTruth{
		Source:  model.PriceSourceDirectMedian,
		BuiltAt: b.now(),
		TTL:     b.cfg.SnapshotTTL,
	}
	if median <= 0 {
		pt.Source = model.PriceSourceNone
		pt.Confidence = model.PriceNone
		pt.Notes = append(pt.Notes, "no usable median supplied")
		return pt
	}

	anchor := median
	anchor, pt.CeilingApplied = b.applyCeiling(anchor, median, in.Category)
	anchor, pt.ClampApplied = b.applySanityClamp(anchor, median, in.BuyPrice)
	pt.Confidence = model.PriceEstimate

	if !in.VariantConfirmed {
		anchor *= b.cfg.ConservativeMultiplier
		pt.IsConservativeEstimate = true
	}
	pt.Anchor = &anchor
	return pt
}

// applyCeiling caps the anchor at the category ceiling, or at
// DefaultCeilingMultiple times the median for unknown categories.
func (b *Builder) applyCeiling(anchor, median float64, cat model.Category) (float64, bool) {
	ceiling, ok := b.cfg.Ceilings[cat]
	if !ok {
		ceiling = b.cfg.DefaultCeilingMultiple * median
	}
	if anchor > ceiling {
		zap.L().Debug("price ceiling applied",
			zap.String("category", string(cat)),
			zap.Float64("anchor", anchor),
			zap.Float64("ceiling", ceiling),
		)
		return ceiling, true
	}
	return anchor, false
}

// applySanityClamp bounds the anchor to the tighter of 3x buy price (when
// supplied) and 3x trimmed median.
func (b *Builder) applySanityClamp(anchor, median float64, buy *float64) (float64, bool) {
	bound := b.cfg.SanityMultiple * median
	if buy != nil && *buy > 0 {
		if bb := b.cfg.SanityMultiple * *buy; bb < bound {
			bound = bb
		}
	}
	if anchor > bound {
		return bound, true
	}
	return anchor, false
}

// assessConfidence grades the snapshot. A guardrail firing unconditionally
// costs at least one tier: confidence is never HIGH when a ceiling or clamp
// touched the price.
func (b *Builder) assessConfidence(stats compstats.Result, in Input, guardrail bool) model.PriceConfidence {
	if guardrail {
		return model.PriceEstimate
	}
	if in.Source == model.PriceSourceSoldComps &&
		len(stats.Raw) >= b.cfg.HighMinSamples &&
		stats.CV <= b.cfg.HighMaxCV &&
		stats.SpreadRatio <= b.cfg.HighMaxSpread {
		return model.PriceHigh
	}
	return model.PriceEstimate
}
