// Package decision combines an identity, a price truth, and user-supplied
// costs into a single verdict with a full cost breakdown and a gate-by-gate
// trace. Everything here is pure; the numbers the gates run on are injected
// as an immutable Constants value at construction.
package decision

import (
	"github.com/rotisserie/eris"

	"github.com/fliplens/appraise-cli/internal/model"
)

// Constants is the full set of tunables the engine evaluates against. Built
// once, validated, and never mutated.
type Constants struct {
	// FeeRates is the platform fee as a fraction of the expected sell
	// price, per category. Unknown categories use DefaultFeeRate.
	FeeRates       map[model.Category]float64
	DefaultFeeRate float64

	// OutboundShipping is the default cost to ship a sold item, per
	// category, used when the caller supplies no override.
	OutboundShipping map[model.Category]float64

	// Overhead is the fixed per-flip cost (supplies, listing time).
	Overhead float64

	// MarginThreshold is the minimum acceptable profit margin.
	MarginThreshold float64

	// TargetProfitFloor is the minimum dollar profit a max-buy-price
	// calculation budgets for.
	TargetProfitFloor float64

	// SafetyReduction scales the computed maximum buy price down.
	SafetyReduction float64
}

// DefaultConstants returns the production gate numbers.
func DefaultConstants() Constants {
	return Constants{
		FeeRates: map[model.Category]float64{
			model.CategoryCard:  0.13,
			model.CategoryWatch: 0.13,
		},
		DefaultFeeRate: 0.13,
		OutboundShipping: map[model.Category]float64{
			model.CategoryCard:  0,
			model.CategoryWatch: 0,
		},
		Overhead:          0,
		MarginThreshold:   0.25,
		TargetProfitFloor: 10,
		SafetyReduction:   0.8,
	}
}

// Validate rejects constants that would make a gate meaningless.
func (c Constants) Validate() error {
	if c.DefaultFeeRate < 0 || c.DefaultFeeRate >= 1 {
		return eris.New("decision: default fee rate must be in [0, 1)")
	}
	for cat, rate := range c.FeeRates {
		if rate < 0 || rate >= 1 {
			return eris.Errorf("decision: fee rate for %s must be in [0, 1)", cat)
		}
	}
	for cat, ship := range c.OutboundShipping {
		if ship < 0 {
			return eris.Errorf("decision: outbound shipping for %s must be >= 0", cat)
		}
	}
	if c.Overhead < 0 {
		return eris.New("decision: overhead must be >= 0")
	}
	if c.MarginThreshold <= 0 || c.MarginThreshold >= 1 {
		return eris.New("decision: margin threshold must be in (0, 1)")
	}
	if c.TargetProfitFloor < 0 {
		return eris.New("decision: target profit floor must be >= 0")
	}
	if c.SafetyReduction <= 0 || c.SafetyReduction > 1 {
		return eris.New("decision: safety reduction must be in (0, 1]")
	}
	return nil
}

func (c Constants) feeRate(cat model.Category) float64 {
	if rate, ok := c.FeeRates[cat]; ok {
		return rate
	}
	return c.DefaultFeeRate
}

func (c Constants) outboundShipping(cat model.Category) float64 {
	return c.OutboundShipping[cat]
}
