package decision

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/fliplens/appraise-cli/internal/model"
)

// Engine evaluates flip decisions against a fixed set of constants.
type Engine struct {
	constants Constants
}

// NewEngine validates the constants and returns an engine bound to them.
func NewEngine(c Constants) (*Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Engine{constants: c}, nil
}

// Costs is the user-supplied side of a decision. Overrides are pointers so
// zero is distinguishable from unset.
type Costs struct {
	BuyPrice            float64
	ShippingIn          float64
	FeeRateOverride     *float64
	ShippingOutOverride *float64
}

// Evaluate runs the ordered gates and returns a complete decision. Gates
// short-circuit: the first failing gate fixes the verdict, and when no
// pricing is possible the monetary fields stay nil rather than carrying
// misleading zeros.
func (e *Engine) Evaluate(identity model.Identity, price model.PriceTruth, costs Costs) model.Decision {
	d := model.Decision{Confidence: confidenceLabel(identity, price)}
	gate := func(name string, passed bool, detail string) {
		d.GateTrace = append(d.GateTrace, model.GateResult{Gate: name, Passed: passed, Detail: detail})
	}

	if identity.Blocked() {
		gate("identity", false, fmt.Sprintf("identity blocked: %s", identity.BlockReason))
		d.Verdict = model.VerdictNotEnoughInfo
		d.Label = "not enough info"
		d.Reason = blockedReason(identity)
		return d
	}
	gate("identity", true, string(identity.Tier))

	if !price.Usable() {
		gate("pricing", false, "no pricing data")
		d.Verdict = model.VerdictNotEnoughInfo
		d.Label = "not enough info"
		d.Reason = "no pricing data for this item"
		return d
	}
	gate("pricing", true, fmt.Sprintf("anchor %.2f from %s", *price.Anchor, price.Source))

	sell := *price.Anchor
	maxBuy := e.maxBuyPrice(identity.Category, sell, costs)
	d.ExpectedSell = ptr(round2(sell))
	d.MaxBuyPrice = ptr(maxBuy)

	if price.IsConservativeEstimate {
		d.Warnings = append(d.Warnings, "price anchored to a conservative estimate; the true value may be higher")
	}

	if costs.BuyPrice <= 0 {
		gate("buy price", false, fmt.Sprintf("buy price %.2f must be positive", costs.BuyPrice))
		d.Verdict = model.VerdictNotEnoughInfo
		d.Label = "not enough info"
		d.Reason = "buy price must be greater than zero"
		return d
	}
	gate("buy price", true, fmt.Sprintf("%.2f", costs.BuyPrice))

	// Gates compare at full precision; rounding happens only on the fields
	// the decision carries out.
	breakdown := e.breakdown(identity.Category, sell, costs)
	profit := sell - breakdown.Total
	margin := 0.0
	if sell > 0 {
		margin = profit / sell
	}
	roi := 0.0
	if breakdown.Total > 0 {
		roi = profit / breakdown.Total
	}
	breakdown.PlatformFees = round2(breakdown.PlatformFees)
	breakdown.Total = round2(breakdown.Total)
	d.Costs = &breakdown
	d.Profit = ptr(round2(profit))
	d.MarginPct = ptr(round1(margin * 100))
	d.ROIPct = ptr(round1(roi * 100))

	if profit <= 0 {
		gate("profit", false, fmt.Sprintf("profit %.2f", profit))
		d.Verdict = model.VerdictSkip
		d.Label = "skip"
		d.Reason = fmt.Sprintf("no profit at $%.2f: expected sell $%.2f against $%.2f all-in", costs.BuyPrice, sell, breakdown.Total)
		return d
	}
	gate("profit", true, fmt.Sprintf("%.2f", profit))

	if margin < e.constants.MarginThreshold {
		gate("margin", false, fmt.Sprintf("margin %.1f%% below %.0f%%", margin*100, e.constants.MarginThreshold*100))
		d.Verdict = model.VerdictSkip
		d.Label = "skip"
		d.Reason = fmt.Sprintf("margin %.1f%% is below the %.0f%% floor; max buy is $%.2f", margin*100, e.constants.MarginThreshold*100, maxBuy)
		return d
	}
	gate("margin", true, fmt.Sprintf("%.1f%%", margin*100))

	d.Verdict = model.VerdictFlip
	if identity.Tier == model.TierEstimate || price.Confidence == model.PriceEstimate {
		d.Label = "likely flip"
	} else {
		d.Label = "flip"
	}
	d.Reason = fmt.Sprintf("$%.2f profit at %.1f%% margin", profit, margin*100)

	zap.L().Debug("decision evaluated",
		zap.String("verdict", string(d.Verdict)),
		zap.Float64("profit", profit),
		zap.Float64("margin_pct", margin*100))
	return d
}

// MaxBuyPrice answers "what should I pay" without a committed buy price.
// Sell-side costs use category defaults unless overridden.
func (e *Engine) MaxBuyPrice(category model.Category, sell float64, costs Costs) float64 {
	return e.maxBuyPrice(category, sell, costs)
}

func (e *Engine) maxBuyPrice(category model.Category, sell float64, costs Costs) float64 {
	target := math.Max(e.constants.TargetProfitFloor, e.constants.MarginThreshold*sell)
	max := sell - e.fees(category, sell, costs) - costs.ShippingIn - e.shippingOut(category, costs) - e.constants.Overhead - target
	max *= e.constants.SafetyReduction
	if max < 0 {
		max = 0
	}
	return round2(max)
}

func (e *Engine) breakdown(category model.Category, sell float64, costs Costs) model.CostBreakdown {
	b := model.CostBreakdown{
		BuyPrice:     costs.BuyPrice,
		ShippingIn:   costs.ShippingIn,
		ShippingOut:  e.shippingOut(category, costs),
		PlatformFees: e.fees(category, sell, costs),
		Overhead:     e.constants.Overhead,
	}
	b.Total = b.BuyPrice + b.ShippingIn + b.ShippingOut + b.PlatformFees + b.Overhead
	return b
}

func (e *Engine) fees(category model.Category, sell float64, costs Costs) float64 {
	rate := e.constants.feeRate(category)
	if costs.FeeRateOverride != nil {
		rate = *costs.FeeRateOverride
	}
	return sell * rate
}

func (e *Engine) shippingOut(category model.Category, costs Costs) float64 {
	if costs.ShippingOutOverride != nil {
		return *costs.ShippingOutOverride
	}
	return e.constants.outboundShipping(category)
}

func blockedReason(identity model.Identity) string {
	switch identity.BlockReason {
	case model.BlockCardNumberRequired:
		return "card number required to price this item"
	case model.BlockModelSelectionRequired:
		return "model selection required to price this item"
	case model.BlockAmbiguousFamily:
		return "multiple catalog candidates; cannot price without disambiguation"
	case model.BlockNoCatalogMatch:
		return "no catalog match for this item"
	case model.BlockNoEvidence:
		return "no usable evidence extracted"
	default:
		return "identity could not be resolved"
	}
}

func confidenceLabel(identity model.Identity, price model.PriceTruth) string {
	if identity.Blocked() {
		return "blocked"
	}
	if identity.Tier == model.TierHigh && price.Confidence == model.PriceHigh {
		return "high"
	}
	return "estimate"
}

// Summarize renders the display block every surface shows unmodified.
func Summarize(identity model.Identity, price model.PriceTruth, d model.Decision) model.DisplaySummary {
	s := model.DisplaySummary{ConfidenceLabel: d.Confidence}
	switch d.Verdict {
	case model.VerdictFlip:
		s.Headline = fmt.Sprintf("%s — $%.2f profit", d.Label, *d.Profit)
		s.Subheadline = fmt.Sprintf("expected sell $%.2f, %.1f%% margin", *d.ExpectedSell, *d.MarginPct)
	case model.VerdictSkip:
		s.Headline = "skip"
		s.Subheadline = d.Reason
	default:
		s.Headline = "not enough info"
		s.Subheadline = d.Reason
	}
	return s
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }

func ptr(v float64) *float64 { return &v }
