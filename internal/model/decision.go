package model

// Verdict is the single actionable output of the decision engine.
type Verdict string

const (
	VerdictFlip          Verdict = "FLIP"
	VerdictSkip          Verdict = "SKIP"
	VerdictNotEnoughInfo Verdict = "NOT_ENOUGH_INFO"
)

// GateResult records one ordered decision-engine gate and its outcome.
type GateResult struct {
	Gate   string `json:"gate"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// CostBreakdown itemizes everything the buyer would spend.
type CostBreakdown struct {
	BuyPrice     float64 `json:"buy_price"`
	ShippingIn   float64 `json:"shipping_in"`
	ShippingOut  float64 `json:"shipping_out"`
	PlatformFees float64 `json:"platform_fees"`
	Overhead     float64 `json:"overhead"`
	Total        float64 `json:"total"`
}

// Decision is the engine's full answer for one buy-price input. Monetary
// fields are nil when the verdict is NOT_ENOUGH_INFO. Decisions are produced
// fresh for every input and never cached — costs are user-specific.
type Decision struct {
	Verdict    Verdict `json:"verdict"`
	Label      string  `json:"label"` // "flip", "likely flip", "skip", "not enough info"
	Reason     string  `json:"reason,omitempty"`
	Confidence string  `json:"confidence"` // display label, e.g. "high", "estimate", "blocked"

	ExpectedSell *float64       `json:"expected_sell,omitempty"`
	Costs        *CostBreakdown `json:"costs,omitempty"`
	Profit       *float64       `json:"profit,omitempty"`
	MarginPct    *float64       `json:"margin_pct,omitempty"`
	ROIPct       *float64       `json:"roi_pct,omitempty"`
	MaxBuyPrice  *float64       `json:"max_buy_price,omitempty"`

	GateTrace []GateResult `json:"gate_trace"`
	Warnings  []string     `json:"warnings,omitempty"`
}

// DisplaySummary is the short headline block every surface shows unmodified.
type DisplaySummary struct {
	Headline        string `json:"headline"`
	Subheadline     string `json:"subheadline"`
	ConfidenceLabel string `json:"confidence_label"`
}

// CardAnalysis is the canonical bundle returned for a card scan. Callers get
// either the complete bundle or a blocked bundle with a reason, never a
// partial result.
type CardAnalysis struct {
	ScanID     string         `json:"scan_id"`
	Identity   Identity       `json:"identity"`
	PriceTruth PriceTruth     `json:"price_truth"`
	Decision   Decision       `json:"decision"`
	Summary    DisplaySummary `json:"summary"`
	FromCache  bool           `json:"from_cache"`
}

// WatchAnalysis is the canonical bundle returned for a watch scan.
type WatchAnalysis struct {
	ScanID     string         `json:"scan_id"`
	Identity   Identity       `json:"identity"`
	PriceTruth PriceTruth     `json:"price_truth"`
	Decision   Decision       `json:"decision"`
	Summary    DisplaySummary `json:"summary"`
	FromCache  bool           `json:"from_cache"`
}
