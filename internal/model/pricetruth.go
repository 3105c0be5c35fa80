package model

import "time"

// PriceSource identifies where a price anchor came from.
type PriceSource string

const (
	PriceSourceSoldComps      PriceSource = "sold_comps"
	PriceSourceActiveListings PriceSource = "active_listings"
	PriceSourceDirectMedian   PriceSource = "direct_median"
	PriceSourceNone           PriceSource = "none"
)

// PriceConfidence grades how trustworthy a price snapshot is.
type PriceConfidence string

const (
	PriceHigh     PriceConfidence = "HIGH"
	PriceEstimate PriceConfidence = "ESTIMATE"
	PriceNone     PriceConfidence = "NONE"
)

// Comp is a single comparable historical sale.
type Comp struct {
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	Condition string    `json:"condition,omitempty"`
	SoldAt    time.Time `json:"sold_at,omitempty"`
}

// PriceTruth is a stable, cacheable price snapshot derived from statistically
// filtered comparable sales. It is never partially updated; a refresh
// replaces the whole snapshot.
type PriceTruth struct {
	Source     PriceSource     `json:"source"`
	Anchor     *float64        `json:"anchor,omitempty"`
	Low        float64         `json:"low,omitempty"`
	High       float64         `json:"high,omitempty"`
	CompsUsed  int             `json:"comps_used"`
	SampleSize int             `json:"sample_size"` // comps observed before filtering
	Confidence PriceConfidence `json:"confidence"`

	CeilingApplied         bool `json:"ceiling_applied"`
	ClampApplied           bool `json:"clamp_applied"`
	IsConservativeEstimate bool `json:"is_conservative_estimate"`

	Notes   []string      `json:"notes,omitempty"`
	BuiltAt time.Time     `json:"built_at"`
	TTL     time.Duration `json:"ttl"`
}

// Usable reports whether the snapshot carries a positive anchor price.
func (p PriceTruth) Usable() bool {
	return p.Anchor != nil && *p.Anchor > 0
}

// Expired reports whether the snapshot's validity window has passed.
func (p PriceTruth) Expired(now time.Time) bool {
	if p.TTL <= 0 {
		return false
	}
	return now.After(p.BuiltAt.Add(p.TTL))
}
