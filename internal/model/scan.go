package model

import "time"

// ScanRecord is one completed appraisal kept for history. Unlike price
// snapshots these are never expired; they are the audit trail of what the
// system told the user.
type ScanRecord struct {
	ID          string    `json:"id"`
	Category    Category  `json:"category"`
	Fingerprint string    `json:"fingerprint"`
	Condition   string    `json:"condition"`
	ItemLabel   string    `json:"item_label"`
	Verdict     Verdict   `json:"verdict"`
	BuyPrice    float64   `json:"buy_price"`
	Profit      *float64  `json:"profit,omitempty"`
	FromCache   bool      `json:"from_cache"`
	CreatedAt   time.Time `json:"created_at"`
}
