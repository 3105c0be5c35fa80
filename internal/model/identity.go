package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Category is a supported collectible category.
type Category string

const (
	CategoryCard  Category = "card"
	CategoryWatch Category = "watch"
)

// Valid reports whether the category is one the system recognizes.
func (c Category) Valid() bool {
	return c == CategoryCard || c == CategoryWatch
}

// ConfidenceTier governs how conservatively downstream stages treat an identity.
type ConfidenceTier string

const (
	TierHigh     ConfidenceTier = "HIGH"
	TierEstimate ConfidenceTier = "ESTIMATE"
	TierBlocked  ConfidenceTier = "BLOCKED"
)

// Block reason codes recorded on blocked identities.
const (
	BlockNoEvidence             = "NO_EVIDENCE"
	BlockNoCatalogMatch         = "NO_CATALOG_MATCH"
	BlockCardNumberRequired     = "CARD_NUMBER_REQUIRED"
	BlockModelSelectionRequired = "MODEL_SELECTION_REQUIRED"
	BlockAmbiguousFamily        = "AMBIGUOUS_FAMILY"
)

// ConditionBucket buckets item condition for price-truth caching.
type ConditionBucket string

const (
	ConditionRaw    ConditionBucket = "raw"
	ConditionGraded ConditionBucket = "graded"
	ConditionUsed   ConditionBucket = "used"
	ConditionNew    ConditionBucket = "new"
)

// Identity is the canonical, per-scan record of what was scanned. It is
// created once per scan and never mutated after resolution.
type Identity struct {
	ID       string         `json:"id"`
	Category Category       `json:"category"`
	Tier     ConfidenceTier `json:"tier"`

	// Card fields.
	Set        string `json:"set,omitempty"`
	CardNumber string `json:"card_number,omitempty"`
	Grade      string `json:"grade,omitempty"`

	// Watch fields.
	Brand    string `json:"brand,omitempty"`
	ModelRef string `json:"model_ref,omitempty"`
	Dial     string `json:"dial,omitempty"`
	Bezel    string `json:"bezel,omitempty"`

	// Shared.
	Subject          string `json:"subject,omitempty"` // player / model display name
	Variant          string `json:"variant,omitempty"`
	Year             int    `json:"year,omitempty"`
	VariantConfirmed bool   `json:"variant_confirmed"`

	BlockReason         string `json:"block_reason,omitempty"`
	NeedsModelSelection bool   `json:"needs_model_selection,omitempty"`

	// ResolutionPath traces, in order, every decision made while resolving.
	ResolutionPath []string `json:"resolution_path"`
}

// Blocked reports whether the identity cannot be priced.
func (i Identity) Blocked() bool { return i.Tier == TierBlocked }

// Fingerprint returns a stable digest of the identifying fields, used as
// part of the price-truth cache key. Trace and confidence are deliberately
// excluded: two scans of the same item share a fingerprint.
func (i Identity) Fingerprint() string {
	parts := []string{
		string(i.Category),
		normFP(i.Set), normFP(i.CardNumber),
		normFP(i.Brand), normFP(i.ModelRef),
		normFP(i.Variant), normFP(i.Grade),
		strconv.Itoa(i.Year),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:16]
}

func normFP(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SnapshotKey is the composite cache key for price-truth snapshots.
type SnapshotKey struct {
	Category    Category        `json:"category"`
	Fingerprint string          `json:"fingerprint"`
	Condition   ConditionBucket `json:"condition"`
}

// String renders the key in its canonical storage form.
func (k SnapshotKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Category, k.Fingerprint, k.Condition)
}
