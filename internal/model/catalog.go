package model

// MatchType classifies how well merged evidence matched the reference catalog.
type MatchType string

const (
	MatchExact    MatchType = "exact"     // specific set/model confirmed
	MatchNameOnly MatchType = "name_only" // family confirmed, specific unit uncertain
	MatchFuzzy    MatchType = "fuzzy"     // family matched only approximately
	MatchNone     MatchType = "none"
)

// CatalogEntry is the summary of a reference-catalog record a match points at.
type CatalogEntry struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Brand     string   `json:"brand,omitempty"`
	Year      int      `json:"year,omitempty"`
	Franchise string   `json:"franchise,omitempty"`
	Variants  []string `json:"variants,omitempty"` // known parallels / configurations
}

// CatalogMatch is the outcome of looking merged evidence up against the
// closed reference catalog. A match of type none, or one where only the
// brand/family was identified, can never yield a priceable identity.
type CatalogMatch struct {
	Type         MatchType     `json:"type"`
	Confidence   float64       `json:"confidence"` // 0-100
	Alternatives int           `json:"alternatives"`
	BrandOnly    bool          `json:"brand_only"`
	Entry        *CatalogEntry `json:"entry,omitempty"`
}

// Priceable reports whether the match is specific enough to ever price.
func (m CatalogMatch) Priceable() bool {
	return m.Type != MatchNone && !m.BrandOnly
}
