package model

import "time"

// EvidenceSource identifies where a piece of scan evidence came from.
// Sources have a fixed authority order: on a field conflict the more
// authoritative source wins.
type EvidenceSource string

const (
	SourceFrontScan EvidenceSource = "front_scan"
	SourceBackScan  EvidenceSource = "back_scan"
	SourceVision    EvidenceSource = "vision"
	SourceManual    EvidenceSource = "manual"
)

// Priority returns the authority rank of a source. Higher wins on conflict.
// Manual entry outranks everything; the front scan outranks the back scan,
// which outranks generic vision output.
func (s EvidenceSource) Priority() int {
	switch s {
	case SourceManual:
		return 4
	case SourceFrontScan:
		return 3
	case SourceBackScan:
		return 2
	case SourceVision:
		return 1
	default:
		return 0
	}
}

// EvidenceFields is the sparse set of fields a single source may have
// extracted. Empty string / zero means the source did not observe the field.
type EvidenceFields struct {
	NameCandidates []string `json:"name_candidates,omitempty"`
	SetOrBrand     string   `json:"set_or_brand,omitempty"`
	Number         string   `json:"number,omitempty"` // card number or watch model reference
	Variant        string   `json:"variant,omitempty"`
	Year           int      `json:"year,omitempty"`
	Language       string   `json:"language,omitempty"`
	Serial         string   `json:"serial,omitempty"`
	Grade          string   `json:"grade,omitempty"`
}

// Evidence is one independently-sourced observation about a scanned item.
// It is immutable once captured; resolution merges evidence records, it
// never edits them.
type Evidence struct {
	Source     EvidenceSource `json:"source"`
	Confidence float64        `json:"confidence"` // 0-100
	Fields     EvidenceFields `json:"fields"`
	CapturedAt time.Time      `json:"captured_at,omitempty"`
}

// MergedField is a single resolved field together with the source that won it.
type MergedField struct {
	Value  string         `json:"value"`
	Source EvidenceSource `json:"source,omitempty"`
}

// Present reports whether the field carries a value.
func (f MergedField) Present() bool { return f.Value != "" }

// MergedEvidence is the result of folding evidence records together by
// source priority. Each field independently tracks its winning source.
// Confidence is the minimum confidence among the sources that contributed
// a winning field — a merge is never more certain than its weakest input.
type MergedEvidence struct {
	Name       MergedField      `json:"name"`
	SetOrBrand MergedField      `json:"set_or_brand"`
	Number     MergedField      `json:"number"`
	Variant    MergedField      `json:"variant"`
	Language   MergedField      `json:"language"`
	Serial     MergedField      `json:"serial"`
	Grade      MergedField      `json:"grade"`
	Year       int              `json:"year,omitempty"`
	YearSource EvidenceSource   `json:"year_source,omitempty"`
	Confidence float64          `json:"confidence"`
	Sources    []EvidenceSource `json:"sources"`
}

// Empty reports whether the merge produced no identifying signal at all.
func (m MergedEvidence) Empty() bool {
	return !m.Name.Present() && !m.SetOrBrand.Present() && !m.Number.Present()
}
