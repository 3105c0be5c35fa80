package analyzer

import "github.com/fliplens/appraise-cli/internal/model"

// ManualFields are user-typed corrections. They outrank every scan source
// on the fields they fill in.
type ManualFields struct {
	Name       string `json:"name,omitempty"`
	SetOrBrand string `json:"set_or_brand,omitempty"`
	Number     string `json:"number,omitempty"` // card number or watch reference
	Variant    string `json:"variant,omitempty"`
	Year       int    `json:"year,omitempty"`
	Grade      string `json:"grade,omitempty"`
	CertNumber string `json:"cert_number,omitempty"`
}

func (m ManualFields) empty() bool {
	return m.Name == "" && m.SetOrBrand == "" && m.Number == "" &&
		m.Variant == "" && m.Year == 0 && m.Grade == "" && m.CertNumber == ""
}

// ItemLabel renders the short display label used in scan history and
// batch reports.
func ItemLabel(id model.Identity) string {
	if id.Category == model.CategoryWatch {
		return watchLabel(id)
	}
	return cardLabel(id)
}

// Request is one appraisal: photos of the item plus the asking price.
// BackImage may be nil; identification then leans on the front alone.
type Request struct {
	FrontImage []byte `json:"-"`
	BackImage  []byte `json:"-"`
	MediaType  string `json:"media_type,omitempty"`

	Manual    ManualFields          `json:"manual,omitempty"`
	Condition model.ConditionBucket `json:"condition,omitempty"`

	BuyPrice            float64  `json:"buy_price"`
	ShippingIn          float64  `json:"shipping_in,omitempty"`
	FeeRateOverride     *float64 `json:"fee_rate_override,omitempty"`
	ShippingOutOverride *float64 `json:"shipping_out_override,omitempty"`
}
