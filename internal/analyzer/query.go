package analyzer

import (
	"strconv"
	"strings"

	"github.com/fliplens/appraise-cli/internal/model"
	"github.com/fliplens/appraise-cli/pkg/marketplace"
)

// Terms that drag in the wrong population of listings: lots, reprints, and
// damaged items are never comparable to a single clean unit.
var excludedTerms = []string{"lot", "reprint", "proxy", "damaged", "read description"}

// compQuery renders a resolved identity as a marketplace search. Only called
// for priceable identities, so the identifying fields are known-present.
func compQuery(id model.Identity, condition model.ConditionBucket) marketplace.Query {
	var parts []string
	switch id.Category {
	case model.CategoryWatch:
		parts = append(parts, id.Brand)
		if id.Subject != "" {
			parts = append(parts, id.Subject)
		} else if id.ModelRef != "" {
			parts = append(parts, id.ModelRef)
		}
		if id.Variant != "" {
			parts = append(parts, id.Variant)
		}
	default:
		if id.Year > 0 {
			parts = append(parts, strconv.Itoa(id.Year))
		}
		parts = append(parts, id.Set)
		if id.Subject != "" {
			parts = append(parts, id.Subject)
		}
		if id.CardNumber != "" {
			parts = append(parts, "#"+id.CardNumber)
		}
		if id.Variant != "" {
			parts = append(parts, id.Variant)
		}
		if id.Grade != "" {
			parts = append(parts, id.Grade)
		}
	}

	return marketplace.Query{
		Category:  string(id.Category),
		Keywords:  strings.Join(compact(parts), " "),
		Condition: string(condition),
		Exclude:   excludedTerms,
		MaxAgeDay: 90,
		Limit:     25,
	}
}

func compact(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
