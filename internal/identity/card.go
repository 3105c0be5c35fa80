package identity

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fliplens/appraise-cli/internal/model"
)

// ResolveCard turns merged card evidence plus its catalog match into a
// canonical card identity. Gate order is fixed; the first failing gate
// blocks the identity with a reason code.
func ResolveCard(merged model.MergedEvidence, match model.CatalogMatch) model.Identity {
	id := model.Identity{
		ID:       uuid.NewString(),
		Category: model.CategoryCard,
	}
	trace := func(format string, args ...any) {
		id.ResolutionPath = append(id.ResolutionPath, fmt.Sprintf(format, args...))
	}

	if merged.Empty() {
		id.Tier = model.TierBlocked
		id.BlockReason = model.BlockNoEvidence
		trace("Gate evidence failed: no identifying fields in any source")
		return id
	}
	trace("Gate evidence passed: merged %d source(s), weakest confidence %.0f", len(merged.Sources), merged.Confidence)

	if match.Type == model.MatchNone {
		id.Tier = model.TierBlocked
		id.BlockReason = model.BlockNoCatalogMatch
		trace("Gate catalog failed: %q not in the recognized set universe", merged.SetOrBrand.Value)
		return id
	}
	trace("Gate catalog passed: %s match, confidence %.0f, %d alternative(s)", match.Type, match.Confidence, match.Alternatives)

	if match.BrandOnly || !merged.Number.Present() {
		// Set family alone cannot be priced; this is a hard rule.
		id.Tier = model.TierBlocked
		id.BlockReason = model.BlockCardNumberRequired
		if match.Entry != nil {
			id.Set = match.Entry.Name
			id.Year = match.Entry.Year
		}
		trace("Gate specificity failed: set family identified but no card number")
		return id
	}

	if match.Alternatives > 0 && match.Type != model.MatchExact {
		id.Tier = model.TierBlocked
		id.BlockReason = model.BlockAmbiguousFamily
		trace("Gate ambiguity failed: %d equally plausible sets, no distinguishing evidence", match.Alternatives+1)
		return id
	}
	trace("Gate specificity passed: card number %s", merged.Number.Value)

	id.CardNumber = merged.Number.Value
	id.Subject = merged.Name.Value
	id.Variant = merged.Variant.Value
	id.Grade = merged.Grade.Value
	if match.Entry != nil {
		id.Set = match.Entry.Name
		id.Year = match.Entry.Year
	}
	if id.Year == 0 {
		id.Year = merged.Year
	}

	// Variant is a pricing modifier, never an identity blocker.
	id.VariantConfirmed = merged.Variant.Present() ||
		(match.Entry != nil && len(match.Entry.Variants) == 0)
	if !id.VariantConfirmed {
		trace("Variant unconfirmed: %d known parallels, none identified; pricing will be conservative", knownVariants(match))
	}

	switch match.Type {
	case model.MatchExact:
		id.Tier = model.TierHigh
		trace("Resolved HIGH: exact catalog match %s #%s", id.Set, id.CardNumber)
	default:
		id.Tier = model.TierEstimate
		trace("Resolved ESTIMATE: %s catalog match, specific unit uncertain", match.Type)
	}

	zap.L().Debug("card identity resolved",
		zap.String("set", id.Set),
		zap.String("number", id.CardNumber),
		zap.String("tier", string(id.Tier)),
	)
	return id
}

func knownVariants(match model.CatalogMatch) int {
	if match.Entry == nil {
		return 0
	}
	return len(match.Entry.Variants)
}
