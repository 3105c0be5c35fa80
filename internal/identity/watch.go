package identity

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fliplens/appraise-cli/internal/model"
)

// ResolveWatch turns merged watch evidence plus its catalog match into a
// canonical watch identity. Brand-only evidence is categorically
// insufficient: it blocks with MODEL_SELECTION_REQUIRED so the caller can
// prompt the user rather than invent comps.
func ResolveWatch(merged model.MergedEvidence, match model.CatalogMatch) model.Identity {
	id := model.Identity{
		ID:       uuid.NewString(),
		Category: model.CategoryWatch,
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
		trace("Gate catalog failed: brand %q not recognized", merged.SetOrBrand.Value)
		return id
	}
	trace("Gate catalog passed: %s match, confidence %.0f", match.Type, match.Confidence)

	if match.Entry != nil {
		id.Brand = match.Entry.Brand
	}

	if match.BrandOnly {
		id.Tier = model.TierBlocked
		id.BlockReason = model.BlockModelSelectionRequired
		id.NeedsModelSelection = true
		trace("Gate specificity failed: brand identified but no model resolved")
		return id
	}
	trace("Gate specificity passed: model evidence %q", merged.Number.Value)

	id.ModelRef = merged.Number.Value
	id.Dial = merged.Variant.Value
	id.Year = merged.Year
	if match.Entry != nil {
		id.Subject = match.Entry.Name
	}

	// Dial/bezel descriptors modify price; they never block identity.
	id.VariantConfirmed = merged.Variant.Present() || match.Type == model.MatchExact
	if !id.VariantConfirmed {
		trace("Configuration unconfirmed: %d candidate references; pricing will be conservative", knownVariants(match))
	}

	switch match.Type {
	case model.MatchExact:
		id.Tier = model.TierHigh
		trace("Resolved HIGH: exact reference %s %s", id.Brand, id.ModelRef)
	default:
		id.Tier = model.TierEstimate
		trace("Resolved ESTIMATE: family confirmed, reference uncertain")
	}

	zap.L().Debug("watch identity resolved",
		zap.String("brand", id.Brand),
		zap.String("model", id.ModelRef),
		zap.String("tier", string(id.Tier)),
	)
	return id
}
