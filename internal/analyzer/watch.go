package analyzer

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fliplens/appraise-cli/internal/decision"
	"github.com/fliplens/appraise-cli/internal/identity"
	"github.com/fliplens/appraise-cli/internal/model"
)

// AnalyzeWatch appraises a wristwatch. Brand-only identification blocks with
// a model-selection prompt rather than pricing against the whole brand.
func (a *Analyzer) AnalyzeWatch(ctx context.Context, req Request) (*model.WatchAnalysis, error) {
	if len(req.FrontImage) == 0 && req.Manual.empty() {
		return nil, eris.New("analyzer: front image or manual fields required")
	}

	scanID := uuid.NewString()
	evidence, warnings := a.collectEvidence(ctx, model.CategoryWatch, req)
	merged := identity.Merge(evidence)

	modelText := merged.Number.Value
	if modelText == "" {
		modelText = merged.Name.Value
	}
	match := a.catalog.MatchWatch(merged.SetOrBrand.Value, modelText)
	id := identity.ResolveWatch(merged, match)

	condition := conditionFor(model.CategoryWatch, req.Condition, merged.Grade.Value)

	truth, fromCache, priceWarnings := a.evaluatePricing(ctx, id, condition, req.BuyPrice)
	warnings = append(warnings, priceWarnings...)

	dec := a.engine.Evaluate(id, truth, decision.Costs{
		BuyPrice:            req.BuyPrice,
		ShippingIn:          req.ShippingIn,
		FeeRateOverride:     req.FeeRateOverride,
		ShippingOutOverride: req.ShippingOutOverride,
	})
	dec.Warnings = append(dec.Warnings, warnings...)
	summary := decision.Summarize(id, truth, dec)

	a.recordScan(ctx, model.ScanRecord{
		ID:          scanID,
		Category:    model.CategoryWatch,
		Fingerprint: id.Fingerprint(),
		Condition:   string(condition),
		ItemLabel:   watchLabel(id),
		Verdict:     dec.Verdict,
		BuyPrice:    req.BuyPrice,
		Profit:      dec.Profit,
		FromCache:   fromCache,
	})

	zap.L().Info("watch appraised",
		zap.String("scan_id", scanID),
		zap.String("tier", string(id.Tier)),
		zap.String("verdict", string(dec.Verdict)),
		zap.Bool("from_cache", fromCache))

	return &model.WatchAnalysis{
		ScanID:     scanID,
		Identity:   id,
		PriceTruth: truth,
		Decision:   dec,
		Summary:    summary,
		FromCache:  fromCache,
	}, nil
}

func watchLabel(id model.Identity) string {
	label := id.Brand
	if id.Subject != "" {
		label += " " + id.Subject
	} else if id.ModelRef != "" {
		label += " " + id.ModelRef
	}
	if label == "" {
		label = "unidentified watch"
	}
	return label
}
