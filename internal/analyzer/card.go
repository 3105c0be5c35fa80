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

// AnalyzeCard appraises a trading card. The returned bundle is always
// complete: a blocked identity or failed pricing produces a
// NOT_ENOUGH_INFO decision, not an error.
func (a *Analyzer) AnalyzeCard(ctx context.Context, req Request) (*model.CardAnalysis, error) {
	if len(req.FrontImage) == 0 && req.Manual.empty() {
		return nil, eris.New("analyzer: front image or manual fields required")
	}

	scanID := uuid.NewString()
	evidence, warnings := a.collectEvidence(ctx, model.CategoryCard, req)
	merged := identity.Merge(evidence)

	match := a.catalog.MatchCard(merged.SetOrBrand.Value, merged.Number.Value, merged.Year)
	id := identity.ResolveCard(merged, match)

	grade, certWarnings := a.enrichFromCert(ctx, &id, merged.Serial.Value)
	warnings = append(warnings, certWarnings...)
	condition := conditionFor(model.CategoryCard, req.Condition, grade)

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
		Category:    model.CategoryCard,
		Fingerprint: id.Fingerprint(),
		Condition:   string(condition),
		ItemLabel:   cardLabel(id),
		Verdict:     dec.Verdict,
		BuyPrice:    req.BuyPrice,
		Profit:      dec.Profit,
		FromCache:   fromCache,
	})

	zap.L().Info("card appraised",
		zap.String("scan_id", scanID),
		zap.String("tier", string(id.Tier)),
		zap.String("verdict", string(dec.Verdict)),
		zap.Bool("from_cache", fromCache))

	return &model.CardAnalysis{
		ScanID:     scanID,
		Identity:   id,
		PriceTruth: truth,
		Decision:   dec,
		Summary:    summary,
		FromCache:  fromCache,
	}, nil
}

// evaluatePricing prices only identities that passed resolution. Blocked
// identities get the canonical unpriced truth straight away.
func (a *Analyzer) evaluatePricing(ctx context.Context, id model.Identity, condition model.ConditionBucket, buyPrice float64) (model.PriceTruth, bool, []string) {
	if id.Blocked() {
		return model.PriceTruth{Source: model.PriceSourceNone, Confidence: model.PriceNone}, false, nil
	}
	return a.priceFor(ctx, id, condition, buyPrice)
}

// enrichFromCert verifies a grading cert when one was read off the slab.
// Registry problems downgrade to a warning; the grade evidence from the scan
// still stands.
func (a *Analyzer) enrichFromCert(ctx context.Context, id *model.Identity, certNumber string) (string, []string) {
	if certNumber == "" || id.Blocked() {
		return id.Grade, nil
	}
	if a.certs == nil {
		return id.Grade, nil
	}

	cert, err := a.certs.Lookup(ctx, certNumber)
	if err != nil {
		return id.Grade, []string{"cert lookup failed: " + err.Error()}
	}
	if cert == nil {
		return id.Grade, []string{"cert " + certNumber + " not found in registry"}
	}
	if !cert.Valid {
		return id.Grade, []string{"cert " + certNumber + " is flagged invalid"}
	}

	id.Grade = cert.Grader + " " + cert.Grade
	id.ResolutionPath = append(id.ResolutionPath, "Cert "+certNumber+" verified: "+id.Grade)
	return id.Grade, nil
}

func cardLabel(id model.Identity) string {
	label := id.Set
	if id.CardNumber != "" {
		label += " #" + id.CardNumber
	}
	if id.Subject != "" {
		label += " " + id.Subject
	}
	if label == "" {
		label = "unidentified card"
	}
	return label
}
