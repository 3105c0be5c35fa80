package analyzer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fliplens/appraise-cli/internal/compstats"
	"github.com/fliplens/appraise-cli/internal/model"
	"github.com/fliplens/appraise-cli/internal/pricetruth"
	"github.com/fliplens/appraise-cli/internal/resilience"
	"github.com/fliplens/appraise-cli/pkg/marketplace"
)

// priceFor returns a usable-or-not price truth for a resolved identity.
// Cache first; then sold comps; then active listings as a degraded anchor.
// All failures collapse into an unpriced truth plus warnings, never an error.
func (a *Analyzer) priceFor(ctx context.Context, id model.Identity, condition model.ConditionBucket, buyPrice float64) (model.PriceTruth, bool, []string) {
	key := model.SnapshotKey{Category: id.Category, Fingerprint: id.Fingerprint(), Condition: condition}

	if a.store != nil && !a.cacheDisabled {
		if cached, err := a.store.GetSnapshot(ctx, key); err != nil {
			zap.L().Warn("snapshot cache read failed", zap.String("key", key.String()), zap.Error(err))
		} else if cached != nil {
			zap.L().Debug("snapshot cache hit", zap.String("key", key.String()))
			return *cached, true, nil
		}
	}

	truth, warnings := a.buildTruth(ctx, id, condition, buyPrice)

	if a.store != nil && truth.Usable() {
		if err := a.store.PutSnapshot(ctx, key, truth); err != nil {
			zap.L().Warn("snapshot cache write failed", zap.String("key", key.String()), zap.Error(err))
		}
	}
	return truth, false, warnings
}

func (a *Analyzer) buildTruth(ctx context.Context, id model.Identity, condition model.ConditionBucket, buyPrice float64) (model.PriceTruth, []string) {
	var warnings []string
	input := pricetruth.Input{
		Category:         id.Category,
		IdentityTier:     id.Tier,
		VariantConfirmed: id.VariantConfirmed,
		Source:           model.PriceSourceSoldComps,
	}
	if buyPrice > 0 {
		input.BuyPrice = &buyPrice
	}

	if a.breaker != nil && !a.breaker.Allow() {
		warnings = append(warnings, "comp search unavailable: too many recent failures")
		return unpriced(a.builder, input), warnings
	}

	q := compQuery(id, condition)

	sold, err := a.searchWithRetry(ctx, "marketplace.sold", func(ctx context.Context) (*marketplace.SearchResult, error) {
		return a.market.SearchSold(ctx, q)
	})
	if err != nil {
		warnings = append(warnings, "sold comp search failed: "+err.Error())
		return unpriced(a.builder, input), warnings
	}

	if len(sold.Listings) > 0 {
		stats := compstats.Process(sold.Prices())
		truth := a.builder.FromComps(stats, input)
		if truth.Usable() {
			return truth, warnings
		}
		warnings = append(warnings, "sold comps collapsed under filtering")
	}

	// Active listings are asking prices, not clearing prices; the builder
	// caps their confidence at ESTIMATE.
	active, err := a.searchWithRetry(ctx, "marketplace.active", func(ctx context.Context) (*marketplace.SearchResult, error) {
		return a.market.SearchActive(ctx, q)
	})
	if err != nil {
		warnings = append(warnings, "active listing search failed: "+err.Error())
		return unpriced(a.builder, input), warnings
	}
	if len(active.Listings) == 0 {
		warnings = append(warnings, "no sold or active comps found")
		return unpriced(a.builder, input), warnings
	}

	input.Source = model.PriceSourceActiveListings
	stats := compstats.Process(active.Prices())
	truth := a.builder.FromComps(stats, input)
	if !truth.Usable() {
		warnings = append(warnings, "active listings collapsed under filtering")
	}
	return truth, warnings
}

func (a *Analyzer) searchWithRetry(ctx context.Context, op string, fn func(ctx context.Context) (*marketplace.SearchResult, error)) (*marketplace.SearchResult, error) {
	res, err := resilience.DoVal(ctx, a.retry, op, fn)
	if a.breaker != nil {
		if err != nil {
			a.breaker.Failure(err)
		} else {
			a.breaker.Success()
		}
	}
	return res, err
}

// unpriced builds the canonical empty truth so every no-data path carries
// the same shape.
func unpriced(b *pricetruth.Builder, in pricetruth.Input) model.PriceTruth {
	return b.FromComps(compstats.Result{}, in)
}

// recordScan persists history best-effort; a storage fault never fails an
// appraisal.
func (a *Analyzer) recordScan(ctx context.Context, scan model.ScanRecord) {
	if a.store == nil {
		return
	}
	scan.CreatedAt = time.Now().UTC()
	if err := a.store.SaveScan(ctx, scan); err != nil {
		zap.L().Warn("scan history write failed", zap.Error(err))
	}
}
