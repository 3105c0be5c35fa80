// Package analyzer orchestrates a full appraisal: vision extraction, evidence
// merge, catalog match, identity resolution, comp pricing, and the flip
// decision. External failures degrade into blocked or unpriced results; the
// analyzer itself errors only on programmer mistakes such as missing deps.
package analyzer

import (
	"github.com/rotisserie/eris"

	"github.com/fliplens/appraise-cli/internal/catalog"
	"github.com/fliplens/appraise-cli/internal/decision"
	"github.com/fliplens/appraise-cli/internal/pricetruth"
	"github.com/fliplens/appraise-cli/internal/resilience"
	"github.com/fliplens/appraise-cli/internal/store"
	"github.com/fliplens/appraise-cli/pkg/certregistry"
	"github.com/fliplens/appraise-cli/pkg/marketplace"
	"github.com/fliplens/appraise-cli/pkg/vision"
)

// Deps wires an Analyzer. Catalog, Vision, and Market are required; Certs,
// Store, and Breaker are optional and degrade gracefully when nil.
type Deps struct {
	Catalog   *catalog.Registry
	Vision    vision.Client
	Market    marketplace.Client
	Certs     certregistry.Client
	Store     store.Store
	Pricing   pricetruth.Config
	Constants decision.Constants
	Retry     resilience.Policy
	Breaker   *resilience.Breaker

	// CacheDisabled bypasses snapshot reads; writes still happen so a
	// later run benefits.
	CacheDisabled bool
}

// Analyzer runs appraisals. Safe for concurrent use.
type Analyzer struct {
	catalog       *catalog.Registry
	vision        vision.Client
	market        marketplace.Client
	certs         certregistry.Client
	store         store.Store
	builder       *pricetruth.Builder
	engine        *decision.Engine
	retry         resilience.Policy
	breaker       *resilience.Breaker
	cacheDisabled bool
}

// New validates deps and builds an Analyzer.
func New(d Deps) (*Analyzer, error) {
	if d.Catalog == nil {
		return nil, eris.New("analyzer: catalog registry is required")
	}
	if d.Vision == nil {
		return nil, eris.New("analyzer: vision client is required")
	}
	if d.Market == nil {
		return nil, eris.New("analyzer: marketplace client is required")
	}

	builder, err := pricetruth.NewBuilder(d.Pricing)
	if err != nil {
		return nil, err
	}
	engine, err := decision.NewEngine(d.Constants)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		catalog:       d.Catalog,
		vision:        d.Vision,
		market:        d.Market,
		certs:         d.Certs,
		store:         d.Store,
		builder:       builder,
		engine:        engine,
		retry:         d.Retry,
		breaker:       d.Breaker,
		cacheDisabled: d.CacheDisabled,
	}, nil
}
