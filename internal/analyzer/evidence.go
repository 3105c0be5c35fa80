package analyzer

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fliplens/appraise-cli/internal/model"
	"github.com/fliplens/appraise-cli/internal/resilience"
	"github.com/fliplens/appraise-cli/pkg/vision"
)

// collectEvidence extracts both faces concurrently and converts whatever
// came back into evidence records. A failed face is a warning, not an
// error; with no faces at all the caller resolves to NO_EVIDENCE.
func (a *Analyzer) collectEvidence(ctx context.Context, category model.Category, req Request) ([]model.Evidence, []string) {
	type faceResult struct {
		source model.EvidenceSource
		ext    *vision.Extraction
		err    error
	}

	faces := []struct {
		name   string
		source model.EvidenceSource
		image  []byte
	}{
		{"front", model.SourceFrontScan, req.FrontImage},
		{"back", model.SourceBackScan, req.BackImage},
	}

	results := make([]faceResult, len(faces))
	g, gctx := errgroup.WithContext(ctx)
	for i, face := range faces {
		if len(face.image) == 0 {
			continue
		}
		g.Go(func() error {
			ext, err := resilience.DoVal(gctx, a.retry, "vision.extract."+face.name,
				func(ctx context.Context) (*vision.Extraction, error) {
					return a.vision.ExtractFace(ctx, vision.ExtractionRequest{
						Category:  string(category),
						Face:      face.name,
						MediaType: req.MediaType,
						ImageData: face.image,
					})
				})
			results[i] = faceResult{source: face.source, ext: ext, err: err}
			return nil
		})
	}
	g.Wait()

	var evidence []model.Evidence
	var warnings []string
	for i, res := range results {
		switch {
		case res.source == "":
			// face not provided
		case res.err != nil:
			warnings = append(warnings, faces[i].name+" scan failed: "+res.err.Error())
			zap.L().Warn("vision extraction failed",
				zap.String("face", faces[i].name),
				zap.Error(res.err))
		case res.ext != nil:
			evidence = append(evidence, toEvidence(res.source, category, res.ext))
		}
	}

	if ev, ok := manualEvidence(req.Manual); ok {
		evidence = append(evidence, ev)
	}
	return evidence, warnings
}

// toEvidence maps a vision extraction onto the shared evidence shape. Card
// and watch fields land in the same slots so downstream merging is uniform.
func toEvidence(source model.EvidenceSource, category model.Category, ext *vision.Extraction) model.Evidence {
	fields := model.EvidenceFields{
		Variant: ext.Variant,
		Grade:   ext.GradeLabel,
		Serial:  ext.CertNumber,
	}

	switch category {
	case model.CategoryWatch:
		fields.SetOrBrand = ext.Brand
		fields.Number = ext.RefNumber
		if ext.ModelName != "" {
			fields.NameCandidates = []string{ext.ModelName}
			if fields.Number == "" {
				fields.Number = ext.ModelName
			}
		}
		if ext.DialColor != "" && fields.Variant == "" {
			fields.Variant = ext.DialColor
		}
	default:
		fields.SetOrBrand = ext.SetName
		fields.Number = ext.CardNumber
		if ext.PlayerName != "" {
			fields.NameCandidates = []string{ext.PlayerName}
		}
		if y, err := strconv.Atoi(strings.TrimSpace(ext.Year)); err == nil {
			fields.Year = y
		}
	}

	return model.Evidence{
		Source:     source,
		Confidence: float64(ext.Confidence),
		Fields:     fields,
		CapturedAt: time.Now().UTC(),
	}
}

func manualEvidence(m ManualFields) (model.Evidence, bool) {
	if m.empty() {
		return model.Evidence{}, false
	}
	fields := model.EvidenceFields{
		SetOrBrand: m.SetOrBrand,
		Number:     m.Number,
		Variant:    m.Variant,
		Year:       m.Year,
		Grade:      m.Grade,
		Serial:     m.CertNumber,
	}
	if m.Name != "" {
		fields.NameCandidates = []string{m.Name}
	}
	return model.Evidence{
		Source:     model.SourceManual,
		Confidence: 100,
		Fields:     fields,
		CapturedAt: time.Now().UTC(),
	}, true
}

// conditionFor picks the cache condition bucket: an explicit request wins,
// then a read grade implies graded, then the category default.
func conditionFor(category model.Category, requested model.ConditionBucket, grade string) model.ConditionBucket {
	if requested != "" {
		return requested
	}
	if grade != "" {
		return model.ConditionGraded
	}
	if category == model.CategoryWatch {
		return model.ConditionUsed
	}
	return model.ConditionRaw
}
