// Package identity merges raw scan evidence into one canonical identity per
// category and assigns it a confidence tier. The resolvers never claim more
// certainty than the weakest input signal supports, and they record every
// decision in an ordered trace.
package identity

import (
	"sort"

	"github.com/fliplens/appraise-cli/internal/model"
)

// Merge folds evidence records into a single view by source priority: for
// each field, the most authoritative source that observed it wins. The merged
// confidence is the minimum confidence among sources that won at least one
// field — a merge is never more certain than its weakest contributor.
func Merge(evidence []model.Evidence) model.MergedEvidence {
	ordered := append([]model.Evidence(nil), evidence...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Source.Priority() > ordered[j].Source.Priority()
	})

	var m model.MergedEvidence
	contributed := make(map[model.EvidenceSource]float64)

	take := func(dst *model.MergedField, val string, ev model.Evidence) {
		if dst.Present() || val == "" {
			return
		}
		dst.Value = val
		dst.Source = ev.Source
		contributed[ev.Source] = ev.Confidence
	}

	for _, ev := range ordered {
		f := ev.Fields
		if len(f.NameCandidates) > 0 {
			take(&m.Name, f.NameCandidates[0], ev)
		}
		take(&m.SetOrBrand, f.SetOrBrand, ev)
		take(&m.Number, f.Number, ev)
		take(&m.Variant, f.Variant, ev)
		take(&m.Language, f.Language, ev)
		take(&m.Serial, f.Serial, ev)
		take(&m.Grade, f.Grade, ev)
		if m.Year == 0 && f.Year != 0 {
			m.Year = f.Year
			m.YearSource = ev.Source
			contributed[ev.Source] = ev.Confidence
		}
		m.Sources = append(m.Sources, ev.Source)
	}

	m.Confidence = 0
	first := true
	for _, conf := range contributed {
		if first || conf < m.Confidence {
			m.Confidence = conf
			first = false
		}
	}
	return m
}
