// Package catalog holds the closed reference universe of card sets and watch
// models the system is willing to price, and matches merged scan evidence
// against it. Items outside this universe must never get comps invented for
// them, so lookups degrade to a "none" match rather than guessing.
package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/fliplens/appraise-cli/internal/model"
)

// CardSet is one recognized trading-card release.
type CardSet struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Year      int      `yaml:"year"`
	Franchise string   `yaml:"franchise"`
	Cards     int      `yaml:"cards"` // numbered cards in the base checklist
	Parallels []string `yaml:"parallels"`
}

// WatchModel is one specific reference within a family.
type WatchModel struct {
	Ref   string `yaml:"ref"`
	Dial  string `yaml:"dial"`
	Bezel string `yaml:"bezel,omitempty"`
}

// WatchFamily groups models under a collection name (e.g. "Pro Diver").
type WatchFamily struct {
	Name   string       `yaml:"name"`
	Models []WatchModel `yaml:"models"`
}

// WatchBrand is one recognized watch manufacturer.
type WatchBrand struct {
	Name     string        `yaml:"name"`
	Families []WatchFamily `yaml:"families"`
}

// Registry is the indexed catalog. Indexes are built once at construction;
// lookups are read-only and safe for concurrent use.
type Registry struct {
	sets       []CardSet
	setsByName map[string][]*CardSet
	brands     []WatchBrand
	brandIdx   map[string]*WatchBrand
}

var folder = cases.Fold()

// Normalize canonicalizes free text for catalog comparison: unicode NFKC,
// case folding, punctuation to spaces, whitespace collapsed.
func Normalize(s string) string {
	s = folder.String(norm.NFKC.String(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NewRegistry builds an indexed registry, rejecting malformed or duplicate
// entries at construction rather than silently defaulting later.
func NewRegistry(sets []CardSet, brands []WatchBrand) (*Registry, error) {
	r := &Registry{
		sets:       sets,
		setsByName: make(map[string][]*CardSet),
		brands:     brands,
		brandIdx:   make(map[string]*WatchBrand, len(brands)),
	}

	seenIDs := make(map[string]bool, len(sets))
	for i := range r.sets {
		s := &r.sets[i]
		if s.ID == "" || s.Name == "" || s.Year == 0 {
			return nil, eris.Errorf("catalog: card set %q missing id, name, or year", s.ID)
		}
		if seenIDs[s.ID] {
			return nil, eris.Errorf("catalog: duplicate card set id %q", s.ID)
		}
		seenIDs[s.ID] = true
		key := Normalize(s.Name)
		for _, existing := range r.setsByName[key] {
			if existing.Year == s.Year && existing.Franchise == s.Franchise {
				return nil, eris.Errorf("catalog: duplicate card set %s %d", s.Name, s.Year)
			}
		}
		r.setsByName[key] = append(r.setsByName[key], s)
	}

	seenRefs := make(map[string]bool)
	for i := range r.brands {
		b := &r.brands[i]
		if b.Name == "" {
			return nil, eris.New("catalog: watch brand missing name")
		}
		key := Normalize(b.Name)
		if _, dup := r.brandIdx[key]; dup {
			return nil, eris.Errorf("catalog: duplicate watch brand %q", b.Name)
		}
		r.brandIdx[key] = b
		for _, fam := range b.Families {
			for _, m := range fam.Models {
				rk := key + "/" + Normalize(m.Ref)
				if seenRefs[rk] {
					return nil, eris.Errorf("catalog: duplicate watch ref %s %s", b.Name, m.Ref)
				}
				seenRefs[rk] = true
			}
		}
	}

	return r, nil
}

// Sets returns the number of card sets in the catalog.
func (r *Registry) Sets() int { return len(r.sets) }

// Brands returns the number of watch brands in the catalog.
func (r *Registry) Brands() int { return len(r.brands) }

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// extractYear pulls a four-digit release year out of free text, returning
// the year and the text with it removed.
func extractYear(text string) (int, string) {
	loc := yearRe.FindStringIndex(text)
	if loc == nil {
		return 0, text
	}
	y, _ := strconv.Atoi(text[loc[0]:loc[1]])
	return y, strings.TrimSpace(text[:loc[0]] + " " + text[loc[1]:])
}

// fuzzyLimit returns the acceptable edit distance for a normalized name.
func fuzzyLimit(s string) int {
	if len(s) < 6 {
		return 1
	}
	return 2
}

// MatchCard looks up merged card evidence in the catalog. The invariant
// callers depend on: a set without a card number comes back brand-only and
// is never priceable.
func (r *Registry) MatchCard(setText, number string, year int) model.CatalogMatch {
	text := Normalize(setText)
	if text == "" {
		return model.CatalogMatch{Type: model.MatchNone}
	}
	if y, rest := extractYear(text); y != 0 {
		if year == 0 {
			year = y
		}
		text = Normalize(rest)
	}

	candidates, fuzzy := r.cardCandidates(text)
	if year != 0 {
		filtered := candidates[:0:0]
		for _, c := range candidates {
			if c.Year == year {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}
	if len(candidates) == 0 {
		return model.CatalogMatch{Type: model.MatchNone}
	}

	best := candidates[0]
	entry := &model.CatalogEntry{
		ID:        best.ID,
		Name:      best.Name,
		Year:      best.Year,
		Franchise: best.Franchise,
		Variants:  best.Parallels,
	}
	m := model.CatalogMatch{Entry: entry, Alternatives: len(candidates) - 1}

	switch {
	case number == "":
		// Set family alone; no unit to price.
		m.Type = model.MatchNameOnly
		m.BrandOnly = true
		m.Confidence = 55
	case fuzzy:
		m.Type = model.MatchFuzzy
		m.Confidence = 62
	case !numberInChecklist(number, best.Cards):
		m.Type = model.MatchFuzzy
		m.Confidence = 55
	default:
		m.Type = model.MatchExact
		m.Confidence = 95
	}
	if m.Alternatives > 0 {
		m.Confidence -= 15
	}
	return m
}

// cardCandidates finds sets by exact normalized name, falling back to a
// levenshtein scan over the whole catalog. The bool reports whether the hit
// was fuzzy.
func (r *Registry) cardCandidates(text string) ([]*CardSet, bool) {
	if exact, ok := r.setsByName[text]; ok {
		return exact, false
	}

	bestDist := -1
	var out []*CardSet
	for name, sets := range r.setsByName {
		d := levenshtein.ComputeDistance(text, name)
		if d > fuzzyLimit(name) {
			continue
		}
		if bestDist == -1 || d < bestDist {
			bestDist = d
			out = append(out[:0], sets...)
		} else if d == bestDist {
			out = append(out, sets...)
		}
	}
	return out, len(out) > 0
}

// numberInChecklist reports whether a card number plausibly belongs to a
// checklist of the given size. Non-numeric numbers (inserts, letter suffixes)
// are allowed through; the checklist bound only applies to plain integers.
func numberInChecklist(number string, cards int) bool {
	if cards <= 0 {
		return true
	}
	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil {
		return true
	}
	return n >= 1 && n <= cards
}

// MatchWatch looks up watch evidence. Brand without a resolvable model comes
// back brand-only and is never priceable.
func (r *Registry) MatchWatch(brandText, modelText string) model.CatalogMatch {
	bKey := Normalize(brandText)
	if bKey == "" {
		return model.CatalogMatch{Type: model.MatchNone}
	}

	brand, brandFuzzy := r.findBrand(bKey)
	if brand == nil {
		return model.CatalogMatch{Type: model.MatchNone}
	}

	if Normalize(modelText) == "" {
		return model.CatalogMatch{
			Type:       model.MatchNameOnly,
			BrandOnly:  true,
			Confidence: 45,
			Entry:      &model.CatalogEntry{ID: Normalize(brand.Name), Name: brand.Name, Brand: brand.Name},
		}
	}

	mKey := Normalize(modelText)

	// Exact reference wins outright.
	for _, fam := range brand.Families {
		for _, mod := range fam.Models {
			if Normalize(mod.Ref) == mKey {
				conf := 95.0
				if brandFuzzy {
					conf = 80
				}
				return model.CatalogMatch{
					Type:       model.MatchExact,
					Confidence: conf,
					Entry: &model.CatalogEntry{
						ID:        Normalize(brand.Name) + "/" + Normalize(mod.Ref),
						Name:      fam.Name + " " + mod.Ref,
						Brand:     brand.Name,
						Franchise: fam.Name,
					},
				}
			}
		}
	}

	// Family name: the collection is confirmed, the specific unit is not.
	for i := range brand.Families {
		fam := &brand.Families[i]
		fKey := Normalize(fam.Name)
		if fKey == mKey || levenshtein.ComputeDistance(fKey, mKey) <= fuzzyLimit(fKey) {
			refs := make([]string, len(fam.Models))
			for j, mod := range fam.Models {
				refs[j] = mod.Ref
			}
			return model.CatalogMatch{
				Type:         model.MatchNameOnly,
				Confidence:   70,
				Alternatives: len(fam.Models) - 1,
				Entry: &model.CatalogEntry{
					ID:        Normalize(brand.Name) + "/" + fKey,
					Name:      fam.Name,
					Brand:     brand.Name,
					Franchise: fam.Name,
					Variants:  refs,
				},
			}
		}
	}

	// Model text did not resolve against this brand at all.
	return model.CatalogMatch{
		Type:       model.MatchNameOnly,
		BrandOnly:  true,
		Confidence: 40,
		Entry:      &model.CatalogEntry{ID: Normalize(brand.Name), Name: brand.Name, Brand: brand.Name},
	}
}

func (r *Registry) findBrand(key string) (*WatchBrand, bool) {
	if b, ok := r.brandIdx[key]; ok {
		return b, false
	}
	for name, b := range r.brandIdx {
		if levenshtein.ComputeDistance(key, name) <= fuzzyLimit(name) {
			return b, true
		}
	}
	return nil, false
}
