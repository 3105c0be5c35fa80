package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fliplens/appraise-cli/internal/model"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Load()
	require.NoError(t, err)
	return r
}

func TestLoad_EmbeddedData(t *testing.T) {
	r := testRegistry(t)
	assert.Greater(t, r.Sets(), 5)
	assert.Greater(t, r.Brands(), 3)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "2020 prizm", Normalize("  2020  PRIZM!  "))
	assert.Equal(t, "pro diver", Normalize("Pro-Diver"))
	assert.Equal(t, "", Normalize("—"))
}

func TestMatchCard_ExactSetAndNumber(t *testing.T) {
	r := testRegistry(t)
	m := r.MatchCard("2020 Prizm", "325", 0)

	assert.Equal(t, model.MatchExact, m.Type)
	require.NotNil(t, m.Entry)
	assert.Equal(t, 2020, m.Entry.Year)
	assert.Equal(t, "basketball", m.Entry.Franchise)
	assert.Equal(t, 0, m.Alternatives)
	assert.True(t, m.Priceable())
}

func TestMatchCard_SetWithoutNumberIsNotPriceable(t *testing.T) {
	r := testRegistry(t)
	m := r.MatchCard("2020 Prizm", "", 0)

	assert.Equal(t, model.MatchNameOnly, m.Type)
	assert.True(t, m.BrandOnly)
	assert.False(t, m.Priceable())
}

func TestMatchCard_AmbiguousYears(t *testing.T) {
	r := testRegistry(t)
	// "Prizm" alone matches three basketball years.
	m := r.MatchCard("Prizm", "100", 0)

	assert.Equal(t, 2, m.Alternatives)
}

func TestMatchCard_YearDisambiguates(t *testing.T) {
	r := testRegistry(t)
	m := r.MatchCard("Prizm", "100", 2021)

	assert.Equal(t, 0, m.Alternatives)
	require.NotNil(t, m.Entry)
	assert.Equal(t, 2021, m.Entry.Year)
}

func TestMatchCard_FuzzySetName(t *testing.T) {
	r := testRegistry(t)
	// OCR typo: one edit away from "mosaic".
	m := r.MatchCard("2020 Mosiac", "55", 0)

	assert.Equal(t, model.MatchFuzzy, m.Type)
	require.NotNil(t, m.Entry)
	assert.Equal(t, "Mosaic", m.Entry.Name)
	assert.True(t, m.Priceable())
}

func TestMatchCard_UnknownSet(t *testing.T) {
	r := testRegistry(t)
	m := r.MatchCard("Galactic Holograms", "12", 0)
	assert.Equal(t, model.MatchNone, m.Type)
	assert.False(t, m.Priceable())
}

func TestMatchCard_NumberBeyondChecklist(t *testing.T) {
	r := testRegistry(t)
	// 2020 Prizm basketball has 400 base cards.
	m := r.MatchCard("2020 Prizm", "999", 0)
	assert.Equal(t, model.MatchFuzzy, m.Type)
}

func TestMatchCard_EmptyText(t *testing.T) {
	r := testRegistry(t)
	assert.Equal(t, model.MatchNone, r.MatchCard("", "325", 0).Type)
}

func TestMatchWatch_ExactRef(t *testing.T) {
	r := testRegistry(t)
	m := r.MatchWatch("Invicta", "8926OB")

	assert.Equal(t, model.MatchExact, m.Type)
	require.NotNil(t, m.Entry)
	assert.Equal(t, "Invicta", m.Entry.Brand)
	assert.Equal(t, "Pro Diver", m.Entry.Franchise)
	assert.True(t, m.Priceable())
}

func TestMatchWatch_BrandOnlyIsNotPriceable(t *testing.T) {
	r := testRegistry(t)
	m := r.MatchWatch("Invicta", "")

	assert.True(t, m.BrandOnly)
	assert.False(t, m.Priceable())
}

func TestMatchWatch_FamilyConfirmedUnitUncertain(t *testing.T) {
	r := testRegistry(t)
	m := r.MatchWatch("Seiko", "5 Sports")

	assert.Equal(t, model.MatchNameOnly, m.Type)
	assert.False(t, m.BrandOnly)
	assert.Equal(t, 2, m.Alternatives)
	require.NotNil(t, m.Entry)
	assert.Len(t, m.Entry.Variants, 3)
}

func TestMatchWatch_UnknownBrand(t *testing.T) {
	r := testRegistry(t)
	assert.Equal(t, model.MatchNone, r.MatchWatch("Chronotron", "X1").Type)
}

func TestMatchWatch_UnresolvedModelFallsBackToBrandOnly(t *testing.T) {
	r := testRegistry(t)
	m := r.MatchWatch("Casio", "Mystery 9000")

	assert.True(t, m.BrandOnly)
	assert.False(t, m.Priceable())
}

func TestMatchWatch_FuzzyBrand(t *testing.T) {
	r := testRegistry(t)
	m := r.MatchWatch("Seko", "SRPD55")

	assert.Equal(t, model.MatchExact, m.Type)
	assert.Less(t, m.Confidence, 95.0)
}

func TestNewRegistry_RejectsDuplicateSetID(t *testing.T) {
	sets := []CardSet{
		{ID: "a", Name: "Alpha", Year: 2020},
		{ID: "a", Name: "Beta", Year: 2021},
	}
	_, err := NewRegistry(sets, nil)
	assert.Error(t, err)
}

func TestNewRegistry_RejectsDuplicateBrand(t *testing.T) {
	brands := []WatchBrand{{Name: "Seiko"}, {Name: "SEIKO"}}
	_, err := NewRegistry(nil, brands)
	assert.Error(t, err)
}

func TestNewRegistry_RejectsIncompleteSet(t *testing.T) {
	_, err := NewRegistry([]CardSet{{ID: "x", Name: "NoYear"}}, nil)
	assert.Error(t, err)
}

func TestExtractYear(t *testing.T) {
	y, rest := extractYear("2020 prizm")
	assert.Equal(t, 2020, y)
	assert.Equal(t, "prizm", rest)

	y, rest = extractYear("prizm")
	assert.Equal(t, 0, y)
	assert.Equal(t, "prizm", rest)
}
