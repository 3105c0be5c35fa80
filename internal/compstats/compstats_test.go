package compstats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_Empty(t *testing.T) {
	res := Process(nil)
	assert.Empty(t, res.FinalComps)
	assert.Equal(t, 0.0, res.Median)
	assert.Equal(t, 1.0, res.CV)
	assert.True(t, math.IsInf(res.SpreadRatio, 1))
}

func TestProcess_SingleValue(t *testing.T) {
	res := Process([]float64{50})
	assert.Equal(t, []float64{50}, res.FinalComps)
	assert.Equal(t, 50.0, res.Median)
	assert.Equal(t, 1.0, res.CV) // <2 survivors → maximal uncertainty
	assert.True(t, math.IsInf(res.SpreadRatio, 1))
}

func TestProcess_PrizmScenario(t *testing.T) {
	// Spec'd card scenario: the 200 outlier must be rejected, the rest kept.
	res := Process([]float64{40, 42, 45, 48, 200})

	assert.Equal(t, []float64{40, 42, 45, 48}, res.FinalComps)
	assert.InDelta(t, 43.5, res.Median, 0.6)
	assert.Less(t, res.CV, 0.30)
	assert.Less(t, res.SpreadRatio, 2.2)
}

func TestProcess_IdempotentOnOwnOutput(t *testing.T) {
	inputs := [][]float64{
		{40, 42, 45, 48, 200},
		{10, 11, 12, 13, 14, 15, 16, 17, 18, 500},
		{99.5, 101, 102.25, 103, 98},
		{25, 25, 25, 25, 25, 25},
		{30, 31, 32, 33, 34, 35, 36, 37, 38, 39, 40, 41},
	}
	for _, in := range inputs {
		first := Process(in)
		second := Process(first.FinalComps)
		assert.Equal(t, first.FinalComps, second.FinalComps, "input %v", in)
		assert.Equal(t, first.Median, second.Median, "input %v", in)
	}
}

func TestProcess_FilteredOutputIsAFixpoint(t *testing.T) {
	// Repeated reprocessing must stabilize after the first pass, not
	// shave another value from each end on every run.
	comps := Process([]float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 500}).FinalComps
	require.Equal(t, []float64{11, 12, 13, 14, 15, 16, 17, 18}, comps)

	for i := 0; i < 3; i++ {
		comps = Process(comps).FinalComps
		require.Equal(t, []float64{11, 12, 13, 14, 15, 16, 17, 18}, comps, "pass %d", i+1)
	}
}

func TestPercentileTrim_SkipsCleanData(t *testing.T) {
	// Every value here survives the fence and ratio filters, so there is
	// nothing for the trim to cut.
	in := []float64{11, 12, 13, 14, 15, 16, 17, 18}
	assert.Equal(t, in, percentileTrim(in))
}

func TestPercentileTrim_StillCutsTailOutliers(t *testing.T) {
	trimmed := percentileTrim([]float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 500})
	assert.Equal(t, []float64{11, 12, 13, 14, 15, 16, 17, 18}, trimmed)
}

func TestPercentileTrim_NeverBelowThree(t *testing.T) {
	for n := 6; n <= 40; n++ {
		sorted := make([]float64, n)
		for i := range sorted {
			sorted[i] = float64(i + 1)
		}
		trimmed := percentileTrim(sorted)
		assert.GreaterOrEqual(t, len(trimmed), 3, "n=%d", n)
		assert.Less(t, len(trimmed), n, "n=%d must trim at least one per end", n)
	}
}

func TestPercentileTrim_SmallListsUntouched(t *testing.T) {
	for n := 0; n <= 5; n++ {
		sorted := make([]float64, n)
		for i := range sorted {
			sorted[i] = float64(i)
		}
		assert.Len(t, percentileTrim(sorted), n)
	}
}

func TestPercentileTrim_FallsBackToOnePerEnd(t *testing.T) {
	// n=6: 15% cut is 0 → forced to 1 per end, leaving 4.
	trimmed := percentileTrim([]float64{1, 2, 3, 4, 5, 6})
	assert.Equal(t, []float64{2, 3, 4, 5}, trimmed)
}

func TestIQRFilter_SkippedBelowFour(t *testing.T) {
	in := []float64{1, 2, 1000}
	assert.Equal(t, in, iqrFilter(in))
}

func TestIQRFilter_DropsFenceViolations(t *testing.T) {
	out := iqrFilter([]float64{40, 42, 45, 48, 200})
	assert.NotContains(t, out, 200.0)
	assert.Contains(t, out, 40.0)
	assert.Contains(t, out, 48.0)
}

func TestRatioFilter_Bounds(t *testing.T) {
	out := ratioFilter([]float64{10, 39, 50, 100, 130}, 50)
	// Keep [20, 125]: drop 10 (below 0.4x) and 130 (above 2.5x).
	assert.Equal(t, []float64{39, 50, 100}, out)
}

func TestProcess_DiscardsInvalidInputs(t *testing.T) {
	res := Process([]float64{-5, math.NaN(), math.Inf(1), 30, 32})
	assert.Equal(t, []float64{30, 32}, res.FinalComps)
	// Raw keeps the original list untouched.
	assert.Len(t, res.Raw, 5)
}

func TestProcess_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	in := make([]float64, 50)
	for i := range in {
		in[i] = 20 + rng.Float64()*200
	}
	a := Process(in)
	b := Process(in)
	require.Equal(t, a, b)
}

func TestMedian_EvenOdd(t *testing.T) {
	assert.Equal(t, 43.5, median([]float64{40, 42, 45, 48}))
	assert.Equal(t, 45.0, median([]float64{40, 42, 45, 48, 200}))
}

func TestQuantile_Interpolation(t *testing.T) {
	sorted := []float64{40, 42, 45, 48, 200}
	assert.Equal(t, 42.0, quantile(sorted, 0.25))
	assert.Equal(t, 48.0, quantile(sorted, 0.75))
	assert.Equal(t, 40.0, quantile(sorted, 0))
	assert.Equal(t, 200.0, quantile(sorted, 1))
}

func TestCV_UniformIsZero(t *testing.T) {
	assert.Equal(t, 0.0, coefficientOfVariation([]float64{25, 25, 25}))
}

func TestSpreadRatio_ZeroMinIsInfinite(t *testing.T) {
	assert.True(t, math.IsInf(spreadRatio([]float64{0, 10}), 1))
	assert.Equal(t, 2.0, spreadRatio([]float64{5, 7, 10}))
}
