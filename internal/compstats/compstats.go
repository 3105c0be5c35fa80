// Package compstats filters and summarizes comparable-sale prices. Everything
// here is pure: identical input always yields identical output, which the
// price-truth cache and the tests both rely on.
package compstats

import (
	"math"
	"sort"
)

const (
	// trimFraction is the share removed from each end of the sorted list
	// when enough observations are present.
	trimFraction = 0.15

	// minAfterTrim is the smallest list percentile trimming may leave.
	minAfterTrim = 3

	// trimThreshold is the sample size above which trimming happens at all.
	trimThreshold = 5

	// iqrMinSamples is the smallest list the IQR filter runs on.
	iqrMinSamples = 4

	// iqrMultiplier widens the quartile range to the Tukey fences.
	iqrMultiplier = 1.5

	// Ratio bounds for the second outlier pass, relative to the
	// intermediate median.
	outlierHighRatio = 2.5
	outlierLowRatio  = 0.4
)

// Result carries every intermediate list plus the summary statistics.
type Result struct {
	Raw          []float64 `json:"raw"`
	Trimmed      []float64 `json:"trimmed"`
	IQRFiltered  []float64 `json:"iqr_filtered"`
	FinalComps   []float64 `json:"final_comps"`
	Intermediate float64   `json:"intermediate_median"`
	Median       float64   `json:"median"`
	CV           float64   `json:"cv"`
	SpreadRatio  float64   `json:"spread_ratio"`
	Low          float64   `json:"low"`
	High         float64   `json:"high"`
}

// Process runs the fixed filtering cascade over observed sale prices:
// percentile trim, IQR fence filter, then a ratio outlier pass against the
// intermediate median. Each step operates on the previous step's output.
// Non-finite and negative inputs are discarded before any step runs.
func Process(prices []float64) Result {
	res := Result{Raw: append([]float64(nil), prices...)}

	working := make([]float64, 0, len(prices))
	for _, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			continue
		}
		working = append(working, p)
	}
	sort.Float64s(working)

	res.Trimmed = percentileTrim(working)
	res.IQRFiltered = iqrFilter(res.Trimmed)
	res.Intermediate = median(res.IQRFiltered)
	res.FinalComps = ratioFilter(res.IQRFiltered, res.Intermediate)

	res.Median = median(res.FinalComps)
	res.CV = coefficientOfVariation(res.FinalComps)
	res.SpreadRatio = spreadRatio(res.FinalComps)
	if n := len(res.FinalComps); n > 0 {
		res.Low = res.FinalComps[0]
		res.High = res.FinalComps[n-1]
	}
	return res
}

// percentileTrim removes the lowest and highest 15% of a sorted list when
// more than trimThreshold values are present. It removes at least one value
// from each end and never leaves fewer than minAfterTrim; if the percentile
// cut would, it falls back to exactly one from each end. The trim is skipped
// when none of the values it would cut is an actual tail outlier: cutting
// values the later filters would keep anyway would shrink clean data on
// every rerun, and the cascade must be a no-op on its own output.
func percentileTrim(sorted []float64) []float64 {
	n := len(sorted)
	if n <= trimThreshold {
		return append([]float64(nil), sorted...)
	}
	k := int(float64(n) * trimFraction)
	if k < 1 {
		k = 1
	}
	if n-2*k < minAfterTrim {
		k = 1
	}
	if !tailOutliers(sorted, k) {
		return append([]float64(nil), sorted...)
	}
	return append([]float64(nil), sorted[k:n-k]...)
}

// tailOutliers reports whether any value the trim would cut falls outside
// the Tukey fences of the retained core, or outside the ratio bounds around
// the core median.
func tailOutliers(sorted []float64, k int) bool {
	core := sorted[k : len(sorted)-k]
	lo, hi := tukeyFences(core)
	med := median(core)

	outlier := func(v float64) bool {
		if v < lo || v > hi {
			return true
		}
		return med > 0 && (v > med*outlierHighRatio || v < med*outlierLowRatio)
	}
	for i := 0; i < k; i++ {
		if outlier(sorted[i]) || outlier(sorted[len(sorted)-1-i]) {
			return true
		}
	}
	return false
}

// iqrFilter drops values outside the Tukey fences Q1-1.5*IQR and Q3+1.5*IQR.
// It is skipped entirely on lists shorter than iqrMinSamples.
func iqrFilter(sorted []float64) []float64 {
	if len(sorted) < iqrMinSamples {
		return append([]float64(nil), sorted...)
	}
	lo, hi := tukeyFences(sorted)

	out := make([]float64, 0, len(sorted))
	for _, v := range sorted {
		if v >= lo && v <= hi {
			out = append(out, v)
		}
	}
	return out
}

// tukeyFences returns the Q1-1.5*IQR and Q3+1.5*IQR bounds of a sorted list.
func tukeyFences(sorted []float64) (lo, hi float64) {
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	return q1 - iqrMultiplier*iqr, q3 + iqrMultiplier*iqr
}

// ratioFilter rejects values further than the fixed ratio bounds from the
// intermediate median. With a non-positive median everything survives.
func ratioFilter(sorted []float64, med float64) []float64 {
	if med <= 0 {
		return append([]float64(nil), sorted...)
	}
	out := make([]float64, 0, len(sorted))
	for _, v := range sorted {
		if v <= med*outlierHighRatio && v >= med*outlierLowRatio {
			out = append(out, v)
		}
	}
	return out
}

// median of a sorted list; 0 when empty.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// quantile interpolates linearly between order statistics of a sorted list.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// coefficientOfVariation is the population standard deviation over the mean.
// Fewer than 2 survivors, or a zero mean, signals maximal uncertainty (1.0).
func coefficientOfVariation(vals []float64) float64 {
	if len(vals) < 2 {
		return 1.0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	if mean == 0 {
		return 1.0
	}
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(len(vals)))
	return sd / mean
}

// spreadRatio is max over min; infinite when fewer than 2 values survive or
// the minimum is not positive.
func spreadRatio(sorted []float64) float64 {
	n := len(sorted)
	if n < 2 || sorted[0] <= 0 {
		return math.Inf(1)
	}
	return sorted[n-1] / sorted[0]
}
