package estimate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Histogram bins sorted values between lo and hi into n equal bins.
// Values outside [lo, hi) are dropped. It returns the counts and the n+1 dividers.
func Histogram(sorted []float64, lo, hi float64, n int) ([]float64, []float64) {
	dividers := make([]float64, n+1)
	floats.Span(dividers, lo, hi)

	first := sort.SearchFloat64s(sorted, lo)
	last := sort.SearchFloat64s(sorted, hi)
	return stat.Histogram(nil, dividers, sorted[first:last], nil), dividers
}

// fwhmRegion returns the bins around the peak holding at least half its height
func fwhmRegion(counts []float64) (peak, left, right int) {
	peak = floats.MaxIdx(counts)
	half := counts[peak] / 2
	left, right = peak, peak
	for left > 0 && counts[left-1] >= half {
		left--
	}
	for right < len(counts)-1 && counts[right+1] >= half {
		right++
	}
	return peak, left, right
}

// gaussian is a scaled normal density
func gaussian(amp, mu, sigma, x float64) float64 {
	return amp * distuv.Normal{Mu: mu, Sigma: sigma}.Prob(x)
}

// FitPeak fits a gaussian to the full-width-half-max region of a histogram
// and returns its mean. When the region is too narrow to fit, or the fit
// fails or leaves the region, the center of the peak bin is returned.
func FitPeak(counts, dividers []float64) float64 {
	peak, left, right := fwhmRegion(counts)
	center := func(i int) float64 { return (dividers[i] + dividers[i+1]) / 2 }
	fallback := center(peak)
	if right-left < 2 {
		return fallback
	}

	xs := make([]float64, 0, right-left+1)
	ys := make([]float64, 0, right-left+1)
	for i := left; i <= right; i++ {
		xs = append(xs, center(i))
		ys = append(ys, counts[i])
	}

	sigma0 := (xs[len(xs)-1] - xs[0]) / 2.355
	amp0 := counts[peak] * sigma0 * math.Sqrt(2*math.Pi)
	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			if p[2] <= 0 {
				return math.Inf(1)
			}
			var sum float64
			for i, x := range xs {
				d := ys[i] - gaussian(p[0], p[1], p[2], x)
				sum += d * d
			}
			return sum
		},
	}

	result, err := optimize.Minimize(problem, []float64{amp0, fallback, sigma0}, nil, &optimize.NelderMead{})
	if err != nil || result == nil {
		return fallback
	}
	mu := result.X[1]
	if math.IsNaN(mu) || mu < dividers[left] || mu > dividers[right+1] {
		return fallback
	}
	return mu
}
