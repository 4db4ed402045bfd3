package estimate

import (
	"context"
	"math"
	"sort"

	"gocuts/domain/core"
	"gocuts/internal"
	"gocuts/internal/cache"
	"gocuts/ports"

	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultAngleBins is the histogram resolution of the angle distribution
	DefaultAngleBins  = 100
	angleLowQuantile  = 0.005
	angleHighQuantile = 0.995
)

// AngleEstimator locates the center of the track angle distribution.
// Results are cached per reference run and axis.
type AngleEstimator struct {
	Data   ports.DataAccessPort
	Cache  ports.ComputeCachePort
	Run    core.RunID
	Bins   int
	Logger *internal.Logger
}

// AngleColumn returns slope_<axis> when the run carries it, else angle_<axis>.
func AngleColumn(data ports.DataAccessPort, axis string) string {
	if data.HasColumn("slope_" + axis) {
		return "slope_" + axis
	}
	return "angle_" + axis
}

// Center returns the fitted center of the angle distribution of axis in degrees.
func (e *AngleEstimator) Center(ctx context.Context, axis string) (float64, error) {
	key := cache.Key("TrackAngle", e.Run, axis)
	return cache.Load(ctx, e.Cache, key, func(ctx context.Context) (float64, error) {
		e.Logger.Info("generating angle cut in %s for run %s", axis, e.Run)
		cols, err := e.Data.Extract(ctx, []string{AngleColumn(e.Data, axis)}, nil)
		if err != nil {
			return 0, core.NewDataAccessError("angle extraction", err)
		}
		return AngleCenter(cols[0], e.Bins)
	})
}

// AngleCenter histograms values between their 0.5% and 99.5% quantiles and
// fits the peak.
func AngleCenter(values []float64, bins int) (float64, error) {
	if bins <= 0 {
		bins = DefaultAngleBins
	}
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return 0, core.ErrInsufficientData
	}
	sort.Float64s(sorted)

	lo := stat.Quantile(angleLowQuantile, stat.Empirical, sorted, nil)
	hi := stat.Quantile(angleHighQuantile, stat.Empirical, sorted, nil)
	if hi <= lo {
		return lo, nil
	}
	counts, dividers := Histogram(sorted, lo, hi, bins)
	return FitPeak(counts, dividers), nil
}

// Window returns the open interval center ± halfWidth.
func Window(center, halfWidth float64) (float64, float64) {
	return center - halfWidth, center + halfWidth
}
