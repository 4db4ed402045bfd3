// Package estimate derives cut thresholds from the data of a run.
package estimate

import (
	"context"
	"math"
	"sort"

	"gocuts/domain/core"
	"gocuts/domain/predicate"
	"gocuts/internal"
	"gocuts/internal/cache"
	"gocuts/ports"

	"gonum.org/v1/gonum/stat"
)

// QuantileTable holds the 1% .. 100% quantiles of a distribution,
// q[i] being the (i+1)% quantile.
type QuantileTable []float64

// NewQuantileTable builds the table from the non-negative values.
func NewQuantileTable(values []float64) (QuantileTable, error) {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= 0 && !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return nil, core.ErrInsufficientData
	}
	sort.Float64s(sorted)

	q := make(QuantileTable, 100)
	for i := range q {
		q[i] = stat.Quantile(float64(i+1)/100, stat.LinInterp, sorted, nil)
	}
	return q, nil
}

// ValidatePercentile rejects percentiles outside (0, 100].
func ValidatePercentile(p int) error {
	if p <= 0 || p > 100 {
		return core.NewInvalidQuantileError(p)
	}
	return nil
}

// Threshold returns the p% quantile. p = 100 means no threshold and yields nil.
func (q QuantileTable) Threshold(p int) (*float64, error) {
	if err := ValidatePercentile(p); err != nil {
		return nil, err
	}
	if p == 100 {
		return nil, nil
	}
	if len(q) < p {
		return nil, core.ErrInsufficientData
	}
	v := q[p-1]
	return &v, nil
}

// Chi2Estimator computes chi-square thresholds per axis for one run. The
// quantile table is cached once per (run, axis).
type Chi2Estimator struct {
	Data   ports.DataAccessPort
	Cache  ports.ComputeCachePort
	Run    core.RunID
	Logger *internal.Logger
}

// Chi2Column returns the chi-square column of an axis.
func Chi2Column(axis string) string { return "chi2_" + axis }

// Table returns the cached quantile table of axis.
func (e *Chi2Estimator) Table(ctx context.Context, axis string) (QuantileTable, error) {
	key := cache.Key("Chi2", e.Run, axis)
	return cache.Load(ctx, e.Cache, key, func(ctx context.Context) (QuantileTable, error) {
		e.Logger.Info("calculating chi2 cut in %s for run %s", axis, e.Run)
		cols, err := e.Data.Extract(ctx, []string{Chi2Column(axis)}, predicate.Gt(predicate.Col("n_tracks"), 0))
		if err != nil {
			return nil, core.NewDataAccessError("chi2 extraction", err)
		}
		return NewQuantileTable(cols[0])
	})
}

// Threshold returns the p% chi-square quantile of axis, nil for p = 100.
func (e *Chi2Estimator) Threshold(ctx context.Context, axis string, p int) (*float64, error) {
	if err := ValidatePercentile(p); err != nil {
		return nil, err
	}
	q, err := e.Table(ctx, axis)
	if err != nil {
		return nil, err
	}
	return q.Threshold(p)
}
