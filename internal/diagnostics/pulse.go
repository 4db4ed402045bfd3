package diagnostics

import (
	"context"
	"math"

	"gocuts/domain/core"
	"gocuts/domain/predicate"
	"gocuts/ports"

	"github.com/montanaflynn/stats"
)

// PulseHeight is the mean and spread of a signal column.
type PulseHeight struct {
	Mean   float64 `json:"mean"`
	Sigma  float64 `json:"sigma"`
	Events int     `json:"events"`
}

// RawPulseHeight returns the mean and standard deviation of column over the
// rows passing pred. NaN entries are skipped.
func RawPulseHeight(ctx context.Context, data ports.DataAccessPort, pred predicate.Expr, column string) (PulseHeight, error) {
	cols, err := data.Extract(ctx, []string{column}, pred)
	if err != nil {
		return PulseHeight{}, core.NewDataAccessError("pulse height extraction", err)
	}

	values := make(stats.Float64Data, 0, len(cols[0]))
	for _, v := range cols[0] {
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return PulseHeight{}, core.ErrInsufficientData
	}

	mean, err := values.Mean()
	if err != nil {
		return PulseHeight{}, err
	}
	sigma, err := values.StandardDeviationPopulation()
	if err != nil {
		return PulseHeight{}, err
	}
	return PulseHeight{Mean: mean, Sigma: sigma, Events: len(values)}, nil
}
