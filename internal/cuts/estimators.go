package cuts

import (
	"gocuts/domain/core"
	"gocuts/internal/detect"
	"gocuts/internal/estimate"
)

func (g *Generator) chi2Estimator() *estimate.Chi2Estimator {
	return &estimate.Chi2Estimator{Data: g.data, Cache: g.cache, Run: g.run, Logger: g.logger}
}

// angleRun is the run whose angle distribution centers the slope cuts
func (g *Generator) angleRun() core.RunID {
	if !g.lowRateRun.IsEmpty() {
		return g.lowRateRun
	}
	return g.run
}

func (g *Generator) angleEstimator() *estimate.AngleEstimator {
	return &estimate.AngleEstimator{Data: g.data, Cache: g.cache, Run: g.angleRun(), Bins: g.angleBins, Logger: g.logger}
}

func (g *Generator) misalignment() *detect.Misalignment {
	return &detect.Misalignment{Data: g.data, Cache: g.cache, Run: g.run}
}
