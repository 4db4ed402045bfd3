package cuts

import (
	"context"
	"fmt"

	"gocuts/domain/cut"
	"gocuts/domain/interval"
	"gocuts/domain/predicate"
	"gocuts/internal/estimate"
)

var eventNumber = predicate.Col(EventColumn)

func generateTracks() *cut.CutString {
	return cut.New(CutTracks, predicate.Eq(predicate.Col("n_tracks"), 1), "only 1 track per event")
}

func (g *Generator) generateEventRange() *cut.CutString {
	r := g.cutConfig.EventRange
	description := fmt.Sprintf("%.0fk - %.0fk", float64(r[0])/1000, float64(r[1])/1000)
	if !g.cutConfig.hasEventRange {
		return cut.New(CutEventRange, nil, description)
	}
	return cut.New(CutEventRange, predicate.Between(eventNumber, float64(r[0]), float64(r[1])), description)
}

func (g *Generator) generateBeamInterruptions(ctx context.Context) (*cut.CutString, error) {
	if !g.cutConfig.hasJumpRange {
		return cut.New(CutBeamInterruptions, nil, ""), nil
	}
	ranges, err := g.InterruptionRanges(ctx)
	if err != nil {
		return nil, err
	}

	value := make(predicate.And, 0, len(ranges))
	for _, r := range ranges {
		value = append(value, predicate.Outside(eventNumber, float64(r.Start), float64(r.Stop)))
	}
	excluded := 0.0
	if n := g.data.TotalRows(); n > 0 {
		excluded = 100 * float64(interval.TotalLen(ranges)) / float64(n)
	}
	description := fmt.Sprintf("%d (%.1f%% of the events excluded)", len(ranges), excluded)
	return cut.New(CutBeamInterruptions, value, description), nil
}

func (g *Generator) generateAligned(ctx context.Context) (*cut.CutString, error) {
	n, err := g.misalignment().Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return cut.New(CutAligned, nil, ""), nil
	}
	description := fmt.Sprintf("%.1f%% of the events excluded", 100*float64(n)/float64(g.data.TotalRows()))
	return cut.New(CutAligned, predicate.Flag("aligned"), description), nil
}

func (g *Generator) chi2Percentile(axis string) int {
	if axis == "x" {
		return g.cutConfig.Chi2X
	}
	return g.cutConfig.Chi2Y
}

func (g *Generator) generateChi2(ctx context.Context, axis string) (*cut.CutString, error) {
	name := "chi2_" + axis
	p := g.chi2Percentile(axis)
	if p == 0 {
		return cut.New(name, nil, ""), nil
	}
	threshold, err := g.chi2Estimator().Threshold(ctx, axis, p)
	if err != nil {
		return nil, err
	}
	if threshold == nil {
		return cut.New(name, nil, fmt.Sprintf("chi2 in %s (%d%% quantile)", axis, p)), nil
	}

	column := predicate.Col(estimate.Chi2Column(axis))
	value := predicate.And{predicate.Ge(column, 0), predicate.Lt(column, *threshold)}
	description := fmt.Sprintf("chi2 in %s < %.1f (%d%% quantile)", axis, *threshold, p)
	return cut.New(name, value, description), nil
}

func (g *Generator) generateSlope(ctx context.Context, axis string) (*cut.CutString, error) {
	name := "slope_" + axis
	if g.cutConfig.Slope <= 0 {
		return cut.New(name, nil, ""), nil
	}
	center, err := g.angleEstimator().Center(ctx, axis)
	if err != nil {
		return nil, err
	}

	lo, hi := estimate.Window(center, g.cutConfig.Slope)
	column := predicate.Col(estimate.AngleColumn(g.data, axis))
	value := predicate.And{predicate.Gt(column, lo), predicate.Lt(column, hi)}
	description := fmt.Sprintf("%.1f < tracking angle in %s < %.1f [degrees]", lo, axis, hi)
	return cut.New(name, value, description), nil
}
