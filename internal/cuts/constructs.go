package cuts

import (
	"context"

	"gocuts/domain/predicate"
)

// DefaultThickness is the detector thickness of the distance cut in µm.
const DefaultThickness = 500

// GenerateTimeWindow selects the events lo..hi inclusive.
func (g *Generator) GenerateTimeWindow(lo, hi int) predicate.Named {
	return predicate.Named{Name: "time_window", Expr: predicate.Between(eventNumber, float64(lo), float64(hi))}
}

// GenerateFlux combines only the event range and beam interruption cuts.
func (g *Generator) GenerateFlux() predicate.Named {
	return g.GenerateCustom(nil, []string{CutEventRange, CutBeamInterruptions}, "flux")
}

// GenerateDistance selects tracks whose path length through a detector of
// the given thickness lies in (dmin, dmax]. A non-positive thickness uses
// DefaultThickness.
func (g *Generator) GenerateDistance(dmin, dmax, thickness float64) predicate.Named {
	if thickness <= 0 {
		thickness = DefaultThickness
	}
	d := predicate.Distance{Thickness: thickness}
	return predicate.Named{Name: "distance", Expr: predicate.And{predicate.Gt(d, dmin), predicate.Le(d, dmax)}}
}

// GenerateJumpCut excludes the raw interruptions without margins. Each
// interruption is clipped to the start of the event range; those ending
// before it are dropped.
func (g *Generator) GenerateJumpCut(ctx context.Context) (predicate.Named, error) {
	raw, err := g.BeamInterruptions(ctx)
	if err != nil {
		return predicate.Named{}, err
	}

	start := g.MinEvent()
	var value predicate.And
	for _, iv := range raw {
		if iv.Stop <= start {
			continue
		}
		low := max(start, iv.Start)
		value = append(value, predicate.Not{X: predicate.And{
			predicate.Le(eventNumber, float64(iv.Stop)),
			predicate.Ge(eventNumber, float64(low)),
		}})
	}
	return predicate.Named{Name: "jump", Expr: value}, nil
}
