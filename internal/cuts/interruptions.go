package cuts

import (
	"context"
	"fmt"

	"gocuts/domain/interval"
	"gocuts/internal/cache"
	"gocuts/internal/detect"
)

// BeamInterruptions returns the raw interruptions of the run, cached per
// run and run type.
func (g *Generator) BeamInterruptions(ctx context.Context) ([]interval.Interval, error) {
	key := cache.Key("BeamInterruptions", g.run, g.runType)
	return cache.Load(ctx, g.cache, key, func(ctx context.Context) ([]interval.Interval, error) {
		g.logger.Info("searching for beam interruptions of run %s", g.run)
		d, err := detect.NewDetector(g.runType, g.data, g.mapping, g.pad, g.pixel)
		if err != nil {
			return nil, err
		}
		return d.Detect(ctx)
	})
}

// InterruptionRanges returns the interruptions padded with the jump range
// margins and merged, cached per run and jump range.
func (g *Generator) InterruptionRanges(ctx context.Context) ([]interval.Interval, error) {
	j := g.cutConfig.JumpRange
	key := cache.Key("BeamInterruptions/Ranges", g.run, g.runType, fmt.Sprintf("%g_%g", j[0], j[1]))
	return cache.Load(ctx, g.cache, key, func(ctx context.Context) ([]interval.Interval, error) {
		raw, err := g.BeamInterruptions(ctx)
		if err != nil {
			return nil, err
		}
		m := interval.Merger{
			Mapping:       g.mapping,
			Margins:       interval.Margins{Pre: j[0], Post: j[1]},
			MergeDistance: g.mergeDistance,
		}
		return m.Merge(raw), nil
	})
}
