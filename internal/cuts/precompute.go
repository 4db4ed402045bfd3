package cuts

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// precomputeLimit bounds concurrent estimator work
const precomputeLimit = 4

// Precompute fills the cache with every derived quantity of the run:
// chi-square tables, angle centers, beam interruptions and misalignment.
func (g *Generator) Precompute(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(precomputeLimit)

	for _, axis := range []string{"x", "y"} {
		eg.Go(func() error {
			_, err := g.chi2Estimator().Table(ctx, axis)
			return err
		})
		if g.cutConfig.Slope > 0 {
			eg.Go(func() error {
				_, err := g.angleEstimator().Center(ctx, axis)
				return err
			})
		}
	}
	eg.Go(func() error {
		_, err := g.BeamInterruptions(ctx)
		return err
	})
	eg.Go(func() error {
		_, err := g.misalignment().Count(ctx)
		return err
	})
	return eg.Wait()
}
