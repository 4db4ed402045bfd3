package detect

import (
	"context"
	"math"

	"gocuts/domain/core"
	"gocuts/domain/predicate"
	"gocuts/internal"
	"gocuts/internal/cache"
	"gocuts/ports"

	"github.com/montanaflynn/stats"
)

const (
	// DefaultDropBinWidth is the profile bin width in seconds
	DefaultDropBinWidth = 30
	dropFraction        = 0.2
	minReferenceSignal  = 10
)

// SignalDrop looks for the point where the signal of a run collapses.
type SignalDrop struct {
	Data     ports.DataAccessPort
	Mapping  ports.TimeMappingPort
	Cache    ports.ComputeCachePort
	Run      core.RunID
	BinWidth float64
	Logger   *internal.Logger
}

// Find profiles column over time for the rows passing pred and returns the
// last event before the drop, or nil when the signal never drops.
func (s *SignalDrop) Find(ctx context.Context, column string, pred predicate.Expr) (*int, error) {
	bw := s.BinWidth
	if bw <= 0 {
		bw = DefaultDropBinWidth
	}
	key := cache.Key("Cuts/EventMax", s.Run, column)
	return cache.Load(ctx, s.Cache, key, func(ctx context.Context) (*int, error) {
		s.Logger.Info("looking for signal drops of run %s", s.Run)
		cols, err := s.Data.Extract(ctx, []string{"time", column}, pred)
		if err != nil {
			return nil, core.NewDataAccessError("signal extraction", err)
		}
		t0 := s.Mapping.TimeAtEvent(0)
		span := s.Mapping.TimeAtEvent(s.Data.TotalRows()-1) - t0
		profile := Profile(cols[0], cols[1], t0, span, bw)
		i, ok := DropBin(profile)
		if !ok {
			return nil, nil
		}
		event := s.Mapping.EventAtTime((float64(i-2)+0.5)*bw, true)
		return &event, nil
	})
}

// Profile returns the mean of values per time bin of width bw over
// [t0, t0+span]. Empty bins are zero.
func Profile(times, values []float64, t0, span, bw float64) []float64 {
	nbins := max(1, int(math.Ceil(span/bw)))
	sums := make([]float64, nbins)
	counts := make([]float64, nbins)
	for i, t := range times {
		b := int((t - t0) / bw)
		if b < 0 || b > nbins || math.IsNaN(values[i]) {
			continue
		}
		b = min(b, nbins-1)
		sums[b] += values[i]
		counts[b]++
	}
	for b := range sums {
		if counts[b] > 0 {
			sums[b] /= counts[b]
		}
	}
	return sums
}

// DropBin returns the first non-empty bin below 20% of the reference
// level. The reference is the mean of the first tenth of the bins after
// the first non-empty one; a reference below 10 never drops.
func DropBin(profile []float64) (int, bool) {
	first := -1
	for i, v := range profile {
		if v != 0 {
			first = i
			break
		}
	}
	if first < 0 {
		return 0, false
	}
	start := first + 1
	stop := (len(profile) + 9*start) / 10
	if stop <= start {
		return 0, false
	}
	ph, err := stats.Mean(profile[start:stop])
	if err != nil || ph < minReferenceSignal {
		return 0, false
	}
	for i := start; i < len(profile); i++ {
		if v := profile[i]; v != 0 && v < dropFraction*ph {
			return i, true
		}
	}
	return 0, false
}
