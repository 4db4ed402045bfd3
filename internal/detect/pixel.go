package detect

import (
	"context"
	"math"
	"sort"

	"gocuts/domain/core"
	"gocuts/domain/interval"
	"gocuts/ports"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PixelConfig tunes the event-rate detector. The plateau is the mean of the
// bins ranked PlateauSkip+1 .. PlateauSkip+PlateauCount by height.
type PixelConfig struct {
	BinWidth     float64 `json:"bin_width"` // seconds
	Threshold    float64 `json:"threshold"`
	PlateauSkip  int     `json:"plateau_skip"`
	PlateauCount int     `json:"plateau_count"`
	Column       string  `json:"column"`
}

// DefaultPixelConfig returns the calibrated pixel settings
func DefaultPixelConfig() PixelConfig {
	return PixelConfig{BinWidth: 10, Threshold: 0.4, PlateauSkip: 10, PlateauCount: 10, Column: "time"}
}

// PixelDetector finds interruptions as time bins whose event rate deviates
// from the plateau.
type PixelDetector struct {
	Data    ports.DataAccessPort
	Mapping ports.TimeMappingPort
	Config  PixelConfig
}

// Detect implements Detector.
func (d *PixelDetector) Detect(ctx context.Context) ([]interval.Interval, error) {
	cols, err := d.Data.Extract(ctx, []string{d.Config.Column}, nil)
	if err != nil {
		return nil, core.NewDataAccessError("timestamp extraction", err)
	}
	return PixelInterruptions(cols[0], d.Config, d.Mapping), nil
}

// RateHistogram counts timestamps in full bins of width bw starting at the
// earliest timestamp. A trailing partial bin is dropped unless it is the only one.
// Unsorted input is sorted on a copy.
func RateHistogram(times []float64, bw float64) []float64 {
	if len(times) == 0 || bw <= 0 {
		return nil
	}
	if !sort.Float64sAreSorted(times) {
		times = append([]float64(nil), times...)
		sort.Float64s(times)
	}
	t0 := times[0]
	nbins := int(math.Floor((times[len(times)-1] - t0) / bw))
	if nbins == 0 {
		return []float64{float64(len(times))}
	}
	dividers := make([]float64, nbins+1)
	floats.Span(dividers, t0, t0+float64(nbins)*bw)

	last := sort.SearchFloat64s(times, dividers[nbins])
	return stat.Histogram(nil, dividers, times[:last], nil)
}

// Plateau estimates the nominal bin height. Runs with too few bins fall
// back to the mean of all bins.
func Plateau(counts []float64, skip, count int) float64 {
	sorted := append([]float64(nil), counts...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	sample := sorted
	if len(sorted) >= skip+count && count > 0 {
		sample = sorted[skip : skip+count]
	}
	m, err := stats.Mean(sample)
	if err != nil {
		return 0
	}
	return m
}

// PixelInterruptions flags bins with |1 - v/plateau| > Threshold and maps
// runs of consecutive flagged bins to events through their centers
// relative to the run start.
func PixelInterruptions(times []float64, cfg PixelConfig, mapping ports.TimeMappingPort) []interval.Interval {
	counts := RateHistogram(times, cfg.BinWidth)
	m := Plateau(counts, cfg.PlateauSkip, cfg.PlateauCount)
	if m == 0 {
		return nil
	}

	var bins []int
	for i, v := range counts {
		if math.Abs(1-v/m) > cfg.Threshold {
			bins = append(bins, i)
		}
	}

	center := func(i int) float64 { return (float64(i) + 0.5) * cfg.BinWidth }
	var out []interval.Interval
	for _, g := range group(bins) {
		out = append(out, interval.Interval{
			Start: mapping.EventAtTime(center(g[0]), true),
			Stop:  mapping.EventAtTime(center(g[1]), true),
		})
	}
	return out
}
