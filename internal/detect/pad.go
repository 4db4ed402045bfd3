package detect

import (
	"context"

	"gocuts/domain/core"
	"gocuts/domain/interval"
	"gocuts/ports"

	"github.com/montanaflynn/stats"
)

// PadConfig tunes the pulser-rate detector
type PadConfig struct {
	BinWidth     int     `json:"bin_width"`     // events per bin
	MaxThreshold float64 `json:"max_threshold"` // upper bound of the rate threshold
	Offset       float64 `json:"offset"`        // added to the mean rate
	Column       string  `json:"column"`
}

// DefaultPadConfig returns the calibrated pad settings
func DefaultPadConfig() PadConfig {
	return PadConfig{BinWidth: 100, MaxThreshold: 0.6, Offset: 0.2, Column: "pulser"}
}

// PadDetector finds interruptions as bins where pulser triggers dominate.
type PadDetector struct {
	Data   ports.DataAccessPort
	Config PadConfig
}

// Detect implements Detector.
func (d *PadDetector) Detect(ctx context.Context) ([]interval.Interval, error) {
	cols, err := d.Data.Extract(ctx, []string{d.Config.Column}, nil)
	if err != nil {
		return nil, core.NewDataAccessError("pulser extraction", err)
	}
	return PadInterruptions(cols[0], d.Config), nil
}

// PadInterruptions rates the pulser flags in bins of BinWidth events. The
// last bin is rated over its real size. Bins whose rate is strictly above
// min(MaxThreshold, mean rate + Offset) are interrupted; consecutive ones
// form one interruption spanning their bin centers.
func PadInterruptions(pulser []float64, cfg PadConfig) []interval.Interval {
	n := len(pulser)
	bw := cfg.BinWidth
	if n == 0 || bw <= 0 {
		return nil
	}

	nbins := (n + bw - 1) / bw
	rates := make([]float64, nbins)
	for b := range rates {
		start, stop := b*bw, min(n, (b+1)*bw)
		hits := 0
		for _, v := range pulser[start:stop] {
			if v != 0 {
				hits++
			}
		}
		rates[b] = float64(hits) / float64(stop-start)
	}

	mean, _ := stats.Mean(rates)
	threshold := min(cfg.MaxThreshold, mean+cfg.Offset)

	var bins []int
	for b, r := range rates {
		if r > threshold {
			bins = append(bins, b)
		}
	}

	center := func(b int) int { return min(n-1, b*bw+bw/2) }
	var out []interval.Interval
	for _, g := range group(bins) {
		out = append(out, interval.Interval{Start: center(g[0]), Stop: center(g[1])})
	}
	return out
}
