package testkit

import (
	"math"
	"math/rand"

	"gocuts/adapters/table"
	"gocuts/domain/core"
	"gocuts/domain/interval"
)

// RunConfig configures the synthetic run generator
type RunConfig struct {
	Events    int          `json:"events"`
	Rate      float64      `json:"rate"`       // events per second outside interruptions
	StartTime float64      `json:"start_time"` // seconds
	Type      core.RunType `json:"type"`
	Seed      int64        `json:"seed"`

	// Interruptions are event ranges without beam. Pad runs see only pulser
	// triggers there; pixel runs see a gap of GapSeconds before the range start.
	Interruptions []interval.Interval `json:"interruptions"`
	PulserRate    float64             `json:"pulser_rate"`
	GapSeconds    float64             `json:"gap_seconds"`

	// MisalignedFrom marks every event from this index on as misaligned; -1 disables it.
	MisalignedFrom int `json:"misaligned_from"`

	SlopeColumns bool    `json:"slope_columns"` // slope_a instead of angle_a
	AngleCenterX float64 `json:"angle_center_x"`
	AngleCenterY float64 `json:"angle_center_y"`
	AngleSigma   float64 `json:"angle_sigma"`

	Signal       float64 `json:"signal"`
	SignalDropAt int     `json:"signal_drop_at"` // -1 disables the drop
}

// DefaultRunConfig returns a clean pad run of 20k events at 100 Hz
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Events:         20000,
		Rate:           100,
		StartTime:      1000,
		Type:           core.RunTypePad,
		Seed:           42,
		PulserRate:     0.05,
		GapSeconds:     60,
		MisalignedFrom: -1,
		AngleCenterX:   0.2,
		AngleCenterY:   -0.1,
		AngleSigma:     0.5,
		Signal:         100,
		SignalDropAt:   -1,
	}
}

// RunGenerator produces a reproducible event table for one run
type RunGenerator struct {
	config RunConfig
	rng    *rand.Rand
}

// NewRunGenerator creates a new run generator
func NewRunGenerator(config RunConfig) *RunGenerator {
	return &RunGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

func (g *RunGenerator) interrupted(i int) bool {
	for _, iv := range g.config.Interruptions {
		if i >= iv.Start && i <= iv.Stop {
			return true
		}
	}
	return false
}

func (g *RunGenerator) gapBefore(i int) bool {
	for _, iv := range g.config.Interruptions {
		if i == iv.Start {
			return true
		}
	}
	return false
}

// Columns generates the raw columns of the run
func (g *RunGenerator) Columns() map[string][]float64 {
	c := g.config
	n := c.Events
	cols := map[string][]float64{
		"event_number":   make([]float64, n),
		table.TimeColumn: make([]float64, n),
		"pulser":         make([]float64, n),
		"n_tracks":       make([]float64, n),
		"chi2_x":         make([]float64, n),
		"chi2_y":         make([]float64, n),
		"aligned":        make([]float64, n),
		"signal":         make([]float64, n),
	}
	angle := "angle"
	if c.SlopeColumns {
		angle = "slope"
	}
	ax := make([]float64, n)
	ay := make([]float64, n)
	cols[angle+"_x"] = ax
	cols[angle+"_y"] = ay

	t := c.StartTime
	for i := 0; i < n; i++ {
		if c.Type == core.RunTypePixel && g.gapBefore(i) {
			t += c.GapSeconds
		}
		cols["event_number"][i] = float64(i)
		cols[table.TimeColumn][i] = t
		t += 1 / c.Rate

		pulser := g.rng.Float64() < c.PulserRate
		if c.Type == core.RunTypePad && g.interrupted(i) {
			pulser = true
		}
		if pulser {
			cols["pulser"][i] = 1
		}

		tracks := 1.0
		switch r := g.rng.Float64(); {
		case r < 0.1:
			tracks = 0
		case r < 0.15:
			tracks = 2
		}
		cols["n_tracks"][i] = tracks
		cols["chi2_x"][i] = g.chi2(tracks)
		cols["chi2_y"][i] = g.chi2(tracks)

		ax[i] = c.AngleCenterX + g.rng.NormFloat64()*c.AngleSigma
		ay[i] = c.AngleCenterY + g.rng.NormFloat64()*c.AngleSigma

		cols["aligned"][i] = 1
		if c.MisalignedFrom >= 0 && i >= c.MisalignedFrom {
			cols["aligned"][i] = 0
		}

		signal := c.Signal + g.rng.NormFloat64()*c.Signal*0.1
		if c.SignalDropAt >= 0 && i >= c.SignalDropAt {
			signal *= 0.05
		}
		cols["signal"][i] = signal
	}
	return cols
}

// chi2 draws a chi-square with two degrees of freedom; events without a
// track carry the -1 sentinel
func (g *RunGenerator) chi2(tracks float64) float64 {
	if tracks == 0 {
		return -1
	}
	return -2 * math.Log(1-g.rng.Float64())
}

// Table generates the run as an in-memory table
func (g *RunGenerator) Table() (*table.Table, error) {
	return table.FromMap(g.Columns())
}

// NewRun builds a table for config or fails
func NewRun(config RunConfig) *table.Table {
	t, err := NewRunGenerator(config).Table()
	if err != nil {
		panic(err)
	}
	return t
}
