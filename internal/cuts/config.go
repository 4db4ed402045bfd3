package cuts

import (
	"math"

	"gocuts/internal/config"
)

// CutConfig holds the resolved cut settings of one run.
type CutConfig struct {
	EventRange [2]int     `json:"event_range"` // resolved event indices
	JumpRange  [2]float64 `json:"jump_range"`  // margins before and after an interruption, seconds
	Chi2X      int        `json:"chi2_x"`      // percentile, 0 when unset
	Chi2Y      int        `json:"chi2_y"`
	Slope      float64    `json:"slope"` // half-width in degrees, 0 disables the slope cuts

	hasEventRange bool
	hasJumpRange  bool
}

// loadConfig reads the CUT section. Absent or malformed options leave the
// dependent cut disabled and log a warning.
func (g *Generator) loadConfig() {
	warn := func(err error) {
		g.logger.Warn("%v: the dependent cut is disabled", err)
	}

	if r, err := config.GetFloatPair(g.conf, config.SectionCut, config.OptionEventRange); err != nil {
		warn(err)
		g.cutConfig.EventRange = g.resolveEventRange(0, 0)
	} else {
		g.cutConfig.EventRange = g.resolveEventRange(r[0], r[1])
		g.cutConfig.hasEventRange = true
	}

	if r, err := config.GetFloatPair(g.conf, config.SectionCut, config.OptionJumpRange); err != nil {
		warn(err)
	} else {
		g.cutConfig.JumpRange = r
		g.cutConfig.hasJumpRange = true
	}

	for _, opt := range []struct {
		name string
		dst  *int
	}{
		{config.OptionChi2X, &g.cutConfig.Chi2X},
		{config.OptionChi2Y, &g.cutConfig.Chi2Y},
	} {
		if v, err := config.GetInt(g.conf, config.SectionCut, opt.name); err != nil {
			warn(err)
		} else {
			*opt.dst = v
		}
	}

	if v, err := config.GetFloat(g.conf, config.SectionCut, config.OptionSlope); err != nil {
		warn(err)
	} else {
		g.cutConfig.Slope = v
	}
}

// resolveEventRange turns configured bounds into event indices. Negative
// values are minutes since the run start; an upper bound of 0 means the
// last event.
func (g *Generator) resolveEventRange(lo, hi float64) [2]int {
	resolve := func(v float64) int {
		if v < 0 {
			return g.mapping.EventAtTime(math.Abs(v)*60, true)
		}
		return int(v)
	}
	r := [2]int{resolve(lo), resolve(hi)}
	if hi == 0 {
		r[1] = g.data.TotalRows()
	}
	return r
}

// Config returns a copy of the current cut settings.
func (g *Generator) Config() CutConfig {
	return g.cutConfig
}

// EventRange returns the first and last event of the analysed range.
func (g *Generator) EventRange() [2]int { return g.cutConfig.EventRange }

// MinEvent returns the first event of the range.
func (g *Generator) MinEvent() int { return g.cutConfig.EventRange[0] }

// MaxEvent returns the last event of the range.
func (g *Generator) MaxEvent() int { return g.cutConfig.EventRange[1] }

// NEvents returns the number of events in the range.
func (g *Generator) NEvents() int { return g.MaxEvent() - g.MinEvent() }
