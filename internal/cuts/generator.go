// Package cuts generates the standard event selection of a run and derives
// the data-dependent cuts from it.
package cuts

import (
	"context"
	"time"

	"gocuts/domain/core"
	"gocuts/domain/cut"
	"gocuts/domain/interval"
	"gocuts/domain/predicate"
	"gocuts/internal"
	"gocuts/internal/config"
	"gocuts/internal/detect"
	"gocuts/internal/estimate"
	"gocuts/ports"
)

// Names of the fixed cuts.
const (
	CutEventRange        = "event_range"
	CutBeamInterruptions = "beam_interruptions"
	CutAligned           = "aligned"
	CutTracks            = "tracks"
	CutChi2X             = "chi2_x"
	CutChi2Y             = "chi2_y"
	CutSlopeX            = "slope_x"
	CutSlopeY            = "slope_y"
)

// EventColumn holds the event index of every row.
const EventColumn = "event_number"

// Generator owns the cut registry of one run and the configuration the
// data-dependent cuts are derived from. It is not safe for concurrent
// mutation.
type Generator struct {
	data    ports.DataAccessPort
	mapping ports.TimeMappingPort
	cache   ports.ComputeCachePort
	conf    ports.ConfigurationPort
	logger  *internal.Logger

	run         core.RunID
	runType     core.RunType
	lenient     bool
	lowRateRun  core.RunID
	highRateRun core.RunID

	pad           detect.PadConfig
	pixel         detect.PixelConfig
	mergeDistance float64
	angleBins     int

	cutConfig CutConfig
	registry  *cut.Registry
}

// Option configures a Generator.
type Option func(*Generator)

// WithRun sets the run identifier used in cache keys.
func WithRun(run core.RunID) Option {
	return func(g *Generator) { g.run = run }
}

// WithRunType selects the beam interruption detector.
func WithRunType(t core.RunType) Option {
	return func(g *Generator) { g.runType = t }
}

// WithLogger sets the logger.
func WithLogger(l *internal.Logger) Option {
	return func(g *Generator) { g.logger = l.With("cuts") }
}

// WithLenient makes unknown cut names log a warning instead of failing.
func WithLenient(lenient bool) Option {
	return func(g *Generator) { g.lenient = lenient }
}

// WithPadConfig overrides the pad interruption detector settings.
func WithPadConfig(c detect.PadConfig) Option {
	return func(g *Generator) { g.pad = c }
}

// WithPixelConfig overrides the pixel interruption detector settings.
func WithPixelConfig(c detect.PixelConfig) Option {
	return func(g *Generator) { g.pixel = c }
}

// WithMergeDistance sets how close, in seconds, two padded interruptions
// may be before they merge.
func WithMergeDistance(d float64) Option {
	return func(g *Generator) { g.mergeDistance = d }
}

// WithAngleBins sets the histogram resolution of the angle fit.
func WithAngleBins(n int) Option {
	return func(g *Generator) { g.angleBins = n }
}

// New loads the cut configuration and generates the fixed cuts. Missing
// configuration disables the dependent cut; data access failures are returned.
func New(ctx context.Context, data ports.DataAccessPort, mapping ports.TimeMappingPort, cache ports.ComputeCachePort, conf ports.ConfigurationPort, opts ...Option) (*Generator, error) {
	g := &Generator{
		data:          data,
		mapping:       mapping,
		cache:         cache,
		conf:          conf,
		logger:        internal.DefaultLogger.With("cuts"),
		run:           "0",
		runType:       core.RunTypePad,
		pad:           detect.DefaultPadConfig(),
		pixel:         detect.DefaultPixelConfig(),
		mergeDistance: interval.DefaultMergeDistance,
		angleBins:     estimate.DefaultAngleBins,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.conf == nil {
		g.conf = config.NewAnalysis(nil).WithoutEnv()
	}

	g.loadConfig()
	if err := g.generate(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// builder creates one fixed cut
type builder struct {
	name  string
	level int
	build func(ctx context.Context) (*cut.CutString, error)
}

func (g *Generator) builders() []builder {
	return []builder{
		{CutEventRange, 10, func(context.Context) (*cut.CutString, error) { return g.generateEventRange(), nil }},
		{CutBeamInterruptions, 11, g.generateBeamInterruptions},
		{CutAligned, 12, g.generateAligned},
		{CutTracks, 22, func(context.Context) (*cut.CutString, error) { return generateTracks(), nil }},
		{CutChi2X, 72, func(ctx context.Context) (*cut.CutString, error) { return g.generateChi2(ctx, "x") }},
		{CutChi2Y, 73, func(ctx context.Context) (*cut.CutString, error) { return g.generateChi2(ctx, "y") }},
		{CutSlopeX, 74, func(ctx context.Context) (*cut.CutString, error) { return g.generateSlope(ctx, "x") }},
		{CutSlopeY, 75, func(ctx context.Context) (*cut.CutString, error) { return g.generateSlope(ctx, "y") }},
	}
}

func (g *Generator) newRegistry() *cut.Registry {
	if g.lenient {
		return cut.NewRegistry(cut.WithLenient(g.logger))
	}
	return cut.NewRegistry()
}

// generate builds all fixed cuts into a fresh registry and publishes it.
func (g *Generator) generate(ctx context.Context) error {
	return g.regenerate(ctx, g.newRegistry(), nil)
}

// regenerate rebuilds the named fixed cuts, all of them for nil names, on
// top of base and publishes the result.
func (g *Generator) regenerate(ctx context.Context, base *cut.Registry, names []string) error {
	start := time.Now()
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	built := 0
	for _, b := range g.builders() {
		if names != nil && !want[b.name] {
			continue
		}
		c, err := b.build(ctx)
		if err != nil {
			return err
		}
		base.Register(c, b.level)
		built++
	}

	g.registry = base
	generationDuration.WithLabelValues(string(g.runType)).Observe(time.Since(start).Seconds())
	g.logger.Debug("generated %d cuts for run %s in %v", built, g.run, time.Since(start))
	return nil
}

// Registry returns the current registry.
func (g *Generator) Registry() *cut.Registry { return g.registry }

// Combined returns the conjunction of all enabled cuts.
func (g *Generator) Combined() predicate.Expr { return g.registry.Combined() }

// Get returns the named cut predicate.
func (g *Generator) Get(name string) (predicate.Named, error) { return g.registry.Get(name) }

// GenerateCustom combines the enabled cuts not in exclude and, for a non-nil
// include, in include.
func (g *Generator) GenerateCustom(exclude, include []string, name string) predicate.Named {
	custom := g.registry.GenerateCustom(exclude, include, name)
	g.logger.Info("generated %s cut with %d cuts", custom.Name, g.registry.CountCustom(exclude, include))
	return custom
}

// Consecutive returns the accumulating cut steps in level order.
func (g *Generator) Consecutive() []cut.Step { return g.registry.Consecutive() }

// Reset disables the named cut.
func (g *Generator) Reset(name string) error { return g.registry.Reset(name) }

// Update replaces the value of the named cut.
func (g *Generator) Update(name string, value predicate.Expr) error {
	return g.registry.Set(name, value)
}

// SetHighLowRateRun sets the reference runs of a rate scan. The slope cuts
// are regenerated with the angle distribution of the low rate run.
//
// The angle center is cached under the low rate run. On a cache miss it is
// computed from this generator's data, so the low rate run should be
// precomputed first or the entry holds this run's distribution.
func (g *Generator) SetHighLowRateRun(ctx context.Context, high, low core.RunID) error {
	return g.apply(ctx, []string{CutSlopeX, CutSlopeY}, func() {
		g.highRateRun = high
		g.lowRateRun = low
	})
}

// HighLowRateRun returns the reference runs set with SetHighLowRateRun.
func (g *Generator) HighLowRateRun() (high, low core.RunID) {
	return g.highRateRun, g.lowRateRun
}

// SetChi2 sets the chi-square percentile of both axes and regenerates the
// chi-square cuts.
func (g *Generator) SetChi2(ctx context.Context, percentile int) error {
	if err := estimate.ValidatePercentile(percentile); err != nil {
		return err
	}
	return g.apply(ctx, []string{CutChi2X, CutChi2Y}, func() {
		g.cutConfig.Chi2X = percentile
		g.cutConfig.Chi2Y = percentile
	})
}

// SetEventRange resolves a new event range and regenerates its cut.
// Negative bounds are minutes, an upper bound of 0 is the last event.
func (g *Generator) SetEventRange(ctx context.Context, lo, hi float64) error {
	resolved := g.resolveEventRange(lo, hi)
	return g.apply(ctx, []string{CutEventRange}, func() {
		g.cutConfig.EventRange = resolved
		g.cutConfig.hasEventRange = true
	})
}

// apply changes the generator settings and regenerates the named cuts. The
// settings are rolled back when regeneration fails, leaving the published
// registry and the configuration consistent.
func (g *Generator) apply(ctx context.Context, names []string, change func()) error {
	conf, high, low := g.cutConfig, g.highRateRun, g.lowRateRun
	change()
	if err := g.regenerate(ctx, g.registry.Clone(), names); err != nil {
		g.cutConfig, g.highRateRun, g.lowRateRun = conf, high, low
		return err
	}
	return nil
}
