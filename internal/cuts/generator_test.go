package cuts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gocuts/adapters/table"
	"gocuts/domain/core"
	"gocuts/domain/interval"
	"gocuts/domain/predicate"
	"gocuts/internal"
	"gocuts/internal/cache"
	"gocuts/internal/config"
	"gocuts/internal/estimate"
	"gocuts/internal/testkit"
	"gocuts/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fullOptions() map[string]string {
	return map[string]string{
		config.OptionEventRange: "[0, 0]",
		config.OptionJumpRange:  "[20, 20]",
		config.OptionChi2X:      "90",
		config.OptionChi2Y:      "90",
		config.OptionSlope:      "1",
	}
}

func analysisConfig(options map[string]string) *config.Analysis {
	return config.NewAnalysis(map[string]map[string]string{config.SectionCut: options}).WithoutEnv()
}

func interruptedRun() *table.Table {
	cfg := testkit.DefaultRunConfig()
	cfg.Interruptions = []interval.Interval{{Start: 5000, Stop: 5999}}
	cfg.MisalignedFrom = 19900
	return testkit.NewRun(cfg)
}

type fixture struct {
	run   *table.Table
	cache *cache.Memory
	gen   *Generator
}

func newFixture(t *testing.T, run *table.Table, options map[string]string, opts ...Option) fixture {
	t.Helper()
	store := cache.NewMemory()
	opts = append([]Option{WithRun("392"), WithLogger(internal.Discard)}, opts...)
	gen, err := New(context.Background(), run, run, store, analysisConfig(options), opts...)
	require.NoError(t, err)
	return fixture{run: run, cache: store, gen: gen}
}

func enabledNames(g *Generator) []string {
	var names []string
	for _, c := range g.Registry().Enabled() {
		names = append(names, c.Name)
	}
	return names
}

func TestNewRegistersFixedCuts(t *testing.T) {
	f := newFixture(t, interruptedRun(), fullOptions())

	want := []string{CutEventRange, CutBeamInterruptions, CutAligned, CutTracks, CutChi2X, CutChi2Y, CutSlopeX, CutSlopeY}
	assert.Equal(t, want, f.gen.Registry().Names())
	assert.Equal(t, want, enabledNames(f.gen))

	assert.Equal(t, [2]int{0, 20000}, f.gen.EventRange())
	assert.Equal(t, 20000, f.gen.NEvents())

	tracks, err := f.gen.Registry().Lookup(CutTracks)
	require.NoError(t, err)
	assert.Equal(t, "only 1 track per event", tracks.Description)
	assert.Equal(t, 22, tracks.Level)

	aligned, err := f.gen.Registry().Lookup(CutAligned)
	require.NoError(t, err)
	assert.Equal(t, "0.5% of the events excluded", aligned.Description)

	event, err := f.gen.Registry().Lookup(CutEventRange)
	require.NoError(t, err)
	assert.Equal(t, "0k - 20k", event.Description)
}

func TestInterruptionRanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, interruptedRun(), fullOptions())

	raw, err := f.gen.BeamInterruptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []interval.Interval{{Start: 5050, Stop: 5950}}, raw)

	// 20 s margins at 100 events per second
	ranges, err := f.gen.InterruptionRanges(ctx)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.InDelta(t, 3050, ranges[0].Start, 1)
	assert.InDelta(t, 7950, ranges[0].Stop, 1)

	beam, err := f.gen.Get(CutBeamInterruptions)
	require.NoError(t, err)
	assert.Contains(t, beam.String(), "event_number < ")

	lookup, err := f.gen.Registry().Lookup(CutBeamInterruptions)
	require.NoError(t, err)
	assert.Contains(t, lookup.Description, "1 (24.")
}

func TestSetChi2MatchesPercentile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, interruptedRun(), fullOptions())

	require.NoError(t, f.gen.SetChi2(ctx, 50))
	got, err := f.gen.Get(CutChi2X)
	require.NoError(t, err)

	cols, err := f.run.Extract(ctx, []string{"chi2_x"}, predicate.Gt(predicate.Col("n_tracks"), 0))
	require.NoError(t, err)
	q, err := estimate.NewQuantileTable(cols[0])
	require.NoError(t, err)

	want := predicate.And{predicate.Ge(predicate.Col("chi2_x"), 0), predicate.Lt(predicate.Col("chi2_x"), q[49])}
	assert.Equal(t, want, got.Expr)
	assert.Equal(t, 50, f.gen.Config().Chi2Y)

	require.NoError(t, f.gen.SetChi2(ctx, 100))
	disabled, err := f.gen.Registry().Lookup(CutChi2Y)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled())

	assert.ErrorIs(t, f.gen.SetChi2(ctx, 0), core.ErrInvalidQuantile)
	assert.ErrorIs(t, f.gen.SetChi2(ctx, 101), core.ErrInvalidQuantile)
}

func TestInvalidConfiguredQuantileFails(t *testing.T) {
	options := fullOptions()
	options[config.OptionChi2X] = "150"
	_, err := New(context.Background(), interruptedRun(), interruptedRun(), cache.NewMemory(), analysisConfig(options), WithLogger(internal.Discard))
	assert.ErrorIs(t, err, core.ErrInvalidQuantile)
}

func TestCustomExcludesBeamInterruptions(t *testing.T) {
	f := newFixture(t, interruptedRun(), fullOptions())

	custom := f.gen.GenerateCustom([]string{CutBeamInterruptions}, nil, "")
	assert.Equal(t, "custom", custom.Name)
	assert.NotContains(t, custom.String(), "||")
	assert.Contains(t, custom.String(), "n_tracks == 1")

	flux := f.gen.GenerateFlux()
	assert.Equal(t, "flux", flux.Name)
	assert.Contains(t, flux.String(), "||")
	assert.NotContains(t, flux.String(), "n_tracks")
}

func TestMissingConfigDisablesCuts(t *testing.T) {
	f := newFixture(t, testkit.NewRun(testkit.DefaultRunConfig()), map[string]string{
		config.OptionEventRange: "[0, 10000]",
		config.OptionChi2X:      "ninety",
	})

	assert.Len(t, f.gen.Registry().Names(), 8)
	assert.Equal(t, []string{CutEventRange, CutTracks}, enabledNames(f.gen))
	assert.Equal(t, []string{"Cuts/align/392"}, f.cache.Keys())
}

func TestMissingEventRangeKeepsFullRange(t *testing.T) {
	f := newFixture(t, testkit.NewRun(testkit.DefaultRunConfig()), map[string]string{})

	assert.Equal(t, [2]int{0, 20000}, f.gen.EventRange())
	assert.Equal(t, []string{CutTracks}, enabledNames(f.gen))
}

func TestSetEventRangeMinutes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, interruptedRun(), fullOptions())

	require.NoError(t, f.gen.SetEventRange(ctx, -1, 10000))
	assert.InDelta(t, 6000, f.gen.MinEvent(), 1)
	assert.Equal(t, 10000, f.gen.MaxEvent())

	event, err := f.gen.Registry().Lookup(CutEventRange)
	require.NoError(t, err)
	assert.Equal(t, "6k - 10k", event.Description)
}

func TestGenerateJumpCut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, interruptedRun(), fullOptions())

	jump, err := f.gen.GenerateJumpCut(ctx)
	require.NoError(t, err)
	assert.Equal(t, "!(event_number <= 5950 && event_number >= 5050)", jump.String())

	require.NoError(t, f.gen.SetEventRange(ctx, 5500, 0))
	jump, err = f.gen.GenerateJumpCut(ctx)
	require.NoError(t, err)
	assert.Equal(t, "!(event_number <= 5950 && event_number >= 5500)", jump.String())

	require.NoError(t, f.gen.SetEventRange(ctx, 6000, 0))
	jump, err = f.gen.GenerateJumpCut(ctx)
	require.NoError(t, err)
	assert.True(t, predicate.IsEmpty(jump))
}

func TestOnDemandConstructs(t *testing.T) {
	f := newFixture(t, interruptedRun(), fullOptions())

	window := f.gen.GenerateTimeWindow(10, 20)
	assert.True(t, window.Eval(predicate.MapRow{EventColumn: 10}))
	assert.False(t, window.Eval(predicate.MapRow{EventColumn: 21}))

	distance := f.gen.GenerateDistance(500, 510, 0)
	assert.Equal(t,
		"500*sqrt(sin(slope_x)^2 + sin(slope_y)^2 + 1) > 500 && 500*sqrt(sin(slope_x)^2 + sin(slope_y)^2 + 1) <= 510",
		distance.String())
	assert.False(t, distance.Eval(predicate.MapRow{"slope_x": 0, "slope_y": 0}))
	assert.True(t, distance.Eval(predicate.MapRow{"slope_x": 10, "slope_y": 0}))
}

func TestSetHighLowRateRunUsesLowRateAngles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, interruptedRun(), fullOptions())

	require.NoError(t, f.gen.SetHighLowRateRun(ctx, "400", "390"))
	high, low := f.gen.HighLowRateRun()
	assert.Equal(t, core.RunID("400"), high)
	assert.Equal(t, core.RunID("390"), low)
	assert.Contains(t, f.cache.Keys(), "TrackAngle/390/x")
	assert.Contains(t, f.cache.Keys(), "TrackAngle/390/y")

	slope, err := f.gen.Registry().Lookup(CutSlopeX)
	require.NoError(t, err)
	assert.Contains(t, slope.Description, "< tracking angle in x <")
}

func TestSlopeUsesSlopeColumn(t *testing.T) {
	cfg := testkit.DefaultRunConfig()
	cfg.SlopeColumns = true
	f := newFixture(t, testkit.NewRun(cfg), fullOptions())

	slope, err := f.gen.Get(CutSlopeY)
	require.NoError(t, err)
	assert.Equal(t, []string{"slope_y"}, slope.Columns())

	lo := slope.Expr.(predicate.And)[0].(predicate.Cmp).Value
	hi := slope.Expr.(predicate.And)[1].(predicate.Cmp).Value
	assert.InDelta(t, cfg.AngleCenterY, (lo+hi)/2, 0.05)
	assert.InDelta(t, 2, hi-lo, 1e-9)
}

func TestSlopeZeroDisables(t *testing.T) {
	options := fullOptions()
	options[config.OptionSlope] = "0"
	f := newFixture(t, interruptedRun(), options)

	assert.NotContains(t, enabledNames(f.gen), CutSlopeX)
	assert.NotContains(t, f.cache.Keys(), "TrackAngle/392/x")
}

func TestPixelRun(t *testing.T) {
	cfg := testkit.DefaultRunConfig()
	cfg.Type = core.RunTypePixel
	cfg.Interruptions = []interval.Interval{{Start: 8000, Stop: 8000}}
	f := newFixture(t, testkit.NewRun(cfg), fullOptions(), WithRunType(core.RunTypePixel))

	raw, err := f.gen.BeamInterruptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []interval.Interval{{Start: 8000, Stop: 8000}}, raw)
	assert.Contains(t, f.cache.Keys(), "BeamInterruptions/392/pixel")
}

func TestConsecutiveNonIncreasing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, interruptedRun(), fullOptions())

	prev := f.run.TotalRows()
	for _, step := range f.gen.Consecutive() {
		n, err := f.run.Count(ctx, step.Expr, nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, n, prev, step.Name)
		prev = n
	}

	all, err := f.run.Count(ctx, f.gen.Combined(), nil)
	require.NoError(t, err)
	assert.Equal(t, prev, all)
}

func TestResetUpdateAndLenient(t *testing.T) {
	f := newFixture(t, interruptedRun(), fullOptions())

	require.NoError(t, f.gen.Reset(CutTracks))
	assert.NotContains(t, enabledNames(f.gen), CutTracks)
	require.NoError(t, f.gen.Update(CutTracks, predicate.Ge(predicate.Col("n_tracks"), 1)))
	assert.Contains(t, enabledNames(f.gen), CutTracks)

	_, err := f.gen.Get("fiducial")
	assert.True(t, core.IsUnknownCutError(err))

	lenient := newFixture(t, interruptedRun(), fullOptions(), WithLenient(true))
	_, err = lenient.gen.Get("fiducial")
	assert.NoError(t, err)
	assert.NoError(t, lenient.gen.Reset("fiducial"))
}

func TestRegenerationKeepsManualChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, interruptedRun(), fullOptions())

	require.NoError(t, f.gen.Reset(CutTracks))
	before := f.gen.Registry()
	require.NoError(t, f.gen.SetChi2(ctx, 80))

	assert.NotSame(t, before, f.gen.Registry())
	assert.NotContains(t, enabledNames(f.gen), CutTracks)
}

func TestPrecompute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, interruptedRun(), fullOptions())
	for _, k := range f.cache.Keys() {
		require.NoError(t, f.cache.Invalidate(ctx, k))
	}

	require.NoError(t, f.gen.Precompute(ctx))
	assert.Equal(t, []string{
		"BeamInterruptions/392/pad",
		"Chi2/392/x",
		"Chi2/392/y",
		"Cuts/align/392",
		"TrackAngle/392/x",
		"TrackAngle/392/y",
	}, f.cache.Keys())
}

func TestFindSignalDrop(t *testing.T) {
	cfg := testkit.DefaultRunConfig()
	cfg.Rate = 10
	cfg.SignalDropAt = 15000
	f := newFixture(t, testkit.NewRun(cfg), map[string]string{config.OptionEventRange: "[0, 0]"})

	event, err := f.gen.FindSignalDrop(context.Background(), "signal")
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.InDelta(t, 14550, *event, 1)
}

// failingCache fails every lookup whose key starts with prefix once armed.
type failingCache struct {
	*cache.Memory
	prefix string
	armed  bool
}

func (c *failingCache) GetOrCompute(ctx context.Context, key string, compute ports.ComputeFunc) ([]byte, error) {
	if c.armed && strings.HasPrefix(key, c.prefix) {
		return nil, errors.New("cache backend unavailable")
	}
	return c.Memory.GetOrCompute(ctx, key, compute)
}

func TestFailedSetterKeepsConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		set    func(ctx context.Context, g *Generator) error
		cut    string
	}{
		{"chi2", "Chi2/", func(ctx context.Context, g *Generator) error { return g.SetChi2(ctx, 50) }, CutChi2X},
		{"rate runs", "TrackAngle/", func(ctx context.Context, g *Generator) error { return g.SetHighLowRateRun(ctx, "400", "390") }, CutSlopeX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			run := interruptedRun()
			store := &failingCache{Memory: cache.NewMemory(), prefix: tt.prefix}
			gen, err := New(ctx, run, run, store, analysisConfig(fullOptions()), WithRun("392"), WithLogger(internal.Discard))
			require.NoError(t, err)

			before, err := gen.Registry().Lookup(tt.cut)
			require.NoError(t, err)
			conf := gen.Config()

			store.armed = true
			require.Error(t, tt.set(ctx, gen))

			after, err := gen.Registry().Lookup(tt.cut)
			require.NoError(t, err)
			assert.Equal(t, before.Description, after.Description)
			assert.Equal(t, conf, gen.Config())
			high, low := gen.HighLowRateRun()
			assert.True(t, high.IsEmpty())
			assert.True(t, low.IsEmpty())
			assert.Equal(t, 90, gen.Config().Chi2X)
		})
	}
}

type mockData struct {
	mock.Mock
}

func (m *mockData) Count(ctx context.Context, pred predicate.Expr, w *ports.Window) (int, error) {
	args := m.Called(ctx, pred, w)
	return args.Int(0), args.Error(1)
}

func (m *mockData) Extract(ctx context.Context, columns []string, pred predicate.Expr) ([][]float64, error) {
	args := m.Called(ctx, columns, pred)
	cols, _ := args.Get(0).([][]float64)
	return cols, args.Error(1)
}

func (m *mockData) TotalRows() int { return m.Called().Int(0) }

func (m *mockData) HasColumn(name string) bool { return m.Called(name).Bool(0) }

func TestDataAccessFailurePropagates(t *testing.T) {
	data := &mockData{}
	data.On("TotalRows").Return(1000)
	data.On("HasColumn", mock.Anything).Return(true)
	data.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("tree unreadable"))

	mapping := testkit.NewRun(testkit.DefaultRunConfig())
	_, err := New(context.Background(), data, mapping, cache.NewMemory(), analysisConfig(fullOptions()), WithLogger(internal.Discard))
	require.Error(t, err)
	assert.True(t, core.IsDataAccessError(err))
	assert.Contains(t, err.Error(), "tree unreadable")
}
