package detect

import (
	"context"
	"testing"

	"gocuts/domain/core"
	"gocuts/domain/interval"
	"gocuts/internal/cache"
	"gocuts/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadInterruptionsExample(t *testing.T) {
	pulser := make([]float64, 1000)
	for i := 300; i < 500; i++ {
		pulser[i] = 1
	}

	got := PadInterruptions(pulser, DefaultPadConfig())
	assert.Equal(t, []interval.Interval{{Start: 350, Stop: 450}}, got)
}

func TestPadInterruptionsSeparateGroups(t *testing.T) {
	pulser := make([]float64, 2000)
	for _, r := range [][2]int{{100, 200}, {1500, 1800}} {
		for i := r[0]; i < r[1]; i++ {
			pulser[i] = 1
		}
	}

	got := PadInterruptions(pulser, DefaultPadConfig())
	assert.Equal(t, []interval.Interval{{Start: 150, Stop: 150}, {Start: 1550, Stop: 1750}}, got)
}

func TestPadPartialLastBin(t *testing.T) {
	// 1030 rows: the last bin holds 30 rows, all pulser
	pulser := make([]float64, 1030)
	for i := 1000; i < 1030; i++ {
		pulser[i] = 1
	}
	got := PadInterruptions(pulser, DefaultPadConfig())
	assert.Equal(t, []interval.Interval{{Start: 1029, Stop: 1029}}, got)

	assert.Empty(t, PadInterruptions(nil, DefaultPadConfig()))
}

func TestPadDetectorOnSyntheticRun(t *testing.T) {
	cfg := testkit.DefaultRunConfig()
	cfg.Interruptions = []interval.Interval{{Start: 5000, Stop: 5999}}
	run := testkit.NewRun(cfg)

	d, err := NewDetector(core.RunTypePad, run, run, DefaultPadConfig(), DefaultPixelConfig())
	require.NoError(t, err)

	got, err := d.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []interval.Interval{{Start: 5050, Stop: 5950}}, got)
}

func TestPixelDetectorOnSyntheticRun(t *testing.T) {
	cfg := testkit.DefaultRunConfig()
	cfg.Type = core.RunTypePixel
	cfg.Interruptions = []interval.Interval{{Start: 8000, Stop: 8000}}
	run := testkit.NewRun(cfg)

	d, err := NewDetector(core.RunTypePixel, run, run, DefaultPadConfig(), DefaultPixelConfig())
	require.NoError(t, err)

	got, err := d.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []interval.Interval{{Start: 8000, Stop: 8000}}, got)
}

func TestUnknownRunType(t *testing.T) {
	_, err := NewDetector("strip", nil, nil, DefaultPadConfig(), DefaultPixelConfig())
	assert.Error(t, err)
}

func TestRateHistogramAndPlateau(t *testing.T) {
	times := []float64{0, 1, 2, 10, 11, 25, 29}
	assert.Equal(t, []float64{3, 2}, RateHistogram(times, 10))
	assert.Equal(t, []float64{2}, RateHistogram([]float64{5, 6}, 10))
	assert.Nil(t, RateHistogram(nil, 10))

	shuffled := []float64{11, 0, 29, 2, 25, 10, 1}
	assert.Equal(t, []float64{3, 2}, RateHistogram(shuffled, 10))
	assert.Equal(t, []float64{11, 0, 29, 2, 25, 10, 1}, shuffled, "input must not be reordered")
	assert.Equal(t, []float64{2}, RateHistogram([]float64{6, 5}, 10))

	counts := make([]float64, 30)
	for i := range counts {
		counts[i] = float64(i)
	}
	// ranks 11..20 by height are 19 down to 10
	assert.Equal(t, 14.5, Plateau(counts, 10, 10))
	assert.Equal(t, 2.0, Plateau([]float64{1, 2, 3}, 10, 10))
	assert.Equal(t, 0.0, Plateau(nil, 10, 10))
}

func TestGroup(t *testing.T) {
	assert.Equal(t, [][2]int{{1, 3}, {5, 5}, {7, 8}}, group([]int{1, 2, 3, 5, 7, 8}))
	assert.Empty(t, group(nil))
}

func TestMisalignment(t *testing.T) {
	ctx := context.Background()
	cfg := testkit.DefaultRunConfig()
	cfg.MisalignedFrom = 19900
	run := testkit.NewRun(cfg)

	m := &Misalignment{Data: run, Cache: cache.NewMemory(), Run: "7"}
	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, n)

	clean := &Misalignment{Data: testkit.NewRun(testkit.DefaultRunConfig()), Cache: cache.NewMemory(), Run: "8"}
	n, err = clean.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDropBin(t *testing.T) {
	profile := []float64{0, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 95, 50, 12, 0, 10}
	i, ok := DropBin(profile)
	assert.True(t, ok)
	assert.Equal(t, 14, i)

	_, ok = DropBin([]float64{0, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 0.5})
	assert.False(t, ok, "reference below 10")

	_, ok = DropBin([]float64{0, 0})
	assert.False(t, ok)
}

func TestSignalDropOnSyntheticRun(t *testing.T) {
	ctx := context.Background()
	cfg := testkit.DefaultRunConfig()
	cfg.Rate = 10
	cfg.SignalDropAt = 15000
	run := testkit.NewRun(cfg)

	store := cache.NewMemory()
	s := &SignalDrop{Data: run, Mapping: run, Cache: store, Run: "9"}

	event, err := s.Find(ctx, "signal", nil)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.InDelta(t, 14550, *event, 1)
	assert.Equal(t, []string{"Cuts/EventMax/9/signal"}, store.Keys())

	steady := testkit.DefaultRunConfig()
	steady.Rate = 10
	flat := testkit.NewRun(steady)
	none, err := (&SignalDrop{Data: flat, Mapping: flat, Cache: cache.NewMemory(), Run: "10"}).Find(ctx, "signal", nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}
