package cut

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"gocuts/domain/core"
	"gocuts/domain/predicate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func col(name string) predicate.Col { return predicate.Col(name) }

func newTestRegistry(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	r.Register(New("tracks", predicate.Eq(col("n_tracks"), 1), "only 1 track per event"), 22)
	r.Register(New("event_range", predicate.Between(col("event_number"), 0, 900), "0k - 1k"), 10)
	r.Register(New("beam_interruptions", predicate.Outside(col("event_number"), 300, 400), "1 interruption"), 11)
	r.Register(New("aligned", nil, ""), 12)
	r.Register(New("chi2_x", predicate.And{predicate.Ge(col("chi2_x"), 0), predicate.Lt(col("chi2_x"), 5)}, ""), 72)
	return r
}

func randomRows(n int, seed int64) []predicate.MapRow {
	rng := rand.New(rand.NewSource(seed))
	rows := make([]predicate.MapRow, n)
	for i := range rows {
		rows[i] = predicate.MapRow{
			"event_number": float64(i),
			"n_tracks":     float64(rng.Intn(3)),
			"chi2_x":       rng.Float64() * 10,
		}
	}
	return rows
}

func countPassing(e predicate.Expr, rows []predicate.MapRow) int {
	n := 0
	for _, r := range rows {
		if e.Eval(r) {
			n++
		}
	}
	return n
}

func TestRegisterKeepsLevelOrder(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t, []string{"event_range", "beam_interruptions", "aligned", "tracks", "chi2_x"}, r.Names())

	// overwrite moves the cut to its new level and keeps a single entry
	r.Register(New("tracks", predicate.Ge(col("n_tracks"), 1), "at least one track"), 5)
	assert.Equal(t, []string{"tracks", "event_range", "beam_interruptions", "aligned", "chi2_x"}, r.Names())
	assert.Equal(t, 5, r.Len())

	got, err := r.Lookup("tracks")
	require.NoError(t, err)
	assert.Equal(t, "at least one track", got.Description)
	assert.Equal(t, 5, got.Level)
}

func TestRegisterStableForEqualLevels(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		r.Register(New(fmt.Sprintf("c%d", i), predicate.Flag("f"), ""), 1)
	}
	assert.Equal(t, []string{"c0", "c1", "c2", "c3", "c4"}, r.Names())
}

func TestCombinedConjunctionLaw(t *testing.T) {
	r := newTestRegistry()
	combined := r.Combined()

	for _, row := range randomRows(1000, 3) {
		want := true
		for _, c := range r.Enabled() {
			want = want && c.Value.Eval(row)
		}
		assert.Equal(t, want, combined.Eval(row))
	}
}

func TestCombinedSkipsDisabledAndEmptyMatchesAll(t *testing.T) {
	assert.True(t, NewRegistry().Combined().Eval(predicate.MapRow{}))
	assert.Equal(t, "", NewRegistry().Combined().String())

	r := newTestRegistry()
	assert.NotContains(t, r.Combined().String(), "aligned")
	assert.Len(t, r.Enabled(), 4)
}

func TestGetUnknownCut(t *testing.T) {
	r := newTestRegistry()

	got, err := r.Get("tracks")
	require.NoError(t, err)
	assert.Equal(t, "tracks", got.Name)
	assert.Equal(t, "n_tracks == 1", got.String())

	_, err = r.Get("fiducial")
	assert.True(t, core.IsUnknownCutError(err))
	assert.True(t, core.IsUnknownCutError(r.Reset("fiducial")))
	assert.True(t, core.IsUnknownCutError(r.Set("fiducial", predicate.All{})))
	assert.True(t, core.IsUnknownCutError(r.SetDescription("fiducial", "x")))
}

type recordingWarner struct{ msgs []string }

func (w *recordingWarner) Warn(format string, args ...interface{}) {
	w.msgs = append(w.msgs, fmt.Sprintf(format, args...))
}

func TestLenientMode(t *testing.T) {
	w := &recordingWarner{}
	r := newTestRegistry(WithLenient(w))

	_, err := r.Get("fiducial")
	assert.NoError(t, err)
	assert.NoError(t, r.Reset("fiducial"))
	assert.NoError(t, r.Set("fiducial", predicate.Flag("x")))
	assert.Len(t, w.msgs, 3)
	assert.False(t, r.Has("fiducial"))
}

func TestGenerateCustom(t *testing.T) {
	r := newTestRegistry()

	custom := r.GenerateCustom([]string{"beam_interruptions"}, nil, "")
	assert.Equal(t, "custom", custom.Name)
	assert.NotContains(t, custom.String(), "event_number < 300")
	assert.Equal(t, 3, r.CountCustom([]string{"beam_interruptions"}, nil))

	flux := r.GenerateCustom(nil, []string{"event_range", "beam_interruptions"}, "flux")
	assert.Equal(t, "flux", flux.Name)
	assert.Equal(t,
		"event_number >= 0 && event_number <= 900 && (event_number < 300 || event_number > 400)",
		flux.String())

	// excluded wins over included, disabled cuts never appear
	both := r.GenerateCustom([]string{"event_range"}, []string{"event_range", "aligned"}, "x")
	assert.True(t, predicate.IsEmpty(both))
	assert.Equal(t, 0, r.CountCustom([]string{"event_range"}, []string{"event_range", "aligned"}))
}

func TestConsecutiveNarrows(t *testing.T) {
	r := newTestRegistry()
	steps := r.Consecutive()

	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	assert.Equal(t, []string{RawStep, "event_range", "beam_interruptions", "tracks", "chi2_x"}, names)

	rows := randomRows(2000, 11)
	prev := len(rows)
	for _, s := range steps {
		n := countPassing(s.Expr, rows)
		assert.LessOrEqual(t, n, prev, "step %s widened the selection", s.Name)
		prev = n
	}
	assert.Equal(t, countPassing(r.Combined(), rows), prev)
}

func TestResetAndSet(t *testing.T) {
	r := newTestRegistry()

	require.NoError(t, r.Reset("tracks"))
	assert.Len(t, r.Enabled(), 3)
	assert.True(t, r.Has("tracks"))

	require.NoError(t, r.Set("aligned", predicate.Flag("aligned")))
	assert.True(t, strings.Contains(r.Combined().String(), "aligned"))

	require.NoError(t, r.SetDescription("aligned", "0.5% of the events excluded"))
	got, err := r.Lookup("aligned")
	require.NoError(t, err)
	assert.Equal(t, "0.5% of the events excluded", got.Description)
}

func TestCloneIsIndependent(t *testing.T) {
	r := newTestRegistry()
	cp := r.Clone()

	require.NoError(t, cp.Reset("tracks"))
	assert.Len(t, r.Enabled(), 4)
	assert.Len(t, cp.Enabled(), 3)
}

func TestCutStringLabel(t *testing.T) {
	c := New("beam_interruptions", nil, "")
	c.Level = 11
	assert.Equal(t, "11: beam interruptions cut", c.String())
	assert.False(t, c.Enabled())
}
