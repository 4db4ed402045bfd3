// Package table provides an in-memory columnar run table implementing the
// DataAccess and TimeMapping ports.
package table

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gocuts/domain/core"
	"gocuts/domain/predicate"
	"gocuts/ports"
)

// TimeColumn holds the per-event timestamp in seconds.
const TimeColumn = "time"

// ctxCheckEvery is how many rows are scanned between context checks
const ctxCheckEvery = 1 << 14

// Table is one run's event table, stored column-wise.
type Table struct {
	columns map[string][]float64
	order   []string
	rows    int
}

var (
	_ ports.DataAccessPort  = (*Table)(nil)
	_ ports.TimeMappingPort = (*Table)(nil)
)

// New builds a table from equal-length columns. Column order follows names.
func New(names []string, columns [][]float64) (*Table, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("got %d column names for %d columns", len(names), len(columns))
	}
	t := &Table{columns: make(map[string][]float64, len(names))}
	for i, name := range names {
		if _, dup := t.columns[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		if i == 0 {
			t.rows = len(columns[i])
		} else if len(columns[i]) != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", name, len(columns[i]), t.rows)
		}
		t.columns[name] = columns[i]
		t.order = append(t.order, name)
	}
	if ts, ok := t.columns[TimeColumn]; ok && !sort.Float64sAreSorted(ts) {
		return nil, fmt.Errorf("column %q is not sorted", TimeColumn)
	}
	return t, nil
}

// FromMap builds a table from a name → values map, ordering columns by name.
func FromMap(cols map[string][]float64) (*Table, error) {
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	values := make([][]float64, len(names))
	for i, name := range names {
		values[i] = cols[name]
	}
	return New(names, values)
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.order...)
}

// Column returns the raw values of a column.
func (t *Table) Column(name string) ([]float64, bool) {
	v, ok := t.columns[name]
	return v, ok
}

// TotalRows implements ports.DataAccessPort.
func (t *Table) TotalRows() int { return t.rows }

// HasColumn implements ports.DataAccessPort.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Row is a view of one event of the table.
type Row struct {
	t *Table
	i int
}

// Row returns the view of event i.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Value implements predicate.Row. Unknown columns read as NaN.
func (r Row) Value(column string) float64 {
	col, ok := r.t.columns[column]
	if !ok {
		return math.NaN()
	}
	return col[r.i]
}

func (t *Table) checkColumns(names []string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return fmt.Errorf("%w: %s", core.ErrUnknownColumn, name)
		}
	}
	return nil
}

func (t *Table) bounds(window *ports.Window) (int, int) {
	if window == nil {
		return 0, t.rows
	}
	start := max(0, min(window.Start, t.rows))
	stop := t.rows
	if window.Count > 0 {
		stop = min(t.rows, start+window.Count)
	}
	return start, stop
}

func (t *Table) scan(ctx context.Context, pred predicate.Expr, start, stop int, fn func(i int)) error {
	if pred == nil {
		pred = predicate.All{}
	}
	if err := t.checkColumns(pred.Columns()); err != nil {
		return err
	}
	for i := start; i < stop; i++ {
		if (i-start)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if pred.Eval(Row{t: t, i: i}) {
			fn(i)
		}
	}
	return nil
}

// Count implements ports.DataAccessPort.
func (t *Table) Count(ctx context.Context, pred predicate.Expr, window *ports.Window) (int, error) {
	start, stop := t.bounds(window)
	n := 0
	if err := t.scan(ctx, pred, start, stop, func(int) { n++ }); err != nil {
		return 0, err
	}
	return n, nil
}

// Extract implements ports.DataAccessPort.
func (t *Table) Extract(ctx context.Context, columns []string, pred predicate.Expr) ([][]float64, error) {
	if err := t.checkColumns(columns); err != nil {
		return nil, err
	}
	out := make([][]float64, len(columns))
	err := t.scan(ctx, pred, 0, t.rows, func(i int) {
		for c, name := range columns {
			out[c] = append(out[c], t.columns[name][i])
		}
	})
	if err != nil {
		return nil, err
	}
	for c := range out {
		if out[c] == nil {
			out[c] = []float64{}
		}
	}
	return out, nil
}

func (t *Table) times() []float64 {
	return t.columns[TimeColumn]
}

// TimeAtEvent implements ports.TimeMappingPort. Without a time column the
// event index is the timestamp.
func (t *Table) TimeAtEvent(i int) float64 {
	if t.rows == 0 {
		return 0
	}
	i = max(0, min(i, t.rows-1))
	ts := t.times()
	if ts == nil {
		return float64(i)
	}
	return ts[i]
}

// EventAtTime implements ports.TimeMappingPort.
func (t *Table) EventAtTime(sec float64, relative bool) int {
	if t.rows == 0 {
		return 0
	}
	if relative {
		sec += t.TimeAtEvent(0)
	}
	ts := t.times()
	var i int
	if ts == nil {
		i = int(math.Ceil(sec))
	} else {
		i = sort.SearchFloat64s(ts, sec)
	}
	return max(0, min(i, t.rows-1))
}
