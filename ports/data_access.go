package ports

import (
	"context"

	"gocuts/domain/predicate"
)

// Window restricts a count to Count rows starting at row Start.
// A zero Count means "to the end".
type Window struct {
	Count int
	Start int
}

// DataAccessPort provides row counting and column extraction over one run's
// event table. Implementations may scan millions of rows per call.
type DataAccessPort interface {
	// Count returns the number of rows matching pred, optionally within a window.
	Count(ctx context.Context, pred predicate.Expr, window *Window) (int, error)

	// Extract returns one slice per column, equal length, in row order,
	// for the rows matching pred.
	Extract(ctx context.Context, columns []string, pred predicate.Expr) ([][]float64, error)

	// TotalRows returns the number of rows in the run.
	TotalRows() int

	// HasColumn reports whether the run carries the named column.
	HasColumn(name string) bool
}

// TimeMappingPort converts between event indices and timestamps.
// Out-of-range inputs clamp to the first or last event.
type TimeMappingPort interface {
	// EventAtTime returns the first event at or after t. With relative set,
	// t is measured from the run's first timestamp.
	EventAtTime(t float64, relative bool) int

	// TimeAtEvent returns the timestamp of event i.
	TimeAtEvent(i int) float64
}
