package detect

import (
	"context"

	"gocuts/domain/core"
	"gocuts/domain/predicate"
	"gocuts/internal/cache"
	"gocuts/ports"
)

// AlignedColumn flags events whose telescope and DUT data are aligned.
const AlignedColumn = "aligned"

// Misalignment counts misaligned events of a run, cached per run.
type Misalignment struct {
	Data  ports.DataAccessPort
	Cache ports.ComputeCachePort
	Run   core.RunID
}

// Count returns the number of rows with aligned == 0. Runs without the
// aligned column have none.
func (m *Misalignment) Count(ctx context.Context) (int, error) {
	if !m.Data.HasColumn(AlignedColumn) {
		return 0, nil
	}
	return cache.Load(ctx, m.Cache, cache.Key("Cuts/align", m.Run), func(ctx context.Context) (int, error) {
		n, err := m.Data.Count(ctx, predicate.Eq(predicate.Col(AlignedColumn), 0), nil)
		if err != nil {
			return 0, core.NewDataAccessError("misalignment count", err)
		}
		return n, nil
	})
}
