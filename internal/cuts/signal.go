package cuts

import (
	"context"

	"gocuts/internal/detect"
)

// FindSignalDrop returns the last event before the signal in column
// collapses under the combined cut, or nil if it never does.
func (g *Generator) FindSignalDrop(ctx context.Context, column string) (*int, error) {
	s := &detect.SignalDrop{
		Data:    g.data,
		Mapping: g.mapping,
		Cache:   g.cache,
		Run:     g.run,
		Logger:  g.logger,
	}
	return s.Find(ctx, column, g.Combined())
}
