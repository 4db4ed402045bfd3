package interval

import (
	"math"

	"gocuts/ports"
)

// DefaultMergeDistance is the gap in time units below which padded spans are
// merged. Calibrated heuristic.
const DefaultMergeDistance = 10.0

// Margins are the padding applied before and after an interruption, in time units.
type Margins struct {
	Pre  float64
	Post float64
}

// Merger pads raw interruptions in time space, merges close spans and maps
// them back to event indices.
type Merger struct {
	Mapping       ports.TimeMappingPort
	Margins       Margins
	MergeDistance float64
}

// NewMerger creates a merger with the default merge distance.
func NewMerger(mapping ports.TimeMappingPort, margins Margins) *Merger {
	return &Merger{Mapping: mapping, Margins: margins, MergeDistance: DefaultMergeDistance}
}

// Spans pads and merges raw intervals in time relative to the run start.
// Merging happens in time because event rates vary between interruptions.
func (m *Merger) Spans(raw []Interval) []TimeSpan {
	sorted := append([]Interval(nil), raw...)
	Sort(sorted)

	start := m.Mapping.TimeAtEvent(0)
	var spans []TimeSpan
	for _, iv := range sorted {
		tStart := math.Max(0, m.Mapping.TimeAtEvent(iv.Start)-start-m.Margins.Pre)
		tStop := m.Mapping.TimeAtEvent(iv.Stop) - start + m.Margins.Post
		if n := len(spans); n > 0 && tStart <= spans[n-1].Stop+m.MergeDistance {
			spans[n-1].Stop = math.Max(spans[n-1].Stop, tStop)
			continue
		}
		spans = append(spans, TimeSpan{Start: tStart, Stop: tStop})
	}
	return spans
}

// Merge returns the padded, merged ranges as event intervals, sorted and
// non-overlapping. Neighbours whose event times are within MergeDistance
// after mapping back are merged as well, so merging the output again with
// zero margins returns it unchanged.
func (m *Merger) Merge(raw []Interval) []Interval {
	spans := m.Spans(raw)
	out := make([]Interval, 0, len(spans))
	for _, s := range spans {
		iv := New(m.Mapping.EventAtTime(s.Start, true), m.Mapping.EventAtTime(s.Stop, true))
		// a padded edge inside a timestamp gap snaps to the far side of the gap
		if n := len(out); n > 0 && m.close(out[n-1], iv) {
			if iv.Stop > out[n-1].Stop {
				out[n-1].Stop = iv.Stop
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

func (m *Merger) close(prev, next Interval) bool {
	if next.Start <= prev.Stop {
		return true
	}
	return m.Mapping.TimeAtEvent(next.Start) <= m.Mapping.TimeAtEvent(prev.Stop)+m.MergeDistance
}
