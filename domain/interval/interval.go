// Package interval holds event-index intervals and the merger that pads and
// combines detected beam interruptions.
package interval

import (
	"fmt"
	"sort"
)

// Interval is a closed event-index range [Start, Stop].
type Interval struct {
	Start int `json:"start"`
	Stop  int `json:"stop"`
}

// New returns the interval spanning a and b in either order.
func New(a, b int) Interval {
	if a > b {
		a, b = b, a
	}
	return Interval{Start: a, Stop: b}
}

// Len returns the number of events spanned, counting Stop - Start.
func (iv Interval) Len() int { return iv.Stop - iv.Start }

func (iv Interval) String() string { return fmt.Sprintf("[%d, %d]", iv.Start, iv.Stop) }

// Sort orders intervals by start, then stop.
func Sort(ivs []Interval) {
	sort.Slice(ivs, func(i, j int) bool {
		if ivs[i].Start != ivs[j].Start {
			return ivs[i].Start < ivs[j].Start
		}
		return ivs[i].Stop < ivs[j].Stop
	})
}

// TotalLen sums Len over ivs.
func TotalLen(ivs []Interval) int {
	n := 0
	for _, iv := range ivs {
		n += iv.Len()
	}
	return n
}

// Disjoint reports whether ivs is sorted and free of overlaps.
func Disjoint(ivs []Interval) bool {
	for i := 1; i < len(ivs); i++ {
		if ivs[i].Start <= ivs[i-1].Stop {
			return false
		}
	}
	return true
}

// TimeSpan is a closed range in time relative to the run start.
type TimeSpan struct {
	Start float64 `json:"start"`
	Stop  float64 `json:"stop"`
}
