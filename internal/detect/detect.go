// Package detect finds beam interruptions, misaligned events and signal
// drops in the data of a run.
package detect

import (
	"context"
	"fmt"

	"gocuts/domain/core"
	"gocuts/domain/interval"
	"gocuts/ports"
)

// Detector finds the raw beam interruptions of a run.
type Detector interface {
	Detect(ctx context.Context) ([]interval.Interval, error)
}

// NewDetector selects the interruption detector for the run type.
func NewDetector(runType core.RunType, data ports.DataAccessPort, mapping ports.TimeMappingPort, pad PadConfig, pixel PixelConfig) (Detector, error) {
	switch runType {
	case core.RunTypePad:
		return &PadDetector{Data: data, Config: pad}, nil
	case core.RunTypePixel:
		return &PixelDetector{Data: data, Mapping: mapping, Config: pixel}, nil
	default:
		return nil, fmt.Errorf("no interruption detector for run type %q", runType)
	}
}

// group splits sorted bin indices into runs of consecutive bins and returns
// the first and last index of each run.
func group(bins []int) [][2]int {
	var groups [][2]int
	for _, b := range bins {
		if n := len(groups); n > 0 && groups[n-1][1] == b-1 {
			groups[n-1][1] = b
			continue
		}
		groups = append(groups, [2]int{b, b})
	}
	return groups
}
