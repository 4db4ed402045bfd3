package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID    ID
	ReportID ID
)

func (id RunID) String() string    { return ID(id).String() }
func (id ReportID) String() string { return ID(id).String() }

// IsEmpty checks if the run ID is empty
func (id RunID) IsEmpty() bool { return id == "" }

// NewReportID creates a time-ordered report identifier
func NewReportID() ReportID { return ReportID(NewID()) }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(strings.TrimSpace(s)), nil
}

// RunType distinguishes the detector readout, which selects the
// beam-interruption detector.
type RunType string

const (
	RunTypePad   RunType = "pad"
	RunTypePixel RunType = "pixel"
)

// ParseRunType parses a string into RunType
func ParseRunType(s string) (RunType, error) {
	switch RunType(strings.ToLower(strings.TrimSpace(s))) {
	case RunTypePad:
		return RunTypePad, nil
	case RunTypePixel:
		return RunTypePixel, nil
	default:
		return "", fmt.Errorf("unknown run type %q (want pad or pixel)", s)
	}
}
