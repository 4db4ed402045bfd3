// Package cut holds named, leveled event-selection predicates and the
// registry that combines them.
package cut

import (
	"fmt"
	"strings"

	"gocuts/domain/predicate"
)

// CutString is a named predicate with a display level and description.
// A CutString whose value is empty is disabled.
type CutString struct {
	Name        string
	Value       predicate.Expr
	Level       int
	Description string
}

// New creates a CutString at level 1.
func New(name string, value predicate.Expr, description string) *CutString {
	return &CutString{Name: name, Value: value, Level: 1, Description: description}
}

// Enabled reports whether the cut takes part in combinations.
func (c *CutString) Enabled() bool {
	return !predicate.IsEmpty(c.Value)
}

// Predicate returns the value tagged with the cut's name.
func (c *CutString) Predicate() predicate.Named {
	return predicate.Named{Name: c.Name, Expr: c.Value}
}

// Reset disables the cut.
func (c *CutString) Reset() {
	c.Value = nil
}

// Set replaces the cut's value.
func (c *CutString) Set(value predicate.Expr) {
	c.Value = value
}

// String returns a short label such as "22: tracks cut".
func (c *CutString) String() string {
	return fmt.Sprintf("%2d: %s cut", c.Level, strings.ReplaceAll(c.Name, "_", " "))
}

func (c *CutString) clone() *CutString {
	cp := *c
	return &cp
}
