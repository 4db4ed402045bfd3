// Package predicate implements row predicates as a small expression tree.
// Expressions evaluate locally against a Row and render a readable string
// form for cut tables and logs.
package predicate

import (
	"math"
	"sort"
	"strings"
)

// Row exposes the numeric fields of a single event. Boolean fields read as
// 0 or 1; absent fields read as NaN.
type Row interface {
	Value(column string) float64
}

// MapRow is a Row backed by a map.
type MapRow map[string]float64

func (m MapRow) Value(column string) float64 {
	if v, ok := m[column]; ok {
		return v
	}
	return nan
}

// Expr is a boolean predicate over a Row.
type Expr interface {
	Eval(r Row) bool
	String() string
	Columns() []string
}

// All matches every row. Its string form is empty.
type All struct{}

func (All) Eval(Row) bool     { return true }
func (All) String() string    { return "" }
func (All) Columns() []string { return nil }

// IsEmpty reports whether e is absent or always true.
func IsEmpty(e Expr) bool {
	switch x := e.(type) {
	case nil:
		return true
	case All:
		return true
	case And:
		for _, sub := range x {
			if !IsEmpty(sub) {
				return false
			}
		}
		return true
	case Named:
		return IsEmpty(x.Expr)
	}
	return false
}

// And is the conjunction of its members. An empty And is always true.
type And []Expr

func (a And) Eval(r Row) bool {
	for _, e := range a {
		if e != nil && !e.Eval(r) {
			return false
		}
	}
	return true
}

func (a And) String() string {
	parts := make([]string, 0, len(a))
	for _, e := range a {
		if IsEmpty(e) {
			continue
		}
		s := e.String()
		if or, ok := unwrap(e).(Or); ok && len(or) > 1 {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " && ")
}

func (a And) Columns() []string { return collect([]Expr(a)) }

// Or is the disjunction of its members. An empty Or matches nothing.
type Or []Expr

func (o Or) Eval(r Row) bool {
	for _, e := range o {
		if e != nil && e.Eval(r) {
			return true
		}
	}
	return false
}

func (o Or) String() string {
	parts := make([]string, 0, len(o))
	for _, e := range o {
		s := e.String()
		if and, ok := unwrap(e).(And); ok && len(and) > 1 {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " || ")
}

func (o Or) Columns() []string { return collect([]Expr(o)) }

// Not negates X.
type Not struct {
	X Expr
}

func (n Not) Eval(r Row) bool   { return !n.X.Eval(r) }
func (n Not) String() string    { return "!(" + n.X.String() + ")" }
func (n Not) Columns() []string { return n.X.Columns() }

// Flag is true when the named column is non-zero.
type Flag string

func (f Flag) Eval(r Row) bool {
	v := r.Value(string(f))
	return !math.IsNaN(v) && v != 0
}

func (f Flag) String() string    { return string(f) }
func (f Flag) Columns() []string { return []string{string(f)} }

// Named attaches a cut name to an expression.
type Named struct {
	Name string
	Expr
}

func (n Named) Eval(r Row) bool {
	if n.Expr == nil {
		return true
	}
	return n.Expr.Eval(r)
}

func (n Named) String() string {
	if n.Expr == nil {
		return ""
	}
	return n.Expr.String()
}

func (n Named) Columns() []string {
	if n.Expr == nil {
		return nil
	}
	return n.Expr.Columns()
}

// Conjoin flattens nested conjunctions and drops empty members. It returns
// All when nothing remains and the single member when only one does.
func Conjoin(exprs ...Expr) Expr {
	out := flatten(exprs)
	switch len(out) {
	case 0:
		return All{}
	case 1:
		return out[0]
	}
	return out
}

func flatten(exprs []Expr) And {
	var out And
	for _, e := range exprs {
		if IsEmpty(e) {
			continue
		}
		if and, ok := unwrap(e).(And); ok {
			out = append(out, flatten(and)...)
			continue
		}
		out = append(out, e)
	}
	return out
}

func unwrap(e Expr) Expr {
	if n, ok := e.(Named); ok {
		return unwrap(n.Expr)
	}
	return e
}

func collect(exprs []Expr) []string {
	seen := make(map[string]struct{})
	for _, e := range exprs {
		if e == nil {
			continue
		}
		for _, c := range e.Columns() {
			seen[c] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for c := range seen {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}
