package predicate

import (
	"fmt"
	"math"
	"strconv"
)

var nan = math.NaN()

// Op is a comparison operator.
type Op string

const (
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
	OpEq Op = "=="
	OpNe Op = "!="
)

// Term is a numeric quantity derived from a Row.
type Term interface {
	Value(r Row) float64
	String() string
	Columns() []string
}

// Col reads a column directly.
type Col string

func (c Col) Value(r Row) float64 { return r.Value(string(c)) }
func (c Col) String() string      { return string(c) }
func (c Col) Columns() []string   { return []string{string(c)} }

// Distance is the path length through a sensor of the given thickness for
// a track with angles slope_x and slope_y in degrees.
type Distance struct {
	Thickness float64
}

func (d Distance) Value(r Row) float64 {
	sx := math.Sin(r.Value("slope_x") * math.Pi / 180)
	sy := math.Sin(r.Value("slope_y") * math.Pi / 180)
	return d.Thickness * math.Sqrt(sx*sx+sy*sy+1)
}

func (d Distance) String() string {
	return fmt.Sprintf("%s*sqrt(sin(slope_x)^2 + sin(slope_y)^2 + 1)", formatFloat(d.Thickness))
}

func (d Distance) Columns() []string { return []string{"slope_x", "slope_y"} }

// Cmp compares a term against a constant.
type Cmp struct {
	Term  Term
	Op    Op
	Value float64
}

func (c Cmp) Eval(r Row) bool {
	v := c.Term.Value(r)
	switch c.Op {
	case OpLt:
		return v < c.Value
	case OpLe:
		return v <= c.Value
	case OpGt:
		return v > c.Value
	case OpGe:
		return v >= c.Value
	case OpEq:
		return v == c.Value
	case OpNe:
		return v != c.Value
	}
	return false
}

func (c Cmp) String() string {
	return c.Term.String() + " " + string(c.Op) + " " + formatFloat(c.Value)
}

func (c Cmp) Columns() []string { return c.Term.Columns() }

func Lt(t Term, v float64) Cmp { return Cmp{Term: t, Op: OpLt, Value: v} }
func Le(t Term, v float64) Cmp { return Cmp{Term: t, Op: OpLe, Value: v} }
func Gt(t Term, v float64) Cmp { return Cmp{Term: t, Op: OpGt, Value: v} }
func Ge(t Term, v float64) Cmp { return Cmp{Term: t, Op: OpGe, Value: v} }
func Eq(t Term, v float64) Cmp { return Cmp{Term: t, Op: OpEq, Value: v} }
func Ne(t Term, v float64) Cmp { return Cmp{Term: t, Op: OpNe, Value: v} }

// Between is lo <= t <= hi.
func Between(t Term, lo, hi float64) Expr {
	return And{Ge(t, lo), Le(t, hi)}
}

// Outside is t < lo || t > hi.
func Outside(t Term, lo, hi float64) Expr {
	return Or{Lt(t, lo), Gt(t, hi)}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
