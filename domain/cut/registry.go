package cut

import (
	"sort"

	"gocuts/domain/core"
	"gocuts/domain/predicate"
)

// RawStep is the name of the always-true first step of Consecutive.
const RawStep = "raw"

// Warner receives warnings in lenient mode.
type Warner interface {
	Warn(format string, args ...interface{})
}

// Registry keeps CutStrings ordered by level. Registration is not
// synchronized; callers serialize mutation against concurrent reads.
type Registry struct {
	cuts    []*CutString
	byName  map[string]*CutString
	lenient Warner
}

// Option configures a Registry.
type Option func(*Registry)

// WithLenient makes lookups and mutations of unknown names log a warning
// and do nothing instead of returning ErrUnknownCut.
func WithLenient(w Warner) Option {
	return func(r *Registry) { r.lenient = w }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{byName: make(map[string]*CutString)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register inserts or replaces the cut under its name at the given level.
// The last registration wins.
func (r *Registry) Register(c *CutString, level int) {
	c.Level = level
	if old, ok := r.byName[c.Name]; ok {
		for i, existing := range r.cuts {
			if existing == old {
				r.cuts[i] = c
				break
			}
		}
	} else {
		r.cuts = append(r.cuts, c)
	}
	r.byName[c.Name] = c
	sort.SliceStable(r.cuts, func(i, j int) bool { return r.cuts[i].Level < r.cuts[j].Level })
}

// Len returns the number of registered cuts, enabled or not.
func (r *Registry) Len() int { return len(r.cuts) }

// Names returns all cut names in level order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.cuts))
	for i, c := range r.cuts {
		names[i] = c.Name
	}
	return names
}

// Strings returns copies of all cuts in level order.
func (r *Registry) Strings() []CutString {
	out := make([]CutString, len(r.cuts))
	for i, c := range r.cuts {
		out[i] = *c
	}
	return out
}

// Enabled returns copies of the enabled cuts in level order.
func (r *Registry) Enabled() []CutString {
	var out []CutString
	for _, c := range r.cuts {
		if c.Enabled() {
			out = append(out, *c)
		}
	}
	return out
}

// Has reports whether a cut with that name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Lookup returns a copy of the named cut.
func (r *Registry) Lookup(name string) (CutString, error) {
	c, err := r.find(name)
	if err != nil || c == nil {
		return CutString{}, err
	}
	return *c, nil
}

// Combined returns the conjunction of all enabled cuts in level order.
// An empty registry yields a predicate that matches every row.
func (r *Registry) Combined() predicate.Expr {
	return predicate.Named{Name: "AllCuts", Expr: r.conjoin(func(*CutString) bool { return true })}
}

// Get returns the named predicate.
func (r *Registry) Get(name string) (predicate.Named, error) {
	c, err := r.find(name)
	if err != nil || c == nil {
		return predicate.Named{Name: name}, err
	}
	return c.Predicate(), nil
}

// GenerateCustom returns the conjunction of the enabled cuts whose name is
// not in exclude and, when include is non-nil, is in include.
func (r *Registry) GenerateCustom(exclude, include []string, name string) predicate.Named {
	if name == "" {
		name = "custom"
	}
	return predicate.Named{Name: name, Expr: r.conjoin(customFilter(exclude, include))}
}

// CountCustom returns how many enabled cuts GenerateCustom would combine.
func (r *Registry) CountCustom(exclude, include []string) int {
	keep := customFilter(exclude, include)
	n := 0
	for _, c := range r.cuts {
		if c.Enabled() && keep(c) {
			n++
		}
	}
	return n
}

// Step is one entry of a consecutive cut sequence.
type Step struct {
	Name string
	Expr predicate.Expr
}

// Consecutive returns the raw step followed by one step per enabled cut in
// level order, each the conjunction of its predecessor and the cut.
func (r *Registry) Consecutive() []Step {
	steps := []Step{{Name: RawStep, Expr: predicate.All{}}}
	for _, c := range r.cuts {
		if !c.Enabled() {
			continue
		}
		prev := steps[len(steps)-1].Expr
		steps = append(steps, Step{Name: c.Name, Expr: predicate.Conjoin(prev, c.Value)})
	}
	return steps
}

// Reset disables the named cut.
func (r *Registry) Reset(name string) error {
	c, err := r.find(name)
	if err != nil || c == nil {
		return err
	}
	c.Reset()
	return nil
}

// Set replaces the value of the named cut.
func (r *Registry) Set(name string, value predicate.Expr) error {
	c, err := r.find(name)
	if err != nil || c == nil {
		return err
	}
	c.Set(value)
	return nil
}

// SetDescription replaces the description of the named cut.
func (r *Registry) SetDescription(name, description string) error {
	c, err := r.find(name)
	if err != nil || c == nil {
		return err
	}
	c.Description = description
	return nil
}

// Clone returns a deep copy of the registry's entries.
func (r *Registry) Clone() *Registry {
	cp := &Registry{byName: make(map[string]*CutString, len(r.cuts)), lenient: r.lenient}
	for _, c := range r.cuts {
		cc := c.clone()
		cp.cuts = append(cp.cuts, cc)
		cp.byName[cc.Name] = cc
	}
	return cp
}

// find returns (nil, nil) for unknown names in lenient mode.
func (r *Registry) find(name string) (*CutString, error) {
	if c, ok := r.byName[name]; ok {
		return c, nil
	}
	if r.lenient != nil {
		r.lenient.Warn("there is no cut with the name %q", name)
		return nil, nil
	}
	return nil, core.NewUnknownCutError(name)
}

func (r *Registry) conjoin(keep func(*CutString) bool) predicate.Expr {
	var exprs []predicate.Expr
	for _, c := range r.cuts {
		if c.Enabled() && keep(c) {
			exprs = append(exprs, c.Value)
		}
	}
	return predicate.Conjoin(exprs...)
}

func customFilter(exclude, include []string) func(*CutString) bool {
	excluded := toSet(exclude)
	included := toSet(include)
	return func(c *CutString) bool {
		if _, ok := excluded[c.Name]; ok {
			return false
		}
		if include != nil {
			_, ok := included[c.Name]
			return ok
		}
		return true
	}
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
