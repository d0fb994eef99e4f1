package formula

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/semiframes/pkg/family"
)

// Witness is the value an existential quantifier settled on.
type Witness struct {
	Point  int    // 1-based; set when the quantifier ranges over points
	Open   uint32 // set when the quantifier ranges over opens
	IsOpen bool
}

// Format renders w over {1..n}.
func (w Witness) Format(n int) string {
	if w.IsOpen {
		return family.RenderSet(w.Open, n)
	}
	return strconv.Itoa(w.Point)
}

// Result is the outcome of checking a formula. Witnesses maps each
// existentially bound variable on the satisfying path to its value.
type Result struct {
	Satisfied bool
	Witnesses map[string]Witness
}

// Checker evaluates formulas against one family over {1..n}. Quantifiers
// over opens range over the members of the family exactly as given, so the
// caller passes the completed family when the empty set should count.
//
// A Checker caches the antipode table used by K and is not safe for
// concurrent use.
type Checker struct {
	n    int
	fam  family.Family
	anti map[uint32]uint32
}

// NewChecker returns a checker for f over {1..n}.
func NewChecker(n int, f family.Family) *Checker {
	return &Checker{n: n, fam: f}
}

// Check evaluates f with no free variables bound.
func (c *Checker) Check(f Formula) Result {
	return c.eval(f, nil)
}

// binding is one frame of the variable environment; lookups walk towards
// the root so inner quantifiers shadow outer ones.
type binding struct {
	name  string
	point int
	open  uint32
	up    *binding
}

func (b *binding) lookup(name string) (*binding, bool) {
	for ; b != nil; b = b.up {
		if b.name == name {
			return b, true
		}
	}
	return nil, false
}

func (c *Checker) eval(f Formula, env *binding) Result {
	switch f := f.(type) {
	case In, Inter, Nonempty:
		return Result{Satisfied: c.atom(f, env)}

	case Not:
		r := c.eval(f.Body, env)
		return Result{Satisfied: !r.Satisfied}

	case And:
		left := c.eval(f.Left, env)
		if !left.Satisfied {
			return left
		}
		right := c.eval(f.Right, env)
		if !right.Satisfied {
			return right
		}
		return Result{Satisfied: true, Witnesses: merge(left.Witnesses, right.Witnesses)}

	case Or:
		if left := c.eval(f.Left, env); left.Satisfied {
			return left
		}
		return c.eval(f.Right, env)

	case Implies:
		if left := c.eval(f.Left, env); !left.Satisfied {
			return Result{Satisfied: true}
		}
		return c.eval(f.Right, env)

	case Quantified:
		return c.quantified(f, env)
	}
	panic(fmt.Sprintf("formula: unknown node %T", f))
}

func (c *Checker) quantified(f Quantified, env *binding) Result {
	try := func(b *binding) (Result, bool) {
		r := c.eval(f.Body, b)
		// Universal: stop at the first counterexample.
		// Existential: stop at the first witness.
		return r, r.Satisfied != f.Quant.Universal()
	}

	if f.Quant.OverPoints() {
		for p := 1; p <= c.n; p++ {
			if r, stop := try(&binding{name: f.Var, point: p, up: env}); stop {
				if f.Quant.Universal() {
					return Result{}
				}
				return r.with(f.Var, Witness{Point: p})
			}
		}
	} else {
		for _, o := range c.fam {
			if r, stop := try(&binding{name: f.Var, open: o, up: env}); stop {
				if f.Quant.Universal() {
					return Result{}
				}
				return r.with(f.Var, Witness{Open: o, IsOpen: true})
			}
		}
	}
	return Result{Satisfied: f.Quant.Universal()}
}

func (c *Checker) atom(f Formula, env *binding) bool {
	switch f := f.(type) {
	case In:
		b, ok := env.lookup(f.Point)
		if !ok {
			return false
		}
		o, ok := c.open(f.Open, env)
		return ok && b.point >= 1 && b.point <= c.n && o>>uint(b.point-1)&1 == 1
	case Inter:
		l, lok := c.open(f.Left, env)
		r, rok := c.open(f.Right, env)
		return lok && rok && l&r != 0
	case Nonempty:
		o, ok := c.open(f.Open, env)
		return ok && o != 0
	}
	return false
}

func (c *Checker) open(o Open, env *binding) (uint32, bool) {
	switch o := o.(type) {
	case OpenVar:
		b, ok := env.lookup(o.Name)
		if !ok {
			return 0, false
		}
		return b.open, true
	case Community:
		b, ok := env.lookup(o.Point)
		if !ok {
			return 0, false
		}
		return c.Community(b.point), true
	case InteriorComplement:
		inner, ok := c.open(o.Of, env)
		if !ok {
			return 0, false
		}
		return c.InteriorComplement(inner), true
	}
	return 0, false
}

// InteriorComplement returns the union of all members disjoint from o.
func (c *Checker) InteriorComplement(o uint32) uint32 {
	var out uint32
	for _, q := range c.fam {
		if o&q == 0 {
			out |= q
		}
	}
	return out
}

// Community returns K p: the union of the members contained in the set of
// points that no pair of disjoint opens separates from p. It returns 0 for
// a point outside {1..n} or an empty family.
func (c *Checker) Community(p int) uint32 {
	if p < 1 || p > c.n || len(c.fam) == 0 {
		return 0
	}
	anti := c.antipodes()
	bit := uint32(1) << uint(p-1)

	var separable uint32
	for _, o := range c.fam {
		if o&bit != 0 {
			separable |= anti[o]
		}
	}
	class := family.Universe(c.n) &^ separable

	var community uint32
	for _, o := range c.fam {
		if o&^class == 0 {
			community |= o
		}
	}
	return community
}

// antipodes maps every member O to the union of the members disjoint from
// it. It is built on first use.
func (c *Checker) antipodes() map[uint32]uint32 {
	if c.anti != nil {
		return c.anti
	}
	c.anti = make(map[uint32]uint32, len(c.fam))
	for _, o := range c.fam {
		c.anti[o] = c.InteriorComplement(o)
	}
	return c.anti
}

func (r Result) with(name string, w Witness) Result {
	r.Witnesses = merge(r.Witnesses, map[string]Witness{name: w})
	return r
}

func merge(a, b map[string]Witness) map[string]Witness {
	if len(a)+len(b) == 0 {
		return nil
	}
	out := make(map[string]Witness, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
