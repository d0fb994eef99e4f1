// Package formula implements a small first-order language over
// semitopologies and a model checker that evaluates it against a family.
//
// Variables starting with a lowercase letter range over points, variables
// starting with an uppercase letter range over opens (members of the
// family). A formula such as
//
//	AP x. EO O. (x in O && !(IC O inter O))
//
// is parsed with Parse and evaluated with Checker.Check. NewPredicate turns
// a parsed formula into a filter for the search.
package formula

import "unicode"

// Formula is a node of a parsed formula.
type Formula interface {
	String() string
	formula()
}

// Open is an expression that evaluates to an open set.
type Open interface {
	String() string
	open()
}

// Quant identifies a quantifier.
type Quant int

const (
	ForAllOpens Quant = iota
	ForAllPoints
	ExistsOpens
	ExistsPoints
)

var quantNames = [...]string{"AO", "AP", "EO", "EP"}

func (q Quant) String() string { return quantNames[q] }

// OverPoints reports whether q binds a point variable.
func (q Quant) OverPoints() bool { return q == ForAllPoints || q == ExistsPoints }

// Universal reports whether q is a universal quantifier.
func (q Quant) Universal() bool { return q == ForAllOpens || q == ForAllPoints }

// OpenVar refers to an open bound by AO or EO.
type OpenVar struct{ Name string }

// Community is K x: the interior of the set of points no open can
// separate from x.
type Community struct{ Point string }

// InteriorComplement is IC O: the union of all opens disjoint from O.
type InteriorComplement struct{ Of Open }

// In is the atom "x in O".
type In struct {
	Point string
	Open  Open
}

// Inter is the atom "O inter P": the two opens share a point.
type Inter struct{ Left, Right Open }

// Nonempty is the atom "nonempty O".
type Nonempty struct{ Open Open }

// Not negates a formula.
type Not struct{ Body Formula }

// And is a conjunction.
type And struct{ Left, Right Formula }

// Or is a disjunction.
type Or struct{ Left, Right Formula }

// Implies is a material implication.
type Implies struct{ Left, Right Formula }

// Quantified binds Var over points or opens in Body.
type Quantified struct {
	Quant Quant
	Var   string
	Body  Formula
}

func (OpenVar) open()            {}
func (Community) open()          {}
func (InteriorComplement) open() {}

func (In) formula()         {}
func (Inter) formula()      {}
func (Nonempty) formula()   {}
func (Not) formula()        {}
func (And) formula()        {}
func (Or) formula()         {}
func (Implies) formula()    {}
func (Quantified) formula() {}

func (o OpenVar) String() string   { return o.Name }
func (o Community) String() string { return "K " + o.Point }
func (o InteriorComplement) String() string {
	if _, ok := o.Of.(OpenVar); ok {
		return "IC " + o.Of.String()
	}
	return "IC (" + o.Of.String() + ")"
}

func (a In) String() string       { return a.Point + " in " + wrapOpen(a.Open) }
func (a Inter) String() string    { return wrapOpen(a.Left) + " inter " + wrapOpen(a.Right) }
func (a Nonempty) String() string { return "nonempty " + wrapOpen(a.Open) }
func (f Not) String() string      { return "!" + wrap(f.Body) }
func (f And) String() string      { return wrap(f.Left) + " && " + wrap(f.Right) }
func (f Or) String() string       { return wrap(f.Left) + " || " + wrap(f.Right) }
func (f Implies) String() string  { return wrap(f.Left) + " => " + wrap(f.Right) }
func (f Quantified) String() string {
	return f.Quant.String() + " " + f.Var + ". " + wrap(f.Body)
}

// wrap parenthesizes every compound subformula so String output parses back
// to the same tree regardless of precedence.
func wrap(f Formula) string {
	switch f.(type) {
	case In, Inter, Nonempty, Not:
		return f.String()
	}
	return "(" + f.String() + ")"
}

func wrapOpen(o Open) string {
	if _, ok := o.(OpenVar); ok {
		return o.String()
	}
	return "(" + o.String() + ")"
}

// IsPointVar reports whether name denotes a point variable.
func IsPointVar(name string) bool {
	r := firstRune(name)
	return unicode.IsLower(r)
}

// IsOpenVar reports whether name denotes an open variable.
func IsOpenVar(name string) bool {
	r := firstRune(name)
	return unicode.IsUpper(r)
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

// Vars returns the variables bound by quantifiers in f, outermost first.
func Vars(f Formula) []string {
	var names []string
	var walk func(Formula)
	walk = func(f Formula) {
		switch f := f.(type) {
		case Quantified:
			names = append(names, f.Var)
			walk(f.Body)
		case Not:
			walk(f.Body)
		case And:
			walk(f.Left)
			walk(f.Right)
		case Or:
			walk(f.Left)
			walk(f.Right)
		case Implies:
			walk(f.Left)
			walk(f.Right)
		}
	}
	walk(f)
	return names
}
