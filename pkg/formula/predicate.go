package formula

import "github.com/matzehuels/semiframes/pkg/family"

// Predicate accepts the families that satisfy a formula. It satisfies
// search.Predicate and is safe for concurrent use: each call checks with a
// fresh Checker.
type Predicate struct {
	formula Formula
}

// NewPredicate returns a Predicate for f.
func NewPredicate(f Formula) *Predicate {
	return &Predicate{formula: f}
}

// Accept reports whether the formula holds in f over {1..n}.
func (p *Predicate) Accept(n int, f family.Family) bool {
	return NewChecker(n, f).Check(p.formula).Satisfied
}

// Formula returns the formula p checks.
func (p *Predicate) Formula() Formula { return p.formula }
