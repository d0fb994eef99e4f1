package search

import (
	"slices"

	"github.com/matzehuels/semiframes/pkg/canon"
	"github.com/matzehuels/semiframes/pkg/family"
)

// Extend returns the children of the canonical family f in the generation
// tree, sorted by family.Compare.
//
// A candidate subset s is any non-member of {1..n} such that x ∪ s is
// already a member for every member x. The child is the canonical form of
// f ∪ {s}, and it is kept only if its canonical parent is f. Candidates
// that canonicalize to the same child are merged.
func Extend(c *canon.Canonicalizer, f family.Family, n int) []family.Family {
	if n <= 0 {
		return nil
	}
	universe := family.Universe(n)

	var children []family.Family
	seen := make(map[string]struct{})
	for s := uint32(1); ; s++ {
		if !f.Contains(s) && f.AdmitsUnion(s) {
			child := c.Canonicalize(f.With(s), n)
			if c.CanonicalDelete(child, n).Equal(f) {
				if _, dup := seen[child.Key()]; !dup {
					seen[child.Key()] = struct{}{}
					children = append(children, child)
				}
			}
		}
		if s == universe {
			break
		}
	}
	slices.SortFunc(children, family.Compare)
	return children
}

// accept applies the acceptance rules to a generated family and returns the
// completed family to emit. In semiframe mode every pair of points must be
// separated; the predicate, if any, only sees families that pass.
func accept(f family.Family, n int, opts *Options) (family.Family, bool) {
	if opts.Semiframes && !f.Distinguished(n) {
		return nil, false
	}
	completed := f.Complete()
	if opts.Predicate != nil && !opts.Predicate.Accept(n, completed) {
		return nil, false
	}
	return completed, true
}
