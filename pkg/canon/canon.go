// Package canon computes canonical forms of families under relabeling of
// the ground points.
//
// A family over {1..n} is encoded as its bipartite incidence graph (points
// on one side, members on the other) and handed to a Labeler. The points'
// positions in the canonical ordering give the relabeling, so two families
// share a canonical form iff one is a relabeling of the other.
//
// The search engine relies on two operations:
//
//   - Canonicalize maps a family to its class representative, memoized
//     through a cache.Cache.
//   - CanonicalDelete returns a family's canonical parent: the canonical
//     form of the family with its smallest member removed. Accepting a
//     generated child only when its canonical parent is the family it was
//     grown from yields every class exactly once.
package canon

import (
	"github.com/matzehuels/semiframes/pkg/cache"
	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/family"
	"github.com/matzehuels/semiframes/pkg/perm"
)

// DefaultCacheSize is the memo capacity used when none is configured.
const DefaultCacheSize = 10000

// Canonicalizer computes canonical forms through a Labeler, memoizing
// results in Cache. It is not safe for concurrent use.
type Canonicalizer struct {
	Labeler Labeler
	Cache   cache.Cache
}

// New returns a Canonicalizer using the Refiner labeler and a memo bounded
// by cacheSize entries (0 disables caching).
func New(cacheSize int) *Canonicalizer {
	return &Canonicalizer{Labeler: Refiner{}, Cache: cache.New(cacheSize)}
}

// Canonicalize returns the canonical form of f over {1..n}.
//
// f is treated as a bag of bitmasks; bits at or above n are ignored by the
// labeler and callers must reject such families beforehand. The result
// never depends on cache state.
func (c *Canonicalizer) Canonicalize(f family.Family, n int) family.Family {
	if len(f) == 0 {
		return nil
	}

	key := string(rune(n)) + f.Key()
	if got, ok := c.Cache.Get(key); ok {
		return got
	}

	lab := c.Labeler.Label(IncidenceGraph(f, n))
	if len(lab) < n || !perm.IsPermutation(lab[:n], n) {
		errors.Internal("canonical labeling does not start with a permutation of the %d points: %v", n, lab)
	}
	to := perm.Inverse(lab[:n])

	out := make([]uint32, len(f))
	for i, m := range f {
		out[i] = perm.ApplyMask(m, to)
	}
	canonical := family.New(out...)

	c.Cache.Set(key, canonical)
	return canonical
}

// CanonicalDelete returns the canonical parent of f: the canonical form of f
// without its numerically smallest member. Families with at most one member
// have the empty family as parent.
func (c *Canonicalizer) CanonicalDelete(f family.Family, n int) family.Family {
	if len(f) <= 1 {
		return nil
	}
	return c.Canonicalize(f[1:], n)
}

// CanonicalizeOnce canonicalizes f without touching any shared cache.
func CanonicalizeOnce(f family.Family, n int) family.Family {
	return New(0).Canonicalize(f, n)
}

// CanonicalDelete is the cache-free form of Canonicalizer.CanonicalDelete.
func CanonicalDelete(f family.Family, n int) family.Family {
	return New(0).CanonicalDelete(f, n)
}
