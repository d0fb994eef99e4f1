package family

import (
	"encoding/binary"
	"math"
	"math/bits"
	"slices"
)

// MaxSize is the largest ground set a Family can describe.
const MaxSize = 32

// Family is a set of subsets of {1..n}, each encoded as a bitmask where
// bit i-1 is set iff point i belongs to the subset.
//
// A Family is kept strictly ascending and duplicate-free; build one with
// New or With rather than by appending to the slice directly. The zero
// value is the empty family.
type Family []uint32

// New returns the family holding the given masks, sorted and deduplicated.
// The input slice is not modified.
func New(masks ...uint32) Family {
	f := Family(slices.Clone(masks))
	slices.Sort(f)
	return slices.Compact(f)
}

// Universe returns the mask of the full ground set {1..n}.
func Universe(n int) uint32 {
	if n >= MaxSize {
		return math.MaxUint32
	}
	return 1<<uint(n) - 1
}

// Len returns the number of members.
func (f Family) Len() int { return len(f) }

// Contains reports whether mask is a member of f.
func (f Family) Contains(mask uint32) bool {
	_, ok := slices.BinarySearch(f, mask)
	return ok
}

// With returns f ∪ {mask}. f itself is never modified; when mask is already
// a member, f is returned unchanged.
func (f Family) With(mask uint32) Family {
	i, ok := slices.BinarySearch(f, mask)
	if ok {
		return f
	}
	out := make(Family, len(f)+1)
	copy(out, f[:i])
	out[i] = mask
	copy(out[i+1:], f[i:])
	return out
}

// Complete returns f with the empty set added. The search never tracks the
// empty set during generation; it is added back before a family is judged
// or emitted.
func (f Family) Complete() Family { return f.With(0) }

// Clone returns an independent copy of f.
func (f Family) Clone() Family { return slices.Clone(f) }

// Equal reports whether f and g have the same members.
func (f Family) Equal(g Family) bool { return slices.Equal(f, g) }

// Compare orders families lexicographically by their ascending member lists.
// It is the order in which the search visits sibling families.
func Compare(a, b Family) int { return slices.Compare(a, b) }

// Key returns a string that uniquely identifies f, suitable as a map key.
func (f Family) Key() string {
	buf := make([]byte, 0, 4*len(f))
	for _, m := range f {
		buf = binary.LittleEndian.AppendUint32(buf, m)
	}
	return string(buf)
}

// AdmitsUnion reports whether x ∪ s is already a member of f for every
// member x. A candidate that is a strict superset of some member is never
// admitted, since that union is s itself.
func (f Family) AdmitsUnion(s uint32) bool {
	for _, x := range f {
		if !f.Contains(x | s) {
			return false
		}
	}
	return true
}

// IsUnionClosed reports whether x ∪ y ∈ f for all members x, y.
func (f Family) IsUnionClosed() bool {
	for i, x := range f {
		for _, y := range f[i+1:] {
			if !f.Contains(x | y) {
				return false
			}
		}
	}
	return true
}

// Separates reports whether some member contains exactly one of the points
// p and q (1-based).
func (f Family) Separates(p, q int) bool {
	pBit := uint32(1) << uint(p-1)
	qBit := uint32(1) << uint(q-1)
	for _, m := range f {
		if (m&pBit != 0) != (m&qBit != 0) {
			return true
		}
	}
	return false
}

// Distinguished reports whether every pair of distinct points in {1..n} is
// separated by some member of f.
func (f Family) Distinguished(n int) bool {
	for p := 1; p <= n; p++ {
		for q := p + 1; q <= n; q++ {
			if !f.Separates(p, q) {
				return false
			}
		}
	}
	return true
}

// Members returns the 1-based points of mask that lie in {1..n}, ascending.
func Members(mask uint32, n int) []int {
	points := make([]int, 0, bits.OnesCount32(mask))
	for i := 0; i < n && i < MaxSize; i++ {
		if mask>>uint(i)&1 == 1 {
			points = append(points, i+1)
		}
	}
	return points
}

// InferSize returns one more than the highest set bit across all members,
// i.e. the smallest n the family can be read over. It returns 0 for a family
// whose members are all empty.
func InferSize(f Family) int {
	var all uint32
	for _, m := range f {
		all |= m
	}
	return bits.Len32(all)
}

// Fits reports whether every member of f lies within {1..n}.
func (f Family) Fits(n int) bool {
	u := Universe(n)
	for _, m := range f {
		if m&^u != 0 {
			return false
		}
	}
	return true
}
