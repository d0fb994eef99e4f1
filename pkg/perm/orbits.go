package perm

// Partition is a disjoint-set forest over [0, n).
type Partition struct {
	parent []int
}

// NewPartition returns the partition of [0, n) into singletons.
func NewPartition(n int) *Partition {
	return &Partition{parent: Seq(n)}
}

// Find returns the representative of x's block.
func (p *Partition) Find(x int) int {
	for p.parent[x] != x {
		p.parent[x] = p.parent[p.parent[x]]
		x = p.parent[x]
	}
	return x
}

// Union merges the blocks of a and b.
func (p *Partition) Union(a, b int) {
	ra, rb := p.Find(a), p.Find(b)
	if ra != rb {
		p.parent[ra] = rb
	}
}

// Same reports whether a and b share a block.
func (p *Partition) Same(a, b int) bool {
	return p.Find(a) == p.Find(b)
}

// Orbits returns the orbit partition of [0, n) under the group generated by
// those generators that fix every point of fixed. Generators moving a fixed
// point are ignored, which yields the orbits of the pointwise stabiliser
// subgroup they generate.
func Orbits(n int, gens [][]int, fixed []int) *Partition {
	part := NewPartition(n)
	for _, g := range gens {
		if !fixes(g, fixed) {
			continue
		}
		for v, w := range g {
			part.Union(v, w)
		}
	}
	return part
}

func fixes(g []int, points []int) bool {
	for _, x := range points {
		if g[x] != x {
			return false
		}
	}
	return true
}
