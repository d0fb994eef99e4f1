package canon

import (
	"slices"

	"github.com/matzehuels/semiframes/pkg/perm"
)

// Refiner is an individualization-refinement Labeler.
//
// Colours are refined to an equitable partition (1-dimensional
// Weisfeiler-Leman), then the first non-singleton cell is split by
// individualizing each of its vertices in turn. Every discrete partition
// reached is a leaf; its certificate is the sorted list of relabeled edges,
// and the leaf with the smallest certificate wins. Leaves with equal
// certificates reveal automorphisms, which prune candidates lying in an
// already-explored orbit of the stabiliser of the current path.
type Refiner struct{}

// Label implements Labeler.
func (Refiner) Label(g Graph) []int {
	if g.Order == 0 {
		return []int{}
	}
	s := &irSearch{adj: g.Adj, order: g.Order}
	s.search(g.colouring(), nil)
	return s.bestLab
}

type irSearch struct {
	adj   [][]int
	order int

	seen      bool
	first     []int
	firstLab  []int
	best      []int
	bestLab   []int
	gens      [][]int
	sigs      []signature
	scratchIx []int
}

func (s *irSearch) search(col []int, path []int) {
	col = s.refine(col)
	if numColours(col) == s.order {
		s.leaf(col)
		return
	}

	target := targetCell(col)
	var done []int
	for w, c := range col {
		if c != target {
			continue
		}
		if len(done) > 0 {
			orbits := perm.Orbits(s.order, s.gens, path)
			if slices.ContainsFunc(done, func(u int) bool { return orbits.Same(u, w) }) {
				continue
			}
		}
		done = append(done, w)
		s.search(individualize(col, w), append(path[:len(path):len(path)], w))
	}
}

func (s *irSearch) leaf(col []int) {
	lab := make([]int, s.order)
	for v, c := range col {
		lab[c] = v
	}
	c := certificate(s.adj, lab)

	if !s.seen {
		s.seen = true
		s.first, s.firstLab = c, lab
		s.best, s.bestLab = c, lab
		return
	}

	for _, ref := range [...]struct{ cert, lab []int }{{s.first, s.firstLab}, {s.best, s.bestLab}} {
		if slices.Equal(c, ref.cert) {
			g := make([]int, s.order)
			for i, v := range lab {
				g[v] = ref.lab[i]
			}
			s.gens = append(s.gens, g)
			return
		}
	}
	if slices.Compare(c, s.best) < 0 {
		s.best, s.bestLab = c, lab
	}
}

type signature struct {
	colour int
	nbrs   []int
}

func compareSignatures(a, b signature) int {
	if a.colour != b.colour {
		return a.colour - b.colour
	}
	return slices.Compare(a.nbrs, b.nbrs)
}

// refine iterates colour refinement until the number of colours is stable.
// A vertex's signature is its colour followed by the sorted colours of its
// neighbours; new colours are the ranks of the distinct signatures, which
// keeps the result independent of vertex numbering.
func (s *irSearch) refine(col []int) []int {
	if s.sigs == nil {
		s.sigs = make([]signature, s.order)
		s.scratchIx = make([]int, s.order)
	}
	k := numColours(col)
	for {
		for v := range col {
			nbrs := s.sigs[v].nbrs[:0]
			for _, u := range s.adj[v] {
				nbrs = append(nbrs, col[u])
			}
			slices.Sort(nbrs)
			s.sigs[v] = signature{colour: col[v], nbrs: nbrs}
		}

		ix := s.scratchIx
		for v := range ix {
			ix[v] = v
		}
		slices.SortFunc(ix, func(a, b int) int { return compareSignatures(s.sigs[a], s.sigs[b]) })

		next := make([]int, len(col))
		c := 0
		for i, v := range ix {
			if i > 0 && compareSignatures(s.sigs[ix[i-1]], s.sigs[v]) != 0 {
				c++
			}
			next[v] = c
		}
		if c+1 == k {
			return next
		}
		k = c + 1
		col = next
	}
}

// individualize gives v a colour of its own, placed just before the rest of
// its former cell.
func individualize(col []int, v int) []int {
	c := col[v]
	out := make([]int, len(col))
	for u, x := range col {
		if x < c || u == v {
			out[u] = x
		} else {
			out[u] = x + 1
		}
	}
	return out
}

// targetCell returns the smallest colour shared by more than one vertex.
func targetCell(col []int) int {
	sizes := make([]int, len(col)+1)
	for _, c := range col {
		sizes[c]++
	}
	for c, n := range sizes {
		if n > 1 {
			return c
		}
	}
	return -1
}

func numColours(col []int) int {
	k := 0
	for _, c := range col {
		k = max(k, c+1)
	}
	return k
}

// certificate encodes the graph relabeled by lab as the sorted list of
// edges (a, b), a < b, each packed into a*order+b.
func certificate(adj [][]int, lab []int) []int {
	order := len(lab)
	pos := perm.Inverse(lab)
	var edges []int
	for v, nbrs := range adj {
		for _, u := range nbrs {
			if a, b := pos[v], pos[u]; a < b {
				edges = append(edges, a*order+b)
			}
		}
	}
	slices.Sort(edges)
	return edges
}
