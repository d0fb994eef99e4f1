package canon

import "github.com/matzehuels/semiframes/pkg/family"

// Graph is an undirected vertex-coloured graph on vertices 0..Order-1.
//
// Cells lists the colour classes in order. A canonical labeling may only
// permute vertices within a cell, and cell i is placed before cell i+1.
// Vertices missing from every cell form an implicit last cell.
type Graph struct {
	Order int
	Adj   [][]int
	Cells [][]int
}

// Labeler computes canonical vertex orderings.
//
// Label returns lab with lab[i] the vertex placed at position i. For two
// isomorphic graphs (under colour-preserving isomorphism) the relabeled
// graphs must be identical.
type Labeler interface {
	Label(g Graph) []int
}

// IncidenceGraph builds the bipartite element/member graph of f over {1..n}.
// Vertices 0..n-1 are the ground points and vertex n+k is the k-th member;
// point e is adjacent to member k iff e belongs to it.
func IncidenceGraph(f family.Family, n int) Graph {
	order := n + len(f)
	adj := make([][]int, order)
	points := make([]int, n)
	sets := make([]int, len(f))
	for e := range points {
		points[e] = e
	}
	for k, m := range f {
		v := n + k
		sets[k] = v
		for e := 0; e < n; e++ {
			if m>>uint(e)&1 == 1 {
				adj[e] = append(adj[e], v)
				adj[v] = append(adj[v], e)
			}
		}
	}
	return Graph{Order: order, Adj: adj, Cells: [][]int{points, sets}}
}

// colouring turns g.Cells into a colour per vertex.
func (g Graph) colouring() []int {
	col := make([]int, g.Order)
	for i := range col {
		col[i] = len(g.Cells)
	}
	for c, cell := range g.Cells {
		for _, v := range cell {
			col[v] = c
		}
	}
	return col
}
