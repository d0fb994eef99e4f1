package family

import (
	"slices"
	"strconv"
	"strings"
)

// Render writes f over {1..n} in the textual form Parse accepts. Sets are
// ordered by cardinality, then lexicographically by their sorted elements,
// so "{{}, {2}, {1, 2}}" renders the same regardless of bitmask order.
func (f Family) Render(n int) string {
	sets := make([][]int, len(f))
	for i, m := range f {
		sets[i] = Members(m, n)
	}
	slices.SortFunc(sets, func(a, b []int) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		return slices.Compare(a, b)
	})

	var sb strings.Builder
	sb.WriteByte('{')
	for i, set := range sets {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeSet(&sb, set)
	}
	sb.WriteByte('}')
	return sb.String()
}

// RenderSet writes a single subset of {1..n}, e.g. "{1, 3}".
func RenderSet(mask uint32, n int) string {
	var sb strings.Builder
	writeSet(&sb, Members(mask, n))
	return sb.String()
}

func writeSet(sb *strings.Builder, points []int) {
	sb.WriteByte('{')
	for i, p := range points {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(p))
	}
	sb.WriteByte('}')
}
