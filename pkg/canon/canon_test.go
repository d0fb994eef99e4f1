package canon

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/family"
	"github.com/matzehuels/semiframes/pkg/perm"
)

func relabel(f family.Family, p []int) family.Family {
	out := make([]uint32, len(f))
	for i, m := range f {
		out[i] = perm.ApplyMask(m, p)
	}
	return family.New(out...)
}

func TestCanonicalizeFixtures(t *testing.T) {
	tests := []struct {
		name string
		in   family.Family
		n    int
		want family.Family
	}{
		{"empty", nil, 3, nil},
		{"symmetric triangle is a fixed point", family.New(3, 5, 6, 7), 3, family.New(3, 5, 6, 7)},
		{"point 1 open", family.New(1, 3), 2, family.New(2, 3)},
		{"point 2 open", family.New(2, 3), 2, family.New(2, 3)},
		{"pair {2,3}", family.New(2, 6, 7), 3, family.New(4, 6, 7)},
		{"pair {1,2}", family.New(1, 3, 7), 3, family.New(4, 6, 7)},
		{"pair {1,3}", family.New(4, 5, 7), 3, family.New(4, 6, 7)},
		{"universe only", family.New(7), 3, family.New(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalizeOnce(tt.in, tt.n))
		})
	}
}

func TestCanonicalizeParsedTriangle(t *testing.T) {
	f, err := family.Parse("{{1,2},{1,3},{2,3},{1,2,3}}", 3)
	require.NoError(t, err)
	assert.Equal(t, f, CanonicalizeOnce(f, 3))
}

// bruteForce returns the lexicographically smallest relabeling of f.
func bruteForce(f family.Family, n int) family.Family {
	var best family.Family
	for _, p := range perm.Generate(n, 0) {
		g := relabel(f, p)
		if best == nil || family.Compare(g, best) < 0 {
			best = g
		}
	}
	return best
}

// TestCanonicalizeClassesN3 checks every family of subsets of {1,2,3}: two
// families share a canonical form iff they are relabelings of each other.
func TestCanonicalizeClassesN3(t *testing.T) {
	const n = 3
	c := New(0)
	byCanon := map[string]string{}
	byBrute := map[string]string{}
	for bits := 0; bits < 1<<8; bits++ {
		var masks []uint32
		for m := 0; m < 8; m++ {
			if bits>>m&1 == 1 {
				masks = append(masks, uint32(m))
			}
		}
		f := family.New(masks...)
		ck := c.Canonicalize(f, n).Key()
		bk := bruteForce(f, n).Key()

		if prev, ok := byCanon[ck]; ok {
			require.Equal(t, prev, bk, "canonical form %v merges distinct classes", f)
		} else {
			byCanon[ck] = bk
		}
		if prev, ok := byBrute[bk]; ok {
			require.Equal(t, prev, ck, "class of %v split across canonical forms", f)
		} else {
			byBrute[bk] = ck
		}
	}
	assert.Equal(t, len(byBrute), len(byCanon))
}

func TestCanonicalizeInvariantUnderRelabeling(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, n := range []int{4, 5, 6} {
		perms := perm.Generate(n, 0)
		for trial := 0; trial < 40; trial++ {
			size := 1 + rng.IntN(10)
			masks := make([]uint32, size)
			for i := range masks {
				masks[i] = rng.Uint32() & family.Universe(n)
			}
			f := family.New(masks...)
			want := CanonicalizeOnce(f, n)

			for i := 0; i < 10; i++ {
				p := perms[rng.IntN(len(perms))]
				got := CanonicalizeOnce(relabel(f, p), n)
				require.Equal(t, want, got, "n=%d f=%v p=%v", n, f, p)
			}
			require.Equal(t, want, CanonicalizeOnce(want, n), "not idempotent for %v", f)
			require.Equal(t, want, bruteForceMember(f, want, n), "result is not a relabeling of %v", f)
		}
	}
}

// bruteForceMember returns want when it is some relabeling of f.
func bruteForceMember(f, want family.Family, n int) family.Family {
	for _, p := range perm.Generate(n, 0) {
		if g := relabel(f, p); g.Equal(want) {
			return g
		}
	}
	return nil
}

func TestCanonicalizeHighlySymmetric(t *testing.T) {
	const n = 8
	all := make([]uint32, 1<<n)
	for i := range all {
		all[i] = uint32(i)
	}
	f := family.New(all...)
	assert.Equal(t, f, CanonicalizeOnce(f, n), "the power set is invariant under every relabeling")

	points := make([]uint32, n)
	for i := range points {
		points[i] = 1 << i
	}
	singletons := family.New(points...)
	assert.Equal(t, singletons, CanonicalizeOnce(singletons, n))
}

func TestCanonicalizeCacheDoesNotChangeResult(t *testing.T) {
	cached := New(2)
	fresh := New(0)
	inputs := []family.Family{
		family.New(1, 3, 7), family.New(2, 6, 7), family.New(4, 5, 7),
		family.New(1, 3, 7), family.New(3, 5, 6, 7), family.New(2, 6, 7),
	}
	for _, f := range inputs {
		assert.Equal(t, fresh.Canonicalize(f, 3), cached.Canonicalize(f, 3))
	}
	stats := cached.Cache.Stats()
	assert.Positive(t, stats.Clears)
	assert.Equal(t, int64(len(inputs)), stats.Hits+stats.Misses)
}

func TestCanonicalizeCacheSeparatesSizes(t *testing.T) {
	c := New(10)
	assert.Equal(t, family.New(2, 3), c.Canonicalize(family.New(1, 3), 2))
	assert.Equal(t, family.New(4, 6), c.Canonicalize(family.New(1, 3), 3))
}

func TestCanonicalDelete(t *testing.T) {
	tests := []struct {
		name string
		in   family.Family
		n    int
		want family.Family
	}{
		{"empty", nil, 2, nil},
		{"single member", family.New(3), 2, nil},
		{"drops smallest", family.New(2, 3), 2, family.New(3)},
		{"canonicalizes remainder", family.New(1, 6, 7), 3, family.New(6, 7)},
		{"triangle", family.New(3, 5, 6, 7), 3, family.New(5, 6, 7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalDelete(tt.in, tt.n))
		})
	}
}

type brokenLabeler struct{}

// Label places the member vertices first.
func (brokenLabeler) Label(g Graph) []int {
	lab := make([]int, 0, g.Order)
	lab = append(lab, g.Cells[1]...)
	return append(lab, g.Cells[0]...)
}

func TestCanonicalizePanicsOnBrokenLabeling(t *testing.T) {
	c := &Canonicalizer{Labeler: brokenLabeler{}, Cache: New(0).Cache}
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, errors.ErrCodeInternal))
	}()
	c.Canonicalize(family.New(1, 3, 7), 3)
}
