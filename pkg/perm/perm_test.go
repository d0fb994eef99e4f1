package perm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeq(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3}, Seq(4))
	assert.Empty(t, Seq(0))
	assert.Empty(t, Seq(-2))
}

func TestFactorial(t *testing.T) {
	tests := []struct{ n, want int }{
		{-1, 1}, {0, 1}, {1, 1}, {5, 120}, {8, 40320},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Factorial(tt.n), "n=%d", tt.n)
	}
}

func TestGenerate(t *testing.T) {
	for n := 0; n <= 6; n++ {
		perms := Generate(n, 0)
		assert.Len(t, perms, Factorial(n), "n=%d", n)

		seen := make(map[string]bool, len(perms))
		for _, p := range perms {
			assert.True(t, IsPermutation(p, n), "n=%d: %v", n, p)
			key := fmt.Sprint(p)
			assert.False(t, seen[key], "duplicate permutation %v", p)
			seen[key] = true
		}
	}
}

func TestGenerateLimit(t *testing.T) {
	assert.Len(t, Generate(10, 7), 7)
	assert.Len(t, Generate(3, 100), 6)
}

func TestIsPermutation(t *testing.T) {
	tests := []struct {
		name string
		p    []int
		n    int
		want bool
	}{
		{"identity", []int{0, 1, 2}, 3, true},
		{"shuffled", []int{2, 0, 1}, 3, true},
		{"empty", nil, 0, true},
		{"repeat", []int{0, 0, 1}, 3, false},
		{"out of range", []int{0, 1, 3}, 3, false},
		{"negative", []int{-1, 0, 1}, 3, false},
		{"wrong length", []int{0, 1}, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPermutation(tt.p, tt.n))
		})
	}
}

func TestInverse(t *testing.T) {
	p := []int{2, 0, 3, 1}
	q := Inverse(p)
	assert.Equal(t, []int{1, 3, 0, 2}, q)
	for i := range p {
		assert.Equal(t, i, q[p[i]])
		assert.Equal(t, i, p[q[i]])
	}
}

func TestApplyMask(t *testing.T) {
	tests := []struct {
		name string
		mask uint32
		p    []int
		want uint32
	}{
		{"identity", 0b101, []int{0, 1, 2}, 0b101},
		{"swap ends", 0b001, []int{2, 1, 0}, 0b100},
		{"rotate", 0b011, []int{1, 2, 0}, 0b110},
		{"empty", 0, []int{1, 0}, 0},
		{"bits beyond p dropped", 0b1001, []int{1, 0, 2}, 0b010},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyMask(tt.mask, tt.p))
		})
	}
}

func TestOrbits(t *testing.T) {
	swap01 := []int{1, 0, 2, 3, 4}
	swap23 := []int{0, 1, 3, 2, 4}
	cycle := []int{1, 2, 0, 3, 4}

	t.Run("no generators", func(t *testing.T) {
		o := Orbits(5, nil, nil)
		for i := 0; i < 5; i++ {
			for j := i + 1; j < 5; j++ {
				assert.False(t, o.Same(i, j))
			}
		}
	})

	t.Run("generated group", func(t *testing.T) {
		o := Orbits(5, [][]int{swap01, swap23, cycle}, nil)
		assert.True(t, o.Same(0, 2))
		assert.True(t, o.Same(1, 2))
		assert.True(t, o.Same(2, 3), "0-1-2 and 2-3 orbits join")
		assert.False(t, o.Same(0, 4))
	})

	t.Run("stabiliser", func(t *testing.T) {
		o := Orbits(5, [][]int{swap01, swap23, cycle}, []int{0})
		assert.True(t, o.Same(2, 3))
		assert.False(t, o.Same(0, 1), "swap01 moves the fixed point")
		assert.False(t, o.Same(1, 2), "cycle moves the fixed point")
	})
}

func TestPartition(t *testing.T) {
	p := NewPartition(6)
	p.Union(0, 1)
	p.Union(4, 5)
	p.Union(1, 5)
	assert.True(t, p.Same(0, 4))
	assert.False(t, p.Same(2, 3))
	assert.Equal(t, p.Find(0), p.Find(5))
}
