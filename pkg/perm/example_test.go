package perm_test

import (
	"fmt"

	"github.com/matzehuels/semiframes/pkg/perm"
)

func ExampleGenerate() {
	// Generate all permutations of 3 elements
	perms := perm.Generate(3, -1)
	fmt.Println("All permutations of [0,1,2]:")
	for _, p := range perms {
		fmt.Println(p)
	}
	// Output:
	// All permutations of [0,1,2]:
	// [0 1 2]
	// [1 0 2]
	// [2 0 1]
	// [0 2 1]
	// [1 2 0]
	// [2 1 0]
}

func ExampleApplyMask() {
	// Swap points 1 and 3: {1, 2} becomes {2, 3}
	swap := []int{2, 1, 0}
	fmt.Printf("%03b\n", perm.ApplyMask(0b011, swap))
	// Output:
	// 110
}

func ExampleOrbits() {
	// A rotation of 0 -> 1 -> 2 -> 0 and a fixed point 3
	rot := []int{1, 2, 0, 3}
	orbits := perm.Orbits(4, [][]int{rot}, nil)
	fmt.Println(orbits.Same(0, 2), orbits.Same(0, 3))

	// Fixing 0 discards the rotation
	stab := perm.Orbits(4, [][]int{rot}, []int{0})
	fmt.Println(stab.Same(0, 2))
	// Output:
	// true false
	// false
}
