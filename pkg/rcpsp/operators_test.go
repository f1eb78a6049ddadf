package rcpsp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPOXCrossover_ProducesAdmissibleChildren(t *testing.T) {
	idx := contentionProject(t)
	rng := rand.New(rand.NewSource(11))

	seed := rand.New(rand.NewSource(99))
	for i := 0; i < 30; i++ {
		p1 := RandomAdmissiblePermutation(idx, seed)
		p2 := RandomAdmissiblePermutation(idx, seed)

		c1, c2 := POXCrossover(p1, p2, rng)
		assertAdmissible(t, idx, c1)
		assertAdmissible(t, idx, c2)
	}
}

func TestPOXCrossover_PrefixMatchesFirstParent(t *testing.T) {
	idx := contentionProject(t)
	seed := rand.New(rand.NewSource(5))
	p1 := RandomAdmissiblePermutation(idx, seed)
	p2 := RandomAdmissiblePermutation(idx, seed)

	// A fixed rng that draws exactly one int determines q; replay it to
	// learn which q this rng produces, then check the prefix by hand.
	rng := rand.New(rand.NewSource(123))
	n := len(p1)
	q := 1 + rand.New(rand.NewSource(123)).Intn(n-1)

	c1, _ := POXCrossover(p1, p2, rng)
	assert.Equal(t, p1[:q], PriorityList(c1[:q]))
}

func TestSwapMutate_ProducesAdmissiblePermutation(t *testing.T) {
	idx := contentionProject(t)
	seed := rand.New(rand.NewSource(3))
	rng := rand.New(rand.NewSource(17))

	for i := 0; i < 50; i++ {
		parent := RandomAdmissiblePermutation(idx, seed)
		child := SwapMutate(idx, parent, 8, rng)
		assertAdmissible(t, idx, child)
	}
}

func TestSwapMutate_NeverTouchesSourceOrSink(t *testing.T) {
	idx := chainProject(t)
	rng := rand.New(rand.NewSource(1))
	parent := PriorityList{0, 1, 2, 3}

	for i := 0; i < 20; i++ {
		child := SwapMutate(idx, parent, 8, rng)
		assert.Equal(t, idx.Source(), child[0])
		assert.Equal(t, idx.Sink(), child[len(child)-1])
	}
}

func TestSwapMutate_ReturnsParentWhenTooShort(t *testing.T) {
	// A 2-task project (source, sink only) has nothing interior to swap.
	tiny, err := BuildProject(RawProject{
		Durations:    []int{0, 0},
		Requirements: [][]int{{0}, {0}},
		Capacities:   []int{1},
	})
	assert.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	parent := PriorityList{0, 1}
	child := SwapMutate(tiny, parent, 8, rng)
	assert.Equal(t, parent, child)
}
