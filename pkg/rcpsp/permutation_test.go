package rcpsp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertAdmissible(t *testing.T, idx *ProjectIndex, list PriorityList) {
	t.Helper()
	require.Len(t, list, idx.NumTasks())

	seen := make([]bool, idx.NumTasks())
	for _, task := range list {
		require.False(t, seen[task], "task %d appears twice", task)
		seen[task] = true
	}
	assert.Equal(t, idx.Source(), list[0])
	assert.Equal(t, idx.Sink(), list[len(list)-1])

	position := make([]int, idx.NumTasks())
	for pos, task := range list {
		position[task] = pos
	}
	for i := 0; i < idx.NumTasks(); i++ {
		for _, pred := range idx.Predecessors(i) {
			assert.Less(t, position[pred], position[i], "predecessor %d must precede %d", pred, i)
		}
	}
}

func TestRandomAdmissiblePermutation_IsAlwaysAdmissible(t *testing.T) {
	idx := contentionProject(t)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		assertAdmissible(t, idx, RandomAdmissiblePermutation(idx, rng))
	}
}

func TestInitialPopulation_IsDeterministicBySeed(t *testing.T) {
	idx := contentionProject(t)

	a := InitialPopulation(idx, 20, 42)
	b := InitialPopulation(idx, 20, 42)

	require.Len(t, a, 20)
	for i := range a {
		assert.Equal(t, a[i], b[i])
	}
}

func TestInitialPopulation_DifferentSeedsDiverge(t *testing.T) {
	idx := contentionProject(t)

	a := InitialPopulation(idx, 20, 1)
	b := InitialPopulation(idx, 20, 2)

	identical := true
	for i := range a {
		if !equalLists(a[i], b[i]) {
			identical = false
			break
		}
	}
	assert.False(t, identical, "two different seeds produced an identical population")
}

func TestNaturalOrderBaseline_IsAdmissible(t *testing.T) {
	idx := contentionProject(t)
	assertAdmissible(t, idx, NaturalOrderBaseline(idx))
}

func equalLists(a, b PriorityList) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
