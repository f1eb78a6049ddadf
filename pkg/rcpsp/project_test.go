package rcpsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainProject(t *testing.T) *ProjectIndex {
	t.Helper()
	idx, err := BuildProject(RawProject{
		Durations:    []int{0, 3, 5, 0},
		Requirements: [][]int{{0}, {1}, {1}, {0}},
		Capacities:   []int{1},
		Precedences:  [][2]int{{0, 1}, {1, 2}, {2, 3}},
	})
	require.NoError(t, err)
	return idx
}

func TestBuildProject_Chain(t *testing.T) {
	idx := chainProject(t)

	assert.Equal(t, 0, idx.Source())
	assert.Equal(t, 3, idx.Sink())
	assert.Equal(t, 4, idx.NumTasks())
	assert.Equal(t, 1, idx.NumResources())
	assert.Equal(t, 0, idx.InDegree(idx.Source()))
	assert.True(t, idx.IsSuccessor(0, 3))
	assert.True(t, idx.IsSuccessor(1, 2))
	assert.False(t, idx.IsSuccessor(2, 1))
}

func TestBuildProject_AutoWiresDanglingTasksToSourceAndSink(t *testing.T) {
	// Task 1 has no explicit predecessor and task 2 has no explicit
	// successor; BuildProject must still make the source precede every
	// real task and every real task precede the sink.
	idx, err := BuildProject(RawProject{
		Durations:    []int{0, 2, 2, 0},
		Requirements: [][]int{{0}, {1}, {1}, {0}},
		Capacities:   []int{2},
		Precedences:  nil,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, idx.InDegree(1))
	assert.Equal(t, 1, idx.InDegree(2))
	assert.True(t, idx.IsSuccessor(0, 1))
	assert.True(t, idx.IsSuccessor(0, 2))
	assert.True(t, idx.IsSuccessor(1, 3))
	assert.True(t, idx.IsSuccessor(2, 3))
}

func TestBuildProject_RejectsCycle(t *testing.T) {
	_, err := BuildProject(RawProject{
		Durations:    []int{0, 1, 1, 0},
		Requirements: [][]int{{0}, {1}, {1}, {0}},
		Capacities:   []int{1},
		Precedences:  [][2]int{{0, 1}, {1, 2}, {2, 1}, {2, 3}},
	})
	require.Error(t, err)
	assert.True(t, IsInvalidProject(err))
}

func TestBuildProject_RejectsRequirementOverCapacity(t *testing.T) {
	_, err := BuildProject(RawProject{
		Durations:    []int{0, 1, 0},
		Requirements: [][]int{{0}, {2}, {0}},
		Capacities:   []int{1},
		Precedences:  [][2]int{{0, 1}, {1, 2}},
	})
	require.Error(t, err)
	assert.True(t, IsInvalidProject(err))
}

func TestBuildProject_RejectsNonZeroSourceOrSinkRequirement(t *testing.T) {
	_, err := BuildProject(RawProject{
		Durations:    []int{0, 1, 0},
		Requirements: [][]int{{1}, {1}, {0}},
		Capacities:   []int{1},
		Precedences:  [][2]int{{0, 1}, {1, 2}},
	})
	require.Error(t, err)
	assert.True(t, IsInvalidProject(err))
}

func TestBuildProject_RejectsDanglingPrecedence(t *testing.T) {
	_, err := BuildProject(RawProject{
		Durations:    []int{0, 1, 0},
		Requirements: [][]int{{0}, {1}, {0}},
		Capacities:   []int{1},
		Precedences:  [][2]int{{0, 5}},
	})
	require.Error(t, err)
	assert.True(t, IsInvalidProject(err))
}

func TestBuildProject_DeduplicatesPrecedences(t *testing.T) {
	idx, err := BuildProject(RawProject{
		Durations:    []int{0, 1, 0},
		Requirements: [][]int{{0}, {1}, {0}},
		Capacities:   []int{1},
		Precedences:  [][2]int{{0, 1}, {0, 1}, {1, 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.InDegree(1))
}
