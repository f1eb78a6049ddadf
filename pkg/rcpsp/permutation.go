package rcpsp

import "math/rand"

// PriorityList is a topologically admissible permutation of
// [0, NumTasks): for every precedence (u, v), u appears before v.
// Position 0 always holds the source, position len-1 always holds the
// sink.
type PriorityList []int

// Clone returns an independent copy of the priority list.
func (pl PriorityList) Clone() PriorityList {
	c := make(PriorityList, len(pl))
	copy(c, pl)
	return c
}

// RandomAdmissiblePermutation draws one priority list uniformly-ish
// from the set of topologically admissible permutations of idx, using
// rng as the sole source of randomness. Kahn-style selection: at every
// step, one of the currently-ready tasks (in-degree zero in a mutable
// copy of the in-degree vector) is chosen uniformly at random and
// appended; its successors' in-degrees are then decremented, promoting
// any that reach zero. The source is always the unique first ready
// task and the sink always the unique last, so the result automatically
// satisfies the position-0/position-(n-1) invariant. Runs in O(n + e).
func RandomAdmissiblePermutation(idx *ProjectIndex, rng *rand.Rand) PriorityList {
	n := idx.numTasks
	deg := append([]int(nil), idx.inDegree...)

	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if deg[i] == 0 {
			ready = append(ready, i)
		}
	}

	out := make(PriorityList, 0, n)
	for len(ready) > 0 {
		pick := rng.Intn(len(ready))
		task := ready[pick]
		last := len(ready) - 1
		ready[pick] = ready[last]
		ready = ready[:last]

		out = append(out, task)
		for _, v := range idx.successors[task] {
			deg[v]--
			if deg[v] == 0 {
				ready = append(ready, v)
			}
		}
	}
	return out
}

// Population is an array of priority lists, the unit the GA selects,
// crosses, and mutates; fitness is derived fresh each generation by
// decoding, never stored alongside the chromosome.
type Population []PriorityList

// InitialPopulation draws N independent admissible permutations from a
// single *rand.Rand seeded deterministically from seed: identical
// (idx, N, seed) always yields identical output, regardless of caller.
func InitialPopulation(idx *ProjectIndex, n int, seed int64) Population {
	rng := rand.New(rand.NewSource(seed))
	pop := make(Population, n)
	for i := range pop {
		pop[i] = RandomAdmissiblePermutation(idx, rng)
	}
	return pop
}

// NaturalOrderBaseline is a deterministic, non-optimized comparison
// baseline: task ids in natural order, stabilized by a plain
// topological repair (Kahn's algorithm breaking ties by lowest id)
// rather than assumed admissible as-is.
func NaturalOrderBaseline(idx *ProjectIndex) PriorityList {
	n := idx.numTasks
	deg := append([]int(nil), idx.inDegree...)

	out := make(PriorityList, 0, n)
	for len(out) < n {
		next := -1
		for i := 0; i < n; i++ {
			if deg[i] == 0 {
				next = i
				break
			}
		}
		// BuildProject guarantees an acyclic graph, so a ready task
		// always exists here.
		deg[next] = -1
		out = append(out, next)
		for _, v := range idx.successors[next] {
			deg[v]--
		}
	}
	return out
}
