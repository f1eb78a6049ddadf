package rcpsp

import "math/rand"

// POXCrossover performs Precedence-preserving Order-based Crossover on
// two admissible parents, producing two admissible children. A
// crossover point q is drawn uniformly from [1, n-1]. C1 copies
// positions [0, q) from p1 in order, then appends the tasks of p2 that
// are not yet present, in the order they appear in p2; C2 is built
// symmetrically with the parents' roles swapped. Both results are
// permutations by construction (every task is copied exactly once:
// first from the prefix, then from the other parent's remainder) and
// admissible because any predecessor of a tail-copied task was either
// already placed from the prefix or appears earlier in the donor
// parent's own admissible order and is therefore copied into the tail
// before it.
func POXCrossover(p1, p2 PriorityList, rng *rand.Rand) (c1, c2 PriorityList) {
	n := len(p1)
	q := 1 + rng.Intn(n-1)
	return poxChild(p1, p2, q), poxChild(p2, p1, q)
}

func poxChild(prefixParent, tailParent PriorityList, q int) PriorityList {
	n := len(prefixParent)
	child := make(PriorityList, 0, n)
	placed := make([]bool, n)

	for i := 0; i < q; i++ {
		child = append(child, prefixParent[i])
		placed[prefixParent[i]] = true
	}
	for _, task := range tailParent {
		if !placed[task] {
			child = append(child, task)
			placed[task] = true
		}
	}
	return child
}

// SwapMutate attempts to produce an admissible child by swapping two
// distinct interior positions a < b (excluding source and sink) drawn
// uniformly from parent. The swap is legal iff no task in positions
// [a, b] (other than parent[a] itself) is a
// transitive successor of parent[a], and no such task (other than
// parent[b] itself) is a transitive predecessor of parent[b] -
// equivalently, the swap must not invert any precedence edge spanned
// by the swapped range. Up to budget positions are resampled on an
// illegal draw; if none is legal, parent is returned unchanged.
func SwapMutate(idx *ProjectIndex, parent PriorityList, budget int, rng *rand.Rand) PriorityList {
	n := len(parent)
	if n <= 3 {
		return parent
	}

	for attempt := 0; attempt < budget; attempt++ {
		a := 1 + rng.Intn(n-2)
		b := 1 + rng.Intn(n-2)
		if a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		if swapLegal(idx, parent, a, b) {
			child := parent.Clone()
			child[a], child[b] = child[b], child[a]
			return child
		}
	}
	return parent
}

func swapLegal(idx *ProjectIndex, perm PriorityList, a, b int) bool {
	pa, pb := perm[a], perm[b]
	for k := a; k <= b; k++ {
		task := perm[k]
		if task != pa && idx.IsSuccessor(pa, task) {
			return false
		}
		if task != pb && idx.IsSuccessor(task, pb) {
			return false
		}
	}
	return true
}
