package rcpsp

import "fmt"

// RawProject is the plain-record input consumed by BuildProject. It
// carries no derived indices and is not validated until BuildProject
// runs; callers (project-file parsers, the HTTP API, the CLI) build
// one from whatever external representation they read.
type RawProject struct {
	// Durations holds one non-negative integer duration per task, in
	// id order. Durations[0] must be 0 (the source) and
	// Durations[len-1] must be 0 (the sink).
	Durations []int

	// Requirements holds one row per task, one column per resource:
	// Requirements[i][k] is task i's requirement for resource k.
	Requirements [][]int

	// Capacities holds one non-negative integer capacity per resource.
	Capacities []int

	// Precedences holds the raw (u, v) pairs meaning u must finish at
	// or before v starts.
	Precedences [][2]int
}

// ProjectIndex is the immutable, read-only representation of a
// validated project: tasks, resources, and the derived precedence
// index (forward/reverse adjacency, in-degree, transitive-successor
// closure). It is built once by BuildProject and thereafter shared by
// reference across every decode and every generation of the GA.
type ProjectIndex struct {
	numTasks     int
	numResources int

	durations    []int
	requirements [][]int
	capacities   []int

	successors   [][]int
	predecessors [][]int
	inDegree     []int

	// succClosure[u] has bit v set iff v is a transitive successor of
	// u (u must finish at or before v starts, directly or through a
	// chain of precedences). Used by the swap-mutation legality check.
	succClosure []bitset
}

// Source is the id of the sentinel source task (always 0).
func (p *ProjectIndex) Source() int { return 0 }

// Sink is the id of the sentinel sink task (always NumTasks-1).
func (p *ProjectIndex) Sink() int { return p.numTasks - 1 }

// NumTasks returns the number of tasks, including source and sink.
func (p *ProjectIndex) NumTasks() int { return p.numTasks }

// NumResources returns the number of renewable resources.
func (p *ProjectIndex) NumResources() int { return p.numResources }

// Duration returns task i's fixed duration.
func (p *ProjectIndex) Duration(i int) int { return p.durations[i] }

// Requirement returns task i's requirement for resource k.
func (p *ProjectIndex) Requirement(i, k int) int { return p.requirements[i][k] }

// Capacity returns resource k's fixed capacity.
func (p *ProjectIndex) Capacity(k int) int { return p.capacities[k] }

// Predecessors returns the ids that must finish before i starts.
// The returned slice must not be mutated by the caller.
func (p *ProjectIndex) Predecessors(i int) []int { return p.predecessors[i] }

// Successors returns the ids that cannot start before i finishes.
// The returned slice must not be mutated by the caller.
func (p *ProjectIndex) Successors(i int) []int { return p.successors[i] }

// InDegree returns the number of direct predecessors of i.
func (p *ProjectIndex) InDegree(i int) int { return p.inDegree[i] }

// IsSuccessor reports whether v is a transitive successor of u, i.e.
// u must finish at or before v starts whether directly or through a
// chain of precedences.
func (p *ProjectIndex) IsSuccessor(u, v int) bool {
	return p.succClosure[u].test(v)
}

// BuildProject validates raw and, on success, returns the immutable
// ProjectIndex used by every other operation in this package. It
// fails with an *InvalidProjectError on cycles, dangling ids, negative
// values, missing source/sink invariants, or a task requiring more of
// a resource than that resource's capacity.
func BuildProject(raw RawProject) (*ProjectIndex, error) {
	n := len(raw.Durations)
	if n < 2 {
		return nil, invalidProjectf("project must have at least a source and a sink, got %d tasks", n)
	}
	m := len(raw.Capacities)

	if err := validateDurations(raw.Durations); err != nil {
		return nil, err
	}
	if err := validateRequirements(raw.Requirements, n, m); err != nil {
		return nil, err
	}
	if err := validateCapacities(raw.Capacities); err != nil {
		return nil, err
	}
	if raw.Durations[0] != 0 {
		return nil, invalidProjectf("source task 0 must have zero duration, got %d", raw.Durations[0])
	}
	if raw.Durations[n-1] != 0 {
		return nil, invalidProjectf("sink task %d must have zero duration, got %d", n-1, raw.Durations[n-1])
	}
	if err := requireZeroRequirements(raw.Requirements[0]); err != nil {
		return nil, invalidProjectf("source task 0 must have zero requirements: %v", err)
	}
	if err := requireZeroRequirements(raw.Requirements[n-1]); err != nil {
		return nil, invalidProjectf("sink task %d must have zero requirements: %v", n-1, err)
	}

	successors := make([][]int, n)
	predecessors := make([][]int, n)
	inDegree := make([]int, n)

	seen := make(map[[2]int]bool, len(raw.Precedences))
	for _, e := range raw.Precedences {
		u, v := e[0], e[1]
		if u < 0 || u >= n || v < 0 || v >= n {
			return nil, invalidProjectf("precedence (%d, %d) references a task outside [0, %d)", u, v, n)
		}
		if u == v {
			return nil, invalidProjectf("precedence (%d, %d) is a self-loop", u, v)
		}
		if seen[[2]int{u, v}] {
			continue
		}
		seen[[2]int{u, v}] = true
		successors[u] = append(successors[u], v)
		predecessors[v] = append(predecessors[v], u)
		inDegree[v]++
	}

	// The source precedes every real task that has no other predecessor,
	// and every real task that has no successor precedes the sink. This
	// keeps the source/sink invariant true without forcing callers to
	// spell out every edge to the sentinels.
	source, sink := 0, n-1
	for v := 1; v < sink; v++ {
		if !seen[[2]int{source, v}] && inDegree[v] == 0 {
			successors[source] = append(successors[source], v)
			predecessors[v] = append(predecessors[v], source)
			inDegree[v]++
			seen[[2]int{source, v}] = true
		}
	}
	for u := 1; u < sink; u++ {
		if !seen[[2]int{u, sink}] && len(successors[u]) == 0 {
			successors[u] = append(successors[u], sink)
			predecessors[sink] = append(predecessors[sink], u)
			inDegree[sink]++
			seen[[2]int{u, sink}] = true
		}
	}
	if inDegree[source] != 0 {
		return nil, invalidProjectf("source task %d cannot have predecessors", source)
	}
	if len(successors[sink]) != 0 {
		return nil, invalidProjectf("sink task %d cannot have successors", sink)
	}

	topo, err := topologicalOrder(n, inDegree, successors)
	if err != nil {
		return nil, err
	}

	for i := 0; i < m; i++ {
		for t := 0; t < n; t++ {
			if raw.Requirements[t][i] > raw.Capacities[i] {
				return nil, invalidProjectf("task %d requires %d of resource %d, exceeding its capacity %d",
					t, raw.Requirements[t][i], i, raw.Capacities[i])
			}
		}
	}

	durations := append([]int(nil), raw.Durations...)
	requirements := make([][]int, n)
	for i := range raw.Requirements {
		requirements[i] = append([]int(nil), raw.Requirements[i]...)
	}
	capacities := append([]int(nil), raw.Capacities...)

	idx := &ProjectIndex{
		numTasks:     n,
		numResources: m,
		durations:    durations,
		requirements: requirements,
		capacities:   capacities,
		successors:   successors,
		predecessors: predecessors,
		inDegree:     inDegree,
	}
	idx.succClosure = buildSuccessorClosure(n, topo, successors)
	return idx, nil
}

// topologicalOrder runs Kahn's algorithm over a copy of inDegree and
// fails with InvalidProject if a cycle is detected (some tasks never
// reach in-degree zero).
func topologicalOrder(n int, inDegree []int, successors [][]int) ([]int, error) {
	deg := append([]int(nil), inDegree...)
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if deg[i] == 0 {
			queue = append(queue, i)
		}
	}
	order := make([]int, 0, n)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		order = append(order, u)
		for _, v := range successors[u] {
			deg[v]--
			if deg[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	if len(order) != n {
		return nil, invalidProjectf("precedence graph contains a cycle")
	}
	return order, nil
}

// buildSuccessorClosure computes, for every task, the set of all
// transitive successors. Processing tasks in reverse topological order
// lets each task's closure be assembled from its direct successors'
// already-complete closures in a single pass: O(n * words-per-bitset)
// plus O(e) edge unions.
func buildSuccessorClosure(n int, topo []int, successors [][]int) []bitset {
	closure := make([]bitset, n)
	for i := range closure {
		closure[i] = newBitset(n)
	}
	for i := len(topo) - 1; i >= 0; i-- {
		u := topo[i]
		for _, v := range successors[u] {
			closure[u].set(v)
			closure[u].union(closure[v])
		}
	}
	return closure
}

func validateDurations(d []int) error {
	for i, v := range d {
		if v < 0 {
			return invalidProjectf("task %d has negative duration %d", i, v)
		}
	}
	return nil
}

func validateRequirements(reqs [][]int, n, m int) error {
	if len(reqs) != n {
		return invalidProjectf("expected %d requirement rows, got %d", n, len(reqs))
	}
	for i, row := range reqs {
		if len(row) != m {
			return invalidProjectf("task %d has %d requirement columns, expected %d", i, len(row), m)
		}
		for k, v := range row {
			if v < 0 {
				return invalidProjectf("task %d has negative requirement %d for resource %d", i, v, k)
			}
		}
	}
	return nil
}

func validateCapacities(caps []int) error {
	for k, v := range caps {
		if v < 0 {
			return invalidProjectf("resource %d has negative capacity %d", k, v)
		}
	}
	return nil
}

func requireZeroRequirements(row []int) error {
	for k, v := range row {
		if v != 0 {
			return fmt.Errorf("resource %d requirement must be zero, got %d", k, v)
		}
	}
	return nil
}
