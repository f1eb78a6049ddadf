package rcpsp

// Schedule maps task id to its non-negative integer start time. Finish
// times are derived (Finish(idx) = Start[i] + idx.Duration(i)) rather
// than stored, since ProjectIndex already holds the durations.
type Schedule struct {
	Start []int
}

// Finish returns task i's finish time under this schedule.
func (s Schedule) Finish(idx *ProjectIndex, i int) int {
	return s.Start[i] + idx.Duration(i)
}

// Makespan returns the sink's finish time, the schedule's optimization
// objective.
func (s Schedule) Makespan(idx *ProjectIndex) int {
	return s.Finish(idx, idx.Sink())
}

// Decode runs the Serial Schedule Generation Scheme: it processes
// tasks in the order given by priorityList and, for each, places it at
// the earliest instant that is simultaneously precedence-feasible and
// capacity-feasible, reserving its resource requirements over its
// execution window before moving to the next task. Decode is a pure
// function of (idx, priorityList): equal inputs always yield equal
// schedules, with no hidden state, and it is total on any topologically
// admissible priorityList because BuildProject already rejected any
// project where a task's requirement exceeds its resource's capacity.
func Decode(idx *ProjectIndex, priorityList PriorityList) Schedule {
	n := idx.numTasks
	start := make([]int, n)
	finish := make([]int, n)
	profile := newResourceProfile(idx.capacities)

	for _, i := range priorityList {
		earliest := 0
		for _, u := range idx.predecessors[i] {
			if finish[u] > earliest {
				earliest = finish[u]
			}
		}

		d := idx.durations[i]
		var s int
		if d == 0 {
			s = earliest
		} else {
			s = profile.earliestFeasibleStart(earliest, d, idx.requirements[i])
			profile.reserveAll(s, s+d, idx.requirements[i])
		}

		start[i] = s
		finish[i] = s + d
	}

	return Schedule{Start: start}
}

// resourceProfile is the dense, array-indexed time-keyed structure the
// decoder uses to test and reserve remaining capacity. Each resource's
// remaining-capacity track grows lazily as the decode advances past
// its current length; any instant beyond the tracked length is, by
// construction, still at full capacity. The sum of all task durations
// is a safe upper bound on how far any track will ever need to grow.
type resourceProfile struct {
	capacity  []int
	remaining [][]int
}

func newResourceProfile(capacity []int) *resourceProfile {
	return &resourceProfile{
		capacity:  capacity,
		remaining: make([][]int, len(capacity)),
	}
}

func (p *resourceProfile) at(k, t int) int {
	track := p.remaining[k]
	if t < len(track) {
		return track[t]
	}
	return p.capacity[k]
}

func (p *resourceProfile) ensure(k, upto int) {
	track := p.remaining[k]
	for len(track) < upto {
		track = append(track, p.capacity[k])
	}
	p.remaining[k] = track
}

// earliestFeasibleStart finds the smallest t >= earliest such that for
// every resource k with reqs[k] > 0, the remaining capacity is at
// least reqs[k] throughout [t, t+duration). On failure at some instant
// it advances t to the first time at or after that instant where
// capacity recovers, and restarts the test from there.
func (p *resourceProfile) earliestFeasibleStart(earliest, duration int, reqs []int) int {
	t := earliest
	for {
		advanced := false
		for k, req := range reqs {
			if req <= 0 {
				continue
			}
			for ti := t; ti < t+duration; ti++ {
				if p.at(k, ti) < req {
					t = p.recoveryTime(k, ti, req)
					advanced = true
					break
				}
			}
			if advanced {
				break
			}
		}
		if !advanced {
			return t
		}
	}
}

// recoveryTime returns the first instant at or after from where
// resource k's remaining capacity is again at least req.
func (p *resourceProfile) recoveryTime(k, from, req int) int {
	for t := from; ; t++ {
		if p.at(k, t) >= req {
			return t
		}
	}
}

// reserveAll subtracts reqs[k] units of every resource with a positive
// requirement from the interval [start, finish).
func (p *resourceProfile) reserveAll(start, finish int, reqs []int) {
	for k, req := range reqs {
		if req <= 0 {
			continue
		}
		p.ensure(k, finish)
		track := p.remaining[k]
		for t := start; t < finish; t++ {
			track[t] -= req
		}
	}
}
