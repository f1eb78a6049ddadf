package rcpsp

// Metrics bundles the pure, on-demand measurements derived from a
// decoded schedule.
type Metrics struct {
	Makespan int

	// ResourceUtilization holds U_k for every resource, in resource
	// order: the fraction of that resource's total available
	// capacity-time actually consumed over the schedule's horizon. It is
	// 0 for resources with capacity 0.
	ResourceUtilization []float64

	// MeanUtilization is the mean of ResourceUtilization over
	// resources with capacity > 0 (0 if there are none).
	MeanUtilization float64

	// AverageConcurrency is (sum of durations of tasks with
	// duration > 0) / makespan.
	AverageConcurrency float64
}

// ComputeMetrics derives Metrics from a decoded schedule. It is a pure
// function of (idx, schedule).
func ComputeMetrics(idx *ProjectIndex, s Schedule) Metrics {
	makespan := s.Makespan(idx)

	util := make([]float64, idx.numResources)
	var utilSum float64
	var utilCount int
	for k := 0; k < idx.numResources; k++ {
		cap := idx.capacities[k]
		if cap <= 0 {
			continue
		}
		var consumed int64
		for i := 0; i < idx.numTasks; i++ {
			consumed += int64(idx.durations[i]) * int64(idx.requirements[i][k])
		}
		var u float64
		if makespan > 0 {
			u = float64(consumed) / float64(int64(cap)*int64(makespan))
		}
		util[k] = u
		utilSum += u
		utilCount++
	}
	mean := 0.0
	if utilCount > 0 {
		mean = utilSum / float64(utilCount)
	}

	var activeDuration int64
	for i := 0; i < idx.numTasks; i++ {
		if idx.durations[i] > 0 {
			activeDuration += int64(idx.durations[i])
		}
	}
	concurrency := 0.0
	if makespan > 0 {
		concurrency = float64(activeDuration) / float64(makespan)
	}

	return Metrics{
		Makespan:            makespan,
		ResourceUtilization: util,
		MeanUtilization:     mean,
		AverageConcurrency:  concurrency,
	}
}
