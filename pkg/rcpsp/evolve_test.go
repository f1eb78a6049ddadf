package rcpsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvolve_ImprovesOrMatchesInitialBest(t *testing.T) {
	idx := contentionProject(t)
	cfg := Config{
		Generations:        30,
		PopulationSize:     20,
		TournamentK:        3,
		Elitism:            2,
		CrossoverRate:      0.9,
		MutationRate:       0.3,
		MutationSwapBudget: 8,
		Seed:               123,
		Workers:            4,
	}
	pop := InitialPopulation(idx, cfg.PopulationSize, cfg.Seed)
	initialBest := pop[0]
	for _, p := range pop {
		if Decode(idx, p).Makespan(idx) < Decode(idx, initialBest).Makespan(idx) {
			initialBest = p
		}
	}
	initialBestMakespan := Decode(idx, initialBest).Makespan(idx)

	result, err := Evolve(idx, cfg, pop, nil)
	require.NoError(t, err)

	assert.LessOrEqual(t, result.BestMakespan, initialBestMakespan)
	assert.Equal(t, result.BestMakespan, Decode(idx, result.BestPriorityList).Makespan(idx))
	assertAdmissible(t, idx, result.BestPriorityList)
	assert.Equal(t, StoppedMaxGenerations, result.StoppedReason)
	assert.Equal(t, cfg.Generations, result.GenerationsRun)
	require.Len(t, result.History, cfg.Generations)
}

func TestEvolve_FindsOptimalOnSmallContentionProject(t *testing.T) {
	idx := contentionProject(t)
	cfg := Config{
		Generations:        60,
		PopulationSize:     24,
		TournamentK:        3,
		Elitism:            2,
		CrossoverRate:      0.9,
		MutationRate:       0.3,
		MutationSwapBudget: 8,
		Seed:               7,
		Workers:            1,
	}
	pop := InitialPopulation(idx, cfg.PopulationSize, cfg.Seed)

	result, err := Evolve(idx, cfg, pop, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, result.BestMakespan)
}

// TestEvolve_IsDeterministicRegardlessOfWorkerCount covers that every
// random draw shaping the offspring batch happens on the calling
// goroutine before dispatch, so the worker pool's degree of parallelism
// never perturbs the result.
func TestEvolve_IsDeterministicRegardlessOfWorkerCount(t *testing.T) {
	idx := contentionProject(t)
	baseCfg := Config{
		Generations:        25,
		PopulationSize:     16,
		TournamentK:        3,
		Elitism:            1,
		CrossoverRate:      0.85,
		MutationRate:       0.25,
		MutationSwapBudget: 6,
		Seed:               55,
	}

	var results []*EvolutionResult
	for _, workers := range []int{1, 2, 8} {
		cfg := baseCfg
		cfg.Workers = workers
		pop := InitialPopulation(idx, cfg.PopulationSize, cfg.Seed)
		result, err := Evolve(idx, cfg, pop, nil)
		require.NoError(t, err)
		results = append(results, result)
	}

	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0].BestPriorityList, results[i].BestPriorityList)
		assert.Equal(t, results[0].History, results[i].History)
		assert.Equal(t, results[0].BestMakespan, results[i].BestMakespan)
	}
}

func TestEvolve_HistoryIsMonotonicNonIncreasing(t *testing.T) {
	idx := contentionProject(t)
	cfg := Config{
		Generations:        40,
		PopulationSize:     20,
		TournamentK:        3,
		Elitism:            2,
		CrossoverRate:      0.9,
		MutationRate:       0.2,
		MutationSwapBudget: 8,
		Seed:               9,
		Workers:            2,
	}
	pop := InitialPopulation(idx, cfg.PopulationSize, cfg.Seed)
	result, err := Evolve(idx, cfg, pop, nil)
	require.NoError(t, err)

	for i := 1; i < len(result.History); i++ {
		assert.LessOrEqual(t, result.History[i], result.History[i-1])
	}
}

func TestEvolve_StopsOnCancellation(t *testing.T) {
	idx := contentionProject(t)
	cfg := Config{
		Generations:    1000,
		PopulationSize: 16,
		Seed:           1,
	}.WithDefaults()
	pop := InitialPopulation(idx, cfg.PopulationSize, cfg.Seed)

	cancel := make(chan struct{})
	close(cancel)

	result, err := Evolve(idx, cfg, pop, cancel)
	require.NoError(t, err)
	assert.Equal(t, StoppedCancelled, result.StoppedReason)
	assert.Equal(t, 0, result.GenerationsRun)
}

func TestEvolve_StopsOnNoImprovement(t *testing.T) {
	idx := contentionProject(t)
	limit := 3
	cfg := Config{
		Generations:        500,
		PopulationSize:     16,
		TournamentK:        3,
		Elitism:            1,
		CrossoverRate:      0.0,
		MutationRate:       0.0,
		MutationSwapBudget: 8,
		NoImproveStop:      &limit,
		Seed:               2,
		Workers:            1,
	}
	pop := InitialPopulation(idx, cfg.PopulationSize, cfg.Seed)

	result, err := Evolve(idx, cfg, pop, nil)
	require.NoError(t, err)
	assert.Equal(t, StoppedNoImprovement, result.StoppedReason)
	assert.LessOrEqual(t, result.GenerationsRun, cfg.Generations)
}
