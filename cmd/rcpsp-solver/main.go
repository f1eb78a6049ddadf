package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/khryptorgraphics/rcpspga/internal/config"
	"github.com/khryptorgraphics/rcpspga/pkg/api"
	"github.com/khryptorgraphics/rcpspga/pkg/projectfile"
	"github.com/khryptorgraphics/rcpspga/pkg/rcpsp"
	"github.com/khryptorgraphics/rcpspga/pkg/store"
)

var version = "0.1.0-dev"

const shutdownGracePeriod = 10 * time.Second

func main() {
	root := &cobra.Command{
		Use:   "rcpsp-solver",
		Short: "Resource-constrained project scheduling solver",
		Long: `rcpsp-solver decodes and optimizes resource-constrained project
schedules: a serial schedule generation scheme decoder and a genetic
optimizer (POX crossover, precedence-safe swap mutation) over
precedence-and-capacity-feasible priority lists.

Projects are described in a YAML file naming tasks, their durations,
their per-resource requirements, and the precedences between them.`,
		Version: version,
		Example: `  # Validate a project file
  rcpsp-solver build project.yaml

  # Optimize a project and print the best schedule found
  rcpsp-solver evolve project.yaml --generations 300 --seed 7

  # Decode one specific priority list
  rcpsp-solver decode project.yaml priorities.yaml

  # Start the HTTP API
  rcpsp-solver serve --config config.yaml`,
	}

	root.AddCommand(buildCmd())
	root.AddCommand(evolveCmd())
	root.AddCommand(decodeCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func loadProject(path string) (*projectfile.File, *rcpsp.ProjectIndex, error) {
	pf, err := projectfile.Load(path)
	if err != nil {
		return nil, nil, err
	}
	raw, err := pf.ToRawProject()
	if err != nil {
		return nil, nil, fmt.Errorf("compiling project file: %w", err)
	}
	idx, err := rcpsp.BuildProject(raw)
	if err != nil {
		return nil, nil, err
	}
	return pf, idx, nil
}

func buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build <project.yaml>",
		Short: "Validate a project file and report any InvalidProject diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, idx, err := loadProject(args[0])
			if err != nil {
				if rcpsp.IsInvalidProject(err) {
					return fmt.Errorf("invalid project: %w", err)
				}
				return err
			}
			fmt.Printf("project valid: %d tasks, %d resources\n", idx.NumTasks(), idx.NumResources())
			return nil
		},
	}
}

func evolveCmd() *cobra.Command {
	var (
		generations        int
		population         int
		tournamentK        int
		elitism            int
		crossoverRate      float64
		mutationRate       float64
		mutationSwapBudget int
		noImproveStop      int
		seed               int64
		workers            int
		compareBaseline    bool
	)

	cmd := &cobra.Command{
		Use:   "evolve <project.yaml>",
		Short: "Run the genetic optimizer to completion and print the best schedule found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, idx, err := loadProject(args[0])
			if err != nil {
				return err
			}

			cfg := rcpsp.Config{
				Generations:        generations,
				PopulationSize:     population,
				TournamentK:        tournamentK,
				Elitism:            elitism,
				CrossoverRate:      crossoverRate,
				MutationRate:       mutationRate,
				MutationSwapBudget: mutationSwapBudget,
				Seed:               seed,
				Workers:            workers,
			}
			if noImproveStop > 0 {
				cfg.NoImproveStop = &noImproveStop
			}
			cfg = cfg.WithDefaults()

			pop := rcpsp.InitialPopulation(idx, cfg.PopulationSize, cfg.Seed)
			result, err := rcpsp.Evolve(idx, cfg, pop, nil)
			if err != nil {
				return fmt.Errorf("evolve: %w", err)
			}

			fmt.Printf("best makespan: %d\n", result.BestMakespan)
			fmt.Printf("generations run: %d (%s)\n", result.GenerationsRun, result.StoppedReason)
			fmt.Printf("priority list: %v\n", pf.PriorityListToIDs(result.BestPriorityList))
			for i, id := range pf.TaskIDs() {
				fmt.Printf("  %-16s start=%d finish=%d\n", id, result.BestSchedule.Start[i], result.BestSchedule.Finish(idx, i))
			}

			if compareBaseline {
				baseline := rcpsp.Decode(idx, rcpsp.NaturalOrderBaseline(idx))
				baselineMakespan := baseline.Makespan(idx)
				fmt.Printf("baseline makespan (natural order): %d\n", baselineMakespan)
				if baselineMakespan > 0 {
					fmt.Printf("improvement: %.1f%%\n", 100*(1-float64(result.BestMakespan)/float64(baselineMakespan)))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&generations, "generations", 0, "number of generations (0 selects the package default)")
	cmd.Flags().IntVar(&population, "population", 0, "population size (0 selects the package default)")
	cmd.Flags().IntVar(&tournamentK, "tournament-k", 0, "tournament selection size")
	cmd.Flags().IntVar(&elitism, "elitism", 0, "number of top individuals carried over unchanged")
	cmd.Flags().Float64Var(&crossoverRate, "crossover-rate", 0, "POX crossover probability")
	cmd.Flags().Float64Var(&mutationRate, "mutation-rate", 0, "per-individual swap mutation probability")
	cmd.Flags().IntVar(&mutationSwapBudget, "mutation-swap-budget", 0, "legal-swap search budget per mutation")
	cmd.Flags().IntVar(&noImproveStop, "no-improve-stop", 0, "stop early after this many generations without improvement (0 disables)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "RNG seed; reruns with the same seed and worker count reproduce bit-identical results")
	cmd.Flags().IntVar(&workers, "workers", 0, "fitness-evaluation worker pool size")
	cmd.Flags().BoolVar(&compareBaseline, "compare-baseline", false, "also report the non-optimized natural-order baseline makespan")

	return cmd
}

func decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <project.yaml> <priority-list.yaml>",
		Short: "Run one priority list through the serial schedule generation scheme",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, idx, err := loadProject(args[0])
			if err != nil {
				return err
			}

			priorityFile, err := projectfile.LoadPriorityFile(args[1])
			if err != nil {
				return err
			}
			list, err := pf.ResolvePriorityList(priorityFile)
			if err != nil {
				return err
			}

			sched := rcpsp.Decode(idx, list)
			metrics := rcpsp.ComputeMetrics(idx, sched)

			fmt.Printf("makespan: %d\n", sched.Makespan(idx))
			fmt.Printf("mean resource utilization: %.2f\n", metrics.MeanUtilization)
			for i, id := range pf.TaskIDs() {
				fmt.Printf("  %-16s start=%d finish=%d\n", id, sched.Start[i], sched.Finish(idx, i))
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			logger := newLogger()
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var st *store.Manager
			st, err = store.NewManager(ctx, cfg.Database, cfg.Redis, logger)
			if err != nil {
				logger.Warn("persistence unavailable, continuing without it", "error", err)
				st = nil
			}
			if st != nil {
				defer st.Close()
				if err := st.Migrate(ctx); err != nil {
					return fmt.Errorf("migrating database: %w", err)
				}
			}

			srv, err := api.NewServer(cfg, st, logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(ctx) }()

			select {
			case <-ctx.Done():
				stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
				defer stopCancel()
				return srv.Stop(stopCtx)
			case err := <-errCh:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file path (defaults embedded if omitted)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}
