package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/khryptorgraphics/rcpspga/pkg/projectfile"
	"github.com/khryptorgraphics/rcpspga/pkg/rcpsp"
	"github.com/khryptorgraphics/rcpspga/pkg/store"
)

// createProjectRequest is the wire shape for POST /projects; it mirrors
// rcpsp.RawProject field-for-field.
type createProjectRequest struct {
	Durations    []int    `json:"durations" binding:"required"`
	Requirements [][]int  `json:"requirements" binding:"required"`
	Capacities   []int    `json:"capacities" binding:"required"`
	Precedences  [][2]int `json:"precedences"`
}

// createProjectHandler validates and indexes a project, returning an
// opaque ID the caller uses for subsequent decode/evolve calls. Bodies
// sent as application/x-yaml or text/yaml are parsed as the named
// pkg/projectfile format; everything else is read as the raw,
// index-based JSON shape.
func (s *Server) createProjectHandler(c *gin.Context) {
	raw, err := s.parseProjectBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request", "detail": err.Error()})
		return
	}

	idx, err := rcpsp.BuildProject(raw)
	if err != nil {
		if rcpsp.IsInvalidProject(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid_project", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	fingerprint := store.ProjectFingerprint(raw)
	id := s.storeProject(idx, fingerprint)
	c.JSON(http.StatusCreated, gin.H{
		"project_id":    id,
		"fingerprint":   fingerprint,
		"num_tasks":     idx.NumTasks(),
		"num_resources": idx.NumResources(),
	})
}

// parseProjectBody reads the request body as either the named YAML
// project-file format or the raw positional JSON shape, depending on
// Content-Type.
func (s *Server) parseProjectBody(c *gin.Context) (rcpsp.RawProject, error) {
	contentType := c.ContentType()
	if strings.Contains(contentType, "yaml") {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return rcpsp.RawProject{}, err
		}
		var pf projectfile.File
		if err := yaml.Unmarshal(body, &pf); err != nil {
			return rcpsp.RawProject{}, err
		}
		return pf.ToRawProject()
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return rcpsp.RawProject{}, err
	}
	return rcpsp.RawProject{
		Durations:    req.Durations,
		Requirements: req.Requirements,
		Capacities:   req.Capacities,
		Precedences:  req.Precedences,
	}, nil
}

// decodeRequest supplies the priority list to run through the
// deterministic serial schedule generation scheme.
type decodeRequest struct {
	PriorityList []int `json:"priority_list" binding:"required"`
}

func (s *Server) decodeHandler(c *gin.Context) {
	idx, ok := s.lookupProject(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	var req decodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request", "detail": err.Error()})
		return
	}

	sched := rcpsp.Decode(idx, rcpsp.PriorityList(req.PriorityList))
	metrics := rcpsp.ComputeMetrics(idx, sched)

	c.JSON(http.StatusOK, gin.H{
		"makespan": sched.Makespan(idx),
		"start":    sched.Start,
		"metrics":  metrics,
	})
}

// evolveRequest overrides rcpsp.Config's defaults; zero fields fall
// back to internal/config's GA defaults (a zero seed to the current
// time), and Config.WithDefaults then fills anything still unset.
type evolveRequest struct {
	Generations        int     `json:"generations"`
	PopulationSize     int     `json:"population_size"`
	TournamentK        int     `json:"tournament_k"`
	Elitism            int     `json:"elitism"`
	CrossoverRate      float64 `json:"crossover_rate"`
	MutationRate       float64 `json:"mutation_rate"`
	MutationSwapBudget int     `json:"mutation_swap_budget"`
	NoImproveStop      *int    `json:"no_improve_stop"`
	Seed               int64   `json:"seed"`
	Workers            int     `json:"workers"`
}

// evolveHandler starts an asynchronous evolve run tracked in
// pkg/store.JobCache and returns its job ID immediately; progress is
// polled via GET /jobs/:id or streamed via GET /ws/jobs/:id.
func (s *Server) evolveHandler(c *gin.Context) {
	projectID := c.Param("id")
	idx, ok := s.lookupProject(projectID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence not configured"})
		return
	}

	var req evolveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request", "detail": err.Error()})
		return
	}

	ga := s.config.GA
	cfg := rcpsp.Config{
		Generations:        req.Generations,
		PopulationSize:     req.PopulationSize,
		TournamentK:        req.TournamentK,
		Elitism:            req.Elitism,
		CrossoverRate:      req.CrossoverRate,
		MutationRate:       req.MutationRate,
		MutationSwapBudget: req.MutationSwapBudget,
		NoImproveStop:      req.NoImproveStop,
		Seed:               req.Seed,
		Workers:            req.Workers,
	}
	if cfg.Generations <= 0 {
		cfg.Generations = ga.Generations
	}
	if cfg.PopulationSize <= 0 {
		cfg.PopulationSize = ga.PopulationSize
	}
	if cfg.TournamentK <= 0 {
		cfg.TournamentK = ga.TournamentK
	}
	if cfg.Elitism <= 0 {
		cfg.Elitism = ga.Elitism
	}
	if cfg.CrossoverRate <= 0 {
		cfg.CrossoverRate = ga.CrossoverRate
	}
	if cfg.MutationRate <= 0 {
		cfg.MutationRate = ga.MutationRate
	}
	if cfg.MutationSwapBudget <= 0 {
		cfg.MutationSwapBudget = ga.MutationSwapBudget
	}
	if cfg.Workers <= 0 {
		cfg.Workers = ga.Workers
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	cfg = cfg.WithDefaults()

	jobID := uuid.New().String()
	ctx := context.Background()
	if err := s.store.Jobs.Put(ctx, store.JobStatus{ID: jobID, Status: store.JobStatusQueued}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue job"})
		return
	}

	fingerprint := s.lookupFingerprint(projectID)
	go s.runEvolveJob(jobID, idx, cfg, fingerprint)

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// runEvolveJob drives one evolve call to completion in the background,
// publishing progress after every generation and persisting the final
// result to pkg/store.RunRepository.
func (s *Server) runEvolveJob(jobID string, idx *rcpsp.ProjectIndex, cfg rcpsp.Config, fingerprint string) {
	ctx := context.Background()
	_ = s.store.Jobs.PublishProgress(ctx, store.JobStatus{ID: jobID, Status: store.JobStatusRunning})

	cfg.OnGeneration = func(generation, bestMakespan int) {
		_ = s.store.Jobs.PublishProgress(ctx, store.JobStatus{
			ID:                jobID,
			Status:            store.JobStatusRunning,
			CurrentGeneration: generation,
			BestMakespanSoFar: bestMakespan,
		})
	}

	population := rcpsp.InitialPopulation(idx, cfg.PopulationSize, cfg.Seed)
	result, err := rcpsp.Evolve(idx, cfg, population, nil)
	if err != nil {
		_ = s.store.Jobs.PublishProgress(ctx, store.JobStatus{ID: jobID, Status: store.JobStatusFailed, Error: err.Error()})
		s.logger.Error("evolve job failed", "job_id", jobID, "error", err)
		return
	}

	_ = s.store.Jobs.PublishProgress(ctx, store.JobStatus{
		ID:                jobID,
		Status:            store.JobStatusDone,
		CurrentGeneration: result.GenerationsRun,
		BestMakespanSoFar: result.BestMakespan,
	})

	baseline := rcpsp.Decode(idx, rcpsp.NaturalOrderBaseline(idx))
	baselineMakespan := baseline.Makespan(idx)

	record := &store.RunRecord{
		ProjectFingerprint: fingerprint,
		Config: store.JSONMap{
			"generations": cfg.Generations,
			"population":  cfg.PopulationSize,
			"seed":        cfg.Seed,
			"workers":     cfg.Workers,
		},
		BestMakespan:     result.BestMakespan,
		BestPriorityList: store.PriorityListToJSONArray(result.BestPriorityList),
		GenerationsRun:   result.GenerationsRun,
		StoppedReason:    result.StoppedReason,
		BaselineMakespan: &baselineMakespan,
	}
	if err := s.store.Runs.Create(ctx, record); err != nil {
		s.logger.Error("failed to persist run record", "job_id", jobID, "error", err)
	}
}

func (s *Server) jobStatusHandler(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence not configured"})
		return
	}
	status, err := s.store.Jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// healthHandler reports backend connectivity and is never behind auth.
func (s *Server) healthHandler(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusOK, gin.H{"overall": "healthy", "persistence": "disabled"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	health, _ := s.store.Health(ctx)
	status := http.StatusOK
	if health.Overall != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

// metricsHandler reports lightweight process counters; Prometheus
// scraping of per-route latency is handled by loggingMiddleware's
// structured log lines rather than a counter registry, since the
// solver runs as a small number of long-lived jobs rather than a
// high-QPS service.
func (s *Server) metricsHandler(c *gin.Context) {
	s.mu.RLock()
	projectCount := len(s.projects)
	s.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{
		"projects_held":  projectCount,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	})
}
