package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RunRepository persists and queries evolve run history.
type RunRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewRunRepository constructs a RunRepository over db.
func NewRunRepository(db *sqlx.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

// Create inserts record, filling in its ID and CreatedAt.
func (r *RunRepository) Create(ctx context.Context, record *RunRecord) error {
	query := `
		INSERT INTO runs (project_fingerprint, config, best_makespan, best_priority_list,
			generations_run, stopped_reason, baseline_makespan)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		record.ProjectFingerprint, record.Config, record.BestMakespan, record.BestPriorityList,
		record.GenerationsRun, record.StoppedReason, record.BaselineMakespan).
		Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: creating run record: %w", err)
	}

	r.logger.Info("run recorded",
		"run_id", record.ID,
		"project_fingerprint", record.ProjectFingerprint,
		"best_makespan", record.BestMakespan)
	return nil
}

// GetByID retrieves a single run by its ID.
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	var record RunRecord
	query := `SELECT * FROM runs WHERE id = $1`
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("store: run not found: %s", id)
		}
		return nil, fmt.Errorf("store: getting run: %w", err)
	}
	return &record, nil
}

// ListByFingerprint returns every run recorded for a given project
// fingerprint, most recent first, bounded by limit.
func (r *RunRepository) ListByFingerprint(ctx context.Context, fingerprint string, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT * FROM runs WHERE project_fingerprint = $1 ORDER BY created_at DESC LIMIT $2`

	var records []*RunRecord
	if err := r.db.SelectContext(ctx, &records, query, fingerprint, limit); err != nil {
		return nil, fmt.Errorf("store: listing runs: %w", err)
	}
	return records, nil
}

// BaselineComparison bundles an optimized run's result against the
// non-optimized baseline makespan recorded with that same run.
type BaselineComparison struct {
	OptimizedMakespan int     `json:"optimized_makespan"`
	BaselineMakespan  int     `json:"baseline_makespan"`
	ImprovementRatio  float64 `json:"improvement_ratio"`
}

// CompareToBaseline finds the most recent run for fingerprint and
// compares its best_makespan to its recorded baseline_makespan, so
// callers can confirm the optimizer never regresses past the
// natural-order baseline for a given project.
func (r *RunRepository) CompareToBaseline(ctx context.Context, fingerprint string) (*BaselineComparison, error) {
	runs, err := r.ListByFingerprint(ctx, fingerprint, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("store: no runs recorded for project %s", fingerprint)
	}

	latest := runs[0]
	if latest.BaselineMakespan == nil {
		return nil, fmt.Errorf("store: run %s has no baseline recorded", latest.ID)
	}

	baseline := *latest.BaselineMakespan
	ratio := 1.0
	if baseline > 0 {
		ratio = float64(latest.BestMakespan) / float64(baseline)
	}

	return &BaselineComparison{
		OptimizedMakespan: latest.BestMakespan,
		BaselineMakespan:  baseline,
		ImprovementRatio:  ratio,
	}, nil
}
