package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
)

// Migration is one versioned schema change, applied exactly once and
// recorded in schema_migrations.
type Migration struct {
	Version     int
	Description string
	Up          string
}

// Migrations returns every schema change this package knows about.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "runs table",
			Up: `
				CREATE EXTENSION IF NOT EXISTS "pgcrypto";

				CREATE TABLE runs (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					project_fingerprint VARCHAR(64) NOT NULL,
					config JSONB NOT NULL DEFAULT '{}',
					best_makespan INTEGER NOT NULL,
					best_priority_list JSONB NOT NULL,
					generations_run INTEGER NOT NULL,
					stopped_reason VARCHAR(50) NOT NULL,
					baseline_makespan INTEGER,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX idx_runs_fingerprint ON runs(project_fingerprint, created_at DESC);
			`,
		},
	}
}

// Migrate applies every pending migration in version order. It is safe
// to call on every startup; applied versions are skipped.
func (m *Manager) Migrate(ctx context.Context) error {
	if err := m.ensureMigrationTable(ctx); err != nil {
		return fmt.Errorf("store: ensuring migration table: %w", err)
	}

	migrations := Migrations()
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	for _, migration := range migrations {
		applied, err := m.isMigrationApplied(ctx, migration.Version)
		if err != nil {
			return fmt.Errorf("store: checking migration %d: %w", migration.Version, err)
		}
		if applied {
			continue
		}

		m.logger.Info("applying migration", "version", migration.Version, "description", migration.Description)
		if err := m.applyMigration(ctx, migration); err != nil {
			return fmt.Errorf("store: applying migration %d: %w", migration.Version, err)
		}
	}
	return nil
}

func (m *Manager) ensureMigrationTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`
	_, err := m.DB.ExecContext(ctx, query)
	return err
}

func (m *Manager) isMigrationApplied(ctx context.Context, version int) (bool, error) {
	var count int
	err := m.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = $1`, version).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (m *Manager) applyMigration(ctx context.Context, migration Migration) error {
	return transact(ctx, m.DB, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, migration.Up); err != nil {
			return fmt.Errorf("executing migration SQL: %w", err)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
			migration.Version, migration.Description)
		if err != nil {
			return fmt.Errorf("recording migration: %w", err)
		}
		return nil
	})
}

func transact(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
