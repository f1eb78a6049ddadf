// Package store persists evolve run history in Postgres and tracks
// in-flight asynchronous jobs in Redis, for pkg/api.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/khryptorgraphics/rcpspga/internal/config"
)

// Manager owns the Postgres and Redis connections and the repositories
// built on top of them.
type Manager struct {
	DB    *sqlx.DB
	Redis *redis.Client

	Runs *RunRepository
	Jobs *JobCache

	logger *slog.Logger
}

// NewManager opens the Postgres and Redis connections described by
// cfg, pings both, and wires up the repositories.
func NewManager(ctx context.Context, dbCfg config.DatabaseConfig, redisCfg config.RedisConfig, logger *slog.Logger) (*Manager, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbCfg.Host, dbCfg.Port, dbCfg.User, dbCfg.Password, dbCfg.Name, dbCfg.SSLMode)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(dbCfg.MaxOpenConns)
	db.SetMaxIdleConns(dbCfg.MaxIdleConns)
	db.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("store: pinging postgres: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", redisCfg.Host, redisCfg.Port),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
		PoolSize: redisCfg.PoolSize,
	})

	redisPingCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
	defer redisCancel()
	if err := rdb.Ping(redisPingCtx).Err(); err != nil {
		return nil, fmt.Errorf("store: pinging redis: %w", err)
	}

	m := &Manager{
		DB:     db,
		Redis:  rdb,
		logger: logger,
	}
	m.Runs = NewRunRepository(db, logger)
	m.Jobs = NewJobCache(rdb, logger)

	logger.Info("store manager initialized", "postgres_db", dbCfg.Name, "redis_addr", rdb.Options().Addr)
	return m, nil
}

// Close releases both connections.
func (m *Manager) Close() error {
	var errs []error
	if err := m.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing postgres: %w", err))
	}
	if err := m.Redis.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing redis: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("store: %v", errs)
	}
	return nil
}

// Health pings both backends and reports their status.
func (m *Manager) Health(ctx context.Context) (Health, error) {
	health := Health{Postgres: "healthy", Redis: "healthy"}

	if err := m.DB.PingContext(ctx); err != nil {
		health.Postgres = "unhealthy"
		health.PostgresError = err.Error()
	}
	if err := m.Redis.Ping(ctx).Err(); err != nil {
		health.Redis = "unhealthy"
		health.RedisError = err.Error()
	}
	if health.Postgres == "healthy" && health.Redis == "healthy" {
		health.Overall = "healthy"
	} else {
		health.Overall = "degraded"
	}
	return health, nil
}

// Health reports backend connectivity for GET /health.
type Health struct {
	Overall       string `json:"overall"`
	Postgres      string `json:"postgres"`
	PostgresError string `json:"postgres_error,omitempty"`
	Redis         string `json:"redis"`
	RedisError    string `json:"redis_error,omitempty"`
}
