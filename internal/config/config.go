// Package config loads the solver's configuration: genetic-algorithm
// defaults, the HTTP API surface, and the storage backends it talks to.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration object. It is populated by
// LoadConfig: a YAML file supplies the base values (DefaultConfig if no
// file is given), then environment variables tagged `env:"..."`
// override whatever the file set.
type Config struct {
	GA       GAConfig       `yaml:"ga"`
	API      APIConfig      `yaml:"api"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
}

// GAConfig holds the genetic optimizer's default parameters, applied by
// pkg/api's evolve handler whenever a request does not override them
// explicitly; cmd/rcpsp-solver evolve uses pkg/rcpsp's own defaults
// instead. It carries the numeric options of pkg/rcpsp.Config; Seed,
// NoImproveStop and OnGeneration have no counterpart here.
type GAConfig struct {
	Generations        int     `yaml:"generations" env:"RCPSP_GA_GENERATIONS"`
	PopulationSize     int     `yaml:"population_size" env:"RCPSP_GA_POPULATION_SIZE"`
	TournamentK        int     `yaml:"tournament_k" env:"RCPSP_GA_TOURNAMENT_K"`
	Elitism            int     `yaml:"elitism" env:"RCPSP_GA_ELITISM"`
	CrossoverRate      float64 `yaml:"crossover_rate" env:"RCPSP_GA_CROSSOVER_RATE"`
	MutationRate       float64 `yaml:"mutation_rate" env:"RCPSP_GA_MUTATION_RATE"`
	MutationSwapBudget int     `yaml:"mutation_swap_budget" env:"RCPSP_GA_MUTATION_SWAP_BUDGET"`
	Workers            int     `yaml:"workers" env:"RCPSP_GA_WORKERS"`
}

// APIConfig holds HTTP server configuration.
type APIConfig struct {
	Listen      string          `yaml:"listen" env:"RCPSP_API_LISTEN"`
	MaxBodySize int64           `yaml:"max_body_size" env:"RCPSP_API_MAX_BODY_SIZE"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Cors        CorsConfig      `yaml:"cors"`
}

// RateLimitConfig holds per-client rate limiting configuration.
type RateLimitConfig struct {
	Enabled     bool          `yaml:"enabled" env:"RCPSP_RATE_LIMIT_ENABLED"`
	RequestsPer int           `yaml:"requests_per" env:"RCPSP_RATE_LIMIT_REQUESTS"`
	Duration    time.Duration `yaml:"duration"`
	BurstSize   int           `yaml:"burst_size" env:"RCPSP_RATE_LIMIT_BURST"`
}

// CorsConfig holds CORS configuration.
type CorsConfig struct {
	Enabled          bool     `yaml:"enabled" env:"RCPSP_CORS_ENABLED"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// AuthConfig holds JWT issuance and API-key configuration for pkg/auth.
type AuthConfig struct {
	Enabled      bool          `yaml:"enabled" env:"RCPSP_AUTH_ENABLED"`
	Issuer       string        `yaml:"issuer" env:"RCPSP_AUTH_ISSUER"`
	TokenExpiry  time.Duration `yaml:"token_expiry"`
	APIKeyHashes []string      `yaml:"api_key_hashes"`
}

// DatabaseConfig holds Postgres connection settings for pkg/store.
type DatabaseConfig struct {
	Host            string        `yaml:"host" env:"RCPSP_DB_HOST"`
	Port            int           `yaml:"port" env:"RCPSP_DB_PORT"`
	Name            string        `yaml:"name" env:"RCPSP_DB_NAME"`
	User            string        `yaml:"user" env:"RCPSP_DB_USER"`
	Password        string        `yaml:"password" env:"RCPSP_DB_PASSWORD"`
	SSLMode         string        `yaml:"ssl_mode" env:"RCPSP_DB_SSL_MODE"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"RCPSP_DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"RCPSP_DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig holds connection settings for pkg/store's job cache.
type RedisConfig struct {
	Host     string `yaml:"host" env:"RCPSP_REDIS_HOST"`
	Port     int    `yaml:"port" env:"RCPSP_REDIS_PORT"`
	Password string `yaml:"password" env:"RCPSP_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"RCPSP_REDIS_DB"`
	PoolSize int    `yaml:"pool_size" env:"RCPSP_REDIS_POOL_SIZE"`
}

// DefaultConfig returns the baseline configuration used when no file is
// given and no environment variable overrides a field.
func DefaultConfig() *Config {
	return &Config{
		GA: GAConfig{
			Generations:        200,
			PopulationSize:     60,
			TournamentK:        3,
			Elitism:            1,
			CrossoverRate:      0.9,
			MutationRate:       0.1,
			MutationSwapBudget: 8,
			Workers:            4,
		},
		API: APIConfig{
			Listen:      "0.0.0.0:8080",
			MaxBodySize: 4 * 1024 * 1024,
			RateLimit: RateLimitConfig{
				Enabled:     true,
				RequestsPer: 100,
				Duration:    time.Minute,
				BurstSize:   20,
			},
			Cors: CorsConfig{
				Enabled:          true,
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
			},
		},
		Auth: AuthConfig{
			Enabled:     true,
			Issuer:      "rcpsp-solver",
			TokenExpiry: 24 * time.Hour,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "rcpsp",
			User:            "rcpsp",
			SSLMode:         "prefer",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			PoolSize: 10,
		},
	}
}

// LoadConfig reads path (if non-empty) as a YAML file into
// DefaultConfig's result, then applies environment overrides. An empty
// path returns the defaults with environment overrides only.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.GA.Generations = envIntOrDefault("RCPSP_GA_GENERATIONS", cfg.GA.Generations)
	cfg.GA.PopulationSize = envIntOrDefault("RCPSP_GA_POPULATION_SIZE", cfg.GA.PopulationSize)
	cfg.GA.TournamentK = envIntOrDefault("RCPSP_GA_TOURNAMENT_K", cfg.GA.TournamentK)
	cfg.GA.Elitism = envIntOrDefault("RCPSP_GA_ELITISM", cfg.GA.Elitism)
	cfg.GA.CrossoverRate = envFloatOrDefault("RCPSP_GA_CROSSOVER_RATE", cfg.GA.CrossoverRate)
	cfg.GA.MutationRate = envFloatOrDefault("RCPSP_GA_MUTATION_RATE", cfg.GA.MutationRate)
	cfg.GA.MutationSwapBudget = envIntOrDefault("RCPSP_GA_MUTATION_SWAP_BUDGET", cfg.GA.MutationSwapBudget)
	cfg.GA.Workers = envIntOrDefault("RCPSP_GA_WORKERS", cfg.GA.Workers)

	cfg.API.Listen = envOrDefault("RCPSP_API_LISTEN", cfg.API.Listen)
	cfg.API.MaxBodySize = int64(envIntOrDefault("RCPSP_API_MAX_BODY_SIZE", int(cfg.API.MaxBodySize)))
	cfg.API.RateLimit.Enabled = envBoolOrDefault("RCPSP_RATE_LIMIT_ENABLED", cfg.API.RateLimit.Enabled)
	cfg.API.RateLimit.RequestsPer = envIntOrDefault("RCPSP_RATE_LIMIT_REQUESTS", cfg.API.RateLimit.RequestsPer)
	cfg.API.RateLimit.BurstSize = envIntOrDefault("RCPSP_RATE_LIMIT_BURST", cfg.API.RateLimit.BurstSize)
	cfg.API.Cors.Enabled = envBoolOrDefault("RCPSP_CORS_ENABLED", cfg.API.Cors.Enabled)

	cfg.Auth.Enabled = envBoolOrDefault("RCPSP_AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Auth.Issuer = envOrDefault("RCPSP_AUTH_ISSUER", cfg.Auth.Issuer)

	cfg.Database.Host = envOrDefault("RCPSP_DB_HOST", cfg.Database.Host)
	cfg.Database.Port = envIntOrDefault("RCPSP_DB_PORT", cfg.Database.Port)
	cfg.Database.Name = envOrDefault("RCPSP_DB_NAME", cfg.Database.Name)
	cfg.Database.User = envOrDefault("RCPSP_DB_USER", cfg.Database.User)
	cfg.Database.Password = envOrDefault("RCPSP_DB_PASSWORD", cfg.Database.Password)
	cfg.Database.SSLMode = envOrDefault("RCPSP_DB_SSL_MODE", cfg.Database.SSLMode)
	cfg.Database.MaxOpenConns = envIntOrDefault("RCPSP_DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = envIntOrDefault("RCPSP_DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)

	cfg.Redis.Host = envOrDefault("RCPSP_REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = envIntOrDefault("RCPSP_REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Password = envOrDefault("RCPSP_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envIntOrDefault("RCPSP_REDIS_DB", cfg.Redis.DB)
	cfg.Redis.PoolSize = envIntOrDefault("RCPSP_REDIS_POOL_SIZE", cfg.Redis.PoolSize)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBoolOrDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
