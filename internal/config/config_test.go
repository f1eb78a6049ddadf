package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Default(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 200, cfg.GA.Generations)
	assert.Equal(t, 60, cfg.GA.PopulationSize)
	assert.Equal(t, "0.0.0.0:8080", cfg.API.Listen)
	assert.True(t, cfg.API.RateLimit.Enabled)
	assert.Equal(t, "rcpsp-solver", cfg.Auth.Issuer)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
}

func TestLoadConfig_EnvOverridesDefault(t *testing.T) {
	os.Setenv("RCPSP_GA_GENERATIONS", "500")
	os.Setenv("RCPSP_API_LISTEN", "127.0.0.1:9090")
	os.Setenv("RCPSP_AUTH_ENABLED", "false")
	defer func() {
		os.Unsetenv("RCPSP_GA_GENERATIONS")
		os.Unsetenv("RCPSP_API_LISTEN")
		os.Unsetenv("RCPSP_AUTH_ENABLED")
	}()

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.GA.Generations)
	assert.Equal(t, "127.0.0.1:9090", cfg.API.Listen)
	assert.False(t, cfg.Auth.Enabled)
}

func TestLoadConfig_FromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	contents := "ga:\n  generations: 75\n  population_size: 30\napi:\n  listen: \"0.0.0.0:9999\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 75, cfg.GA.Generations)
	assert.Equal(t, 30, cfg.GA.PopulationSize)
	assert.Equal(t, "0.0.0.0:9999", cfg.API.Listen)
}

func TestLoadConfig_MissingFileErrors(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	require.Error(t, err)
}

func TestDefaultConfig_RateLimitDuration(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Minute, cfg.API.RateLimit.Duration)
}
