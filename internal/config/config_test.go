package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.InDelta(t, 2.0, cfg.Planning.MaxAccel, 1e-9)
	assert.InDelta(t, 0.8, cfg.Planning.WindowShrinkFactor, 1e-9)
	assert.Equal(t, 100*time.Millisecond, cfg.Execution.TickPeriod)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "trajectory.yaml")
	yaml := "server:\n  port: 9090\nplanning:\n  min_window_size: 2.5\nexecution:\n  tick_period: 50ms\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("TRAJ_LOGGING_LEVEL", "debug")
	t.Setenv("TRAJ_PLANNING_MAX_ACCEL", "3.5")
	t.Setenv("TRAJ_PLANNING_ACCEL_LIMIT", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 2.5, cfg.Planning.MinWindowSize, 1e-9)
	assert.InDelta(t, 3.5, cfg.Planning.MaxAccel, 1e-9)
	assert.Equal(t, 50*time.Millisecond, cfg.Execution.TickPeriod)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TRAJ_DATABASE_DRIVER", "postgres")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrMissingDatabaseURL)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:    ServerConfig{Port: 8080},
			Database:  DatabaseConfig{Driver: "sqlite"},
			Planning:  PlanningConfig{MaxAccel: 2, AccelLimit: 3, LaneChangeDuration: 4, WindowShrinkFactor: 0.5, MinWindowSize: 1},
			Execution: ExecutionConfig{TickPeriod: time.Second},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }, ErrInvalidPort},
		{"driver", func(c *Config) { c.Database.Driver = "mysql" }, ErrInvalidDriver},
		{"max accel", func(c *Config) { c.Planning.MaxAccel = 0 }, ErrInvalidMaxAccel},
		{"accel limit", func(c *Config) { c.Planning.AccelLimit = 1 }, ErrInvalidAccelLimit},
		{"lane duration", func(c *Config) { c.Planning.LaneChangeDuration = -1 }, ErrInvalidLaneDuration},
		{"shrink factor", func(c *Config) { c.Planning.WindowShrinkFactor = 1 }, ErrInvalidShrinkFactor},
		{"min window", func(c *Config) { c.Planning.MinWindowSize = 0 }, ErrInvalidMinWindow},
		{"tick period", func(c *Config) { c.Execution.TickPeriod = 0 }, ErrInvalidTickPeriod},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestGet(t *testing.T) {
	t.Setenv("TRAJ_TEST_KEY", "set")
	assert.Equal(t, "set", Get("TRAJ_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", Get("TRAJ_TEST_UNSET_KEY", "fallback"))
}
