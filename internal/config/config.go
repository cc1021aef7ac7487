// Package config loads service configuration from .env, an optional YAML
// file and TRAJ_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidPort         = errors.New("invalid server port")
	ErrInvalidDriver       = errors.New("database driver must be sqlite, postgres or memory")
	ErrMissingDatabaseURL  = errors.New("database url is required for postgres")
	ErrInvalidMaxAccel     = errors.New("max acceleration must be positive")
	ErrInvalidAccelLimit   = errors.New("acceleration limit must not be below max acceleration")
	ErrInvalidLaneDuration = errors.New("lane change duration must be positive")
	ErrInvalidShrinkFactor = errors.New("window shrink factor must be in (0, 1)")
	ErrInvalidMinWindow    = errors.New("min window size must be positive")
	ErrInvalidTickPeriod   = errors.New("execution tick period must be positive")
)

const (
	envPrefix = "TRAJ"
	maxPort   = 65535
)

// Database drivers.
const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Planning  PlanningConfig  `mapstructure:"planning"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects the plan store. Path is used by sqlite, URL by
// postgres; the memory driver keeps plans in process.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	URL      string `mapstructure:"url"`
	SeedPath string `mapstructure:"seed_path"`
}

// PlanningConfig holds the defaults the planner applies to new maneuvers.
type PlanningConfig struct {
	MaxAccel           float64 `mapstructure:"max_accel"`
	AccelLimit         float64 `mapstructure:"accel_limit"`
	LaneChangeDuration float64 `mapstructure:"lane_change_duration"`
	WindowShrinkFactor float64 `mapstructure:"window_shrink_factor"`
	MinWindowSize      float64 `mapstructure:"min_window_size"`
}

type ExecutionConfig struct {
	TickPeriod time.Duration `mapstructure:"tick_period"`
	Simulate   bool          `mapstructure:"simulate"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads .env (if present), then the config file at path (or
// ./config.yaml when path is empty), then environment overrides.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config: read file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout", "5s")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", DriverSqlite)
	v.SetDefault("database.path", "data/app.db")
	v.SetDefault("database.url", "")
	v.SetDefault("database.seed_path", "")

	v.SetDefault("planning.max_accel", 2.0)
	v.SetDefault("planning.accel_limit", 3.0)
	v.SetDefault("planning.lane_change_duration", 4.0)
	v.SetDefault("planning.window_shrink_factor", 0.8)
	v.SetDefault("planning.min_window_size", 5.0)

	v.SetDefault("execution.tick_period", "100ms")
	v.SetDefault("execution.simulate", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks the loaded values and returns the first violation.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverSqlite, DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(c.Database.URL) == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDriver, c.Database.Driver)
	}

	if c.Planning.MaxAccel <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidMaxAccel, c.Planning.MaxAccel)
	}
	if c.Planning.AccelLimit < c.Planning.MaxAccel {
		return fmt.Errorf("%w: %v < %v", ErrInvalidAccelLimit, c.Planning.AccelLimit, c.Planning.MaxAccel)
	}
	if c.Planning.LaneChangeDuration <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidLaneDuration, c.Planning.LaneChangeDuration)
	}
	if f := c.Planning.WindowShrinkFactor; f <= 0 || f >= 1 {
		return fmt.Errorf("%w: %v", ErrInvalidShrinkFactor, f)
	}
	if c.Planning.MinWindowSize <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidMinWindow, c.Planning.MinWindowSize)
	}
	if c.Execution.TickPeriod <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTickPeriod, c.Execution.TickPeriod)
	}
	return nil
}

// Get returns the environment variable key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
