package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EFFECTLANG_"

var ErrInvalid = errors.New("invalid config")

// Storage drivers for bindings and snapshots.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Engine holds all configuration for effectctl and the effect engine.
type Engine struct {
	// Logging
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"` // debug|info|warn|error

	// Registry overlay (YAML); empty uses the built-in tables
	Registry string `yaml:"registry" env:"REGISTRY"`

	// Execution
	MaxDepth int  `yaml:"max_depth" env:"MAX_DEPTH"` // conditional nesting limit
	Strict   bool `yaml:"strict" env:"STRICT"`       // refuse effects with dropped clauses

	// Storage
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`

	// Tracing
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"OTEL_"`
}

// DatabaseConfig selects and parameterizes binding/snapshot storage.
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`

	// PostgreSQL; URL wins over the individual parameters when set
	URL      string `yaml:"url" env:"DSN"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"NAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`

	// SQLite
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint" env:"ENDPOINT"` // host:port of an OTLP/HTTP collector
	Insecure    bool   `yaml:"insecure" env:"INSECURE"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}

// DefaultEngine returns Engine config with sensible defaults.
func DefaultEngine() Engine {
	return Engine{
		LogLevel: "info",
		MaxDepth: 16,
		Database: DatabaseConfig{
			Driver:     DriverMemory,
			Host:       "127.0.0.1",
			Port:       5432,
			User:       "effectlang",
			Password:   "effectlang",
			DBName:     "effectlang",
			SSLMode:    "disable",
			SQLitePath: "effectlang.db",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "effectctl",
		},
	}
}

// LoadEngine loads config from a YAML file, then applies EFFECTLANG_*
// environment overrides. If the file doesn't exist, defaults are used.
func LoadEngine(path string) (Engine, error) {
	cfg := DefaultEngine()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field values that would otherwise fail late.
func (c Engine) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("%w: max_depth must be positive, got %d", ErrInvalid, c.MaxDepth)
	}
	switch c.Database.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalid, c.Database.Driver)
	}
	if c.Database.Driver == DriverSQLite && c.Database.SQLitePath == "" {
		return fmt.Errorf("%w: sqlite_path is required for the sqlite driver", ErrInvalid)
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Engine) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return lvl, nil
}
