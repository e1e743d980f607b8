// Package config defines scorecard configuration and its loading layers.
//
// Precedence (low -> high):
//  1. defaults (New)
//  2. YAML file, from the explicit path or SCORECARD_CONFIG
//  3. environment (prefix SCORECARD_)
//  4. command-line flags, applied by the caller on the returned Config
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config contains process configuration.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// CatalogPath is a .cue file or directory. Empty means the embedded catalog.
	CatalogPath string `koanf:"catalog_path"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// SnapshotDir is where FileSink writes snapshots.
	SnapshotDir string `koanf:"snapshot_dir"`

	// SnapshotInterval is the time between scheduled snapshots, e.g. "10m".
	SnapshotInterval time.Duration `koanf:"snapshot_interval"`

	// MetricsFile, when set, receives Prometheus text metrics after each snapshot run.
	MetricsFile string `koanf:"metrics_file"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		DBPath:           "scorecard.db",
		LogLevel:         "info",
		SnapshotDir:      "snapshots",
		SnapshotInterval: 10 * time.Minute,
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.SnapshotInterval <= 0 {
		return fmt.Errorf("%w: snapshot_interval must be positive, got %s", ErrInvalidConfig, c.SnapshotInterval)
	}
	return nil
}

// SlogLevel returns the configured level, or info if it does not parse.
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel maps a level name to its slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, s)
}
