// Package config loads WaterMe settings from built-in defaults, an optional
// YAML file and WATERME_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/manav03panchal/waterme/internal/scheduler"
)

// EnvPrefix prefixes every environment override. WATERME_STORAGE_ROOT sets
// storage.root.
const EnvPrefix = "WATERME_"

// Config holds every runtime setting.
type Config struct {
	Storage   StorageConfig   `koanf:"storage"`
	Icon      IconConfig      `koanf:"icon"`
	Calendar  CalendarConfig  `koanf:"calendar"`
	Migration MigrationConfig `koanf:"migration"`
	Log       LogConfig       `koanf:"log"`
	Dashboard DashboardConfig `koanf:"dashboard"`
}

// StorageConfig locates and guards the data root.
type StorageConfig struct {
	// Root is the data root. Empty means $XDG_DATA_HOME/waterme.
	Root string `koanf:"root"`

	// OpenTimeout bounds retries while another process holds a store.
	// Default: 2s
	OpenTimeout time.Duration `koanf:"open_timeout"`

	// MinFreeSpace is the headroom kept free by migration and archiving.
	// Default: 10MB
	MinFreeSpace uint64 `koanf:"min_free_space"`
}

// IconConfig bounds stored vessel images.
type IconConfig struct {
	// MaxBytes is the largest encoded image accepted.
	// Default: 40KB
	MaxBytes int `koanf:"max_bytes"`
}

// CalendarConfig controls how reminders are bucketed into days.
type CalendarConfig struct {
	// Location is an IANA zone name or "Local".
	Location     string `koanf:"location"`
	FirstWeekday string `koanf:"first_weekday"`
}

// MigrationConfig tunes the legacy store migration.
type MigrationConfig struct {
	// LockTimeout bounds the wait for the maintenance lock.
	// Default: 5s
	LockTimeout time.Duration `koanf:"lock_timeout"`
}

// LogConfig selects log output.
type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// DashboardConfig tunes the live dashboard.
type DashboardConfig struct {
	// RefreshCron is the cron spec at which day sections are recomputed.
	// Default: local midnight
	RefreshCron string `koanf:"refresh_cron"`
}

// DefaultPath returns the config file location under XDG_CONFIG_HOME.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "waterme", "config.yaml")
}

// Load builds the configuration. A missing file at path is not an error;
// an empty path uses DefaultPath.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps WATERME_STORAGE_OPEN_TIMEOUT to storage.open_timeout. Only the
// first underscore separates the section.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// Validate checks values that cannot be caught by decoding.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.FirstWeekday(); err != nil {
		return err
	}
	if c.Icon.MaxBytes <= 0 {
		return fmt.Errorf("icon.max_bytes must be positive")
	}
	if c.Storage.OpenTimeout < 0 || c.Migration.LockTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if err := scheduler.ValidateSpec(c.Dashboard.RefreshCron); err != nil {
		return fmt.Errorf("dashboard.refresh_cron: %w", err)
	}
	return nil
}

// Location resolves calendar.location.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Calendar.Location)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar.location %q: %w", name, err)
	}
	return loc, nil
}

// FirstWeekday resolves calendar.first_weekday.
func (c *Config) FirstWeekday() (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(c.Calendar.FirstWeekday))
	if name == "" {
		return time.Sunday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid calendar.first_weekday %q", c.Calendar.FirstWeekday)
}
