// Package config handles loading and saving timeguru configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/timeguru/config.yaml
//   - Data:    ~/.local/share/timeguru/ (the local cache database)
//   - State:   ~/.local/state/timeguru/ (log file of the terminal UI)
//
// Every key can be overridden with a TIMEGURU_* environment variable.
// Secrets (API token, encryption key) are read from the environment only.
package config

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

const appName = "timeguru"

// Config holds the application configuration.
type Config struct {
	DefaultRangeDays int    `yaml:"default_range_days"`
	SyncRangeDays    int    `yaml:"sync_range_days"`
	RoundMinutes     int    `yaml:"round_minutes"` // 0 disables rounding
	DBPath           string `yaml:"db_path,omitempty"`
	APIBaseURL       string `yaml:"api_base_url,omitempty"`
	MaxAttempts      int    `yaml:"max_attempts"`
	Workers          int    `yaml:"workers"`
	LogLevel         string `yaml:"log_level,omitempty"`
	LogFile          string `yaml:"log_file,omitempty"`

	APIToken  string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultRangeDays: 7,
		SyncRangeDays:    90,
		RoundMinutes:     15,
		DBPath:           defaultDBPath(),
		APIBaseURL:       "https://api.track.toggl.com/api/v9",
		MaxAttempts:      5,
		Workers:          4,
		LogLevel:         "info",
		LogFile:          defaultLogFile(),
	}
}

// HasToken reports whether an API token is configured.
func (c Config) HasToken() bool {
	return c.APIToken != ""
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values map to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SecretKeyBytes decodes SecretKey. It returns nil when no key is set; the
// credential store then refuses to operate.
func (c Config) SecretKeyBytes() ([]byte, error) {
	if c.SecretKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("TIMEGURU_SECRET_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("TIMEGURU_SECRET_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.DefaultRangeDays < 1:
		return fmt.Errorf("default_range_days must be positive, got %d", c.DefaultRangeDays)
	case c.SyncRangeDays < 1:
		return fmt.Errorf("sync_range_days must be positive, got %d", c.SyncRangeDays)
	case c.RoundMinutes < 0:
		return fmt.Errorf("round_minutes must not be negative, got %d", c.RoundMinutes)
	case c.MaxAttempts < 1:
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	case c.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// ConfigDir returns the XDG config directory for timeguru.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for timeguru.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// StateDir returns the XDG state directory for timeguru.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", ".local", "state")
}

func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

func defaultDBPath() string {
	dir := DataDir()
	if dir == "" {
		return appName + ".db"
	}
	return filepath.Join(dir, appName+".db")
}

func defaultLogFile() string {
	dir := StateDir()
	if dir == "" {
		return appName + ".log"
	}
	return filepath.Join(dir, appName+".log")
}

// Load reads the config file from the XDG config directory and applies
// environment overrides. A missing file yields the defaults.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		if err := applyEnv(&cfg); err != nil {
			return cfg, err
		}
		return cfg, cfg.Validate()
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path and applies environment overrides.
func LoadFrom(path string) (Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFile reads config from path without environment overrides. Used when
// the file is about to be rewritten, so overrides are not persisted.
func LoadFile(path string) (Config, error) {
	return readFile(path)
}

func readFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.DBPath = expandHome(cfg.DBPath)
	cfg.LogFile = expandHome(cfg.LogFile)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	ints := []struct {
		env string
		dst *int
	}{
		{"TIMEGURU_DEFAULT_RANGE_DAYS", &cfg.DefaultRangeDays},
		{"TIMEGURU_SYNC_RANGE_DAYS", &cfg.SyncRangeDays},
		{"TIMEGURU_ROUND_MINUTES", &cfg.RoundMinutes},
		{"TIMEGURU_MAX_ATTEMPTS", &cfg.MaxAttempts},
		{"TIMEGURU_WORKERS", &cfg.Workers},
	}
	for _, kv := range ints {
		v, ok := os.LookupEnv(kv.env)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s has invalid integer %q: %w", kv.env, v, err)
		}
		*kv.dst = n
	}

	strs := []struct {
		env string
		dst *string
	}{
		{"TIMEGURU_DB_PATH", &cfg.DBPath},
		{"TIMEGURU_API_BASE_URL", &cfg.APIBaseURL},
		{"TIMEGURU_LOG_LEVEL", &cfg.LogLevel},
		{"TIMEGURU_LOG_FILE", &cfg.LogFile},
		{"TIMEGURU_API_TOKEN", &cfg.APIToken},
		{"TIMEGURU_SECRET_KEY", &cfg.SecretKey},
	}
	for _, kv := range strs {
		if v, ok := os.LookupEnv(kv.env); ok {
			*kv.dst = v
		}
	}
	return nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo replaces the config at path atomically. Secrets are never written.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Keys returns the settable config keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(*Config, string) error{
	"default_range_days": intSetter(func(c *Config) *int { return &c.DefaultRangeDays }),
	"sync_range_days":    intSetter(func(c *Config) *int { return &c.SyncRangeDays }),
	"round_minutes":      intSetter(func(c *Config) *int { return &c.RoundMinutes }),
	"max_attempts":       intSetter(func(c *Config) *int { return &c.MaxAttempts }),
	"workers":            intSetter(func(c *Config) *int { return &c.Workers }),
	"db_path":            strSetter(func(c *Config) *string { return &c.DBPath }),
	"api_base_url":       strSetter(func(c *Config) *string { return &c.APIBaseURL }),
	"log_level":          strSetter(func(c *Config) *string { return &c.LogLevel }),
	"log_file":           strSetter(func(c *Config) *string { return &c.LogFile }),
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", v, err)
		}
		*field(c) = n
		return nil
	}
}

func strSetter(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

// Set assigns value to the YAML key and validates the result.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	next := *c
	if err := set(&next, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
