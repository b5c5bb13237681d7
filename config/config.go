// Package config loads budget server settings from a TOML file, a .env
// file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all budget server configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Store     StoreConfig     `toml:"store"`
	Log       LogConfig       `toml:"log"`
	PayCycle  PayCycleConfig  `toml:"pay_cycle"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Currency  CurrencyConfig  `toml:"currency"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
	ReadTimeout    Duration `toml:"read_timeout"`
	WriteTimeout   Duration `toml:"write_timeout"`
	IdleTimeout    Duration `toml:"idle_timeout"`
}

// StoreConfig holds the database location. ":memory:" keeps nothing.
type StoreConfig struct {
	Path string `toml:"path"`
}

// LogConfig holds logger settings. Format is "console" or "json".
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// PayCycleConfig controls how pay cycles are accepted.
type PayCycleConfig struct {
	// Strict refuses weekly and biweekly cycles without a last pay date
	// instead of falling back to the monthly rule.
	Strict bool `toml:"strict"`
}

// SchedulerConfig controls the pay period rollover scheduler.
type SchedulerConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval Duration `toml:"interval"`
}

// CurrencyConfig holds the currency used until the user picks one.
type CurrencyConfig struct {
	Default string `toml:"default"`
}

// Duration is a time.Duration written as "30s" or "1h" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
			ReadTimeout:    Duration{15 * time.Second},
			WriteTimeout:   Duration{15 * time.Second},
			IdleTimeout:    Duration{60 * time.Second},
		},
		Store: StoreConfig{Path: "budget.db"},
		Log:   LogConfig{Level: "info", Format: "console"},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Interval: Duration{time.Hour},
		},
		Currency: CurrencyConfig{Default: "USD"},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "budget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "budget")
}

// DefaultPath returns the full path to the config file.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads path (DefaultPath when empty), returning defaults if it
// doesn't exist, then applies .env and environment overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BUDGET_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BUDGET_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("BUDGET_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("BUDGET_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BUDGET_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("BUDGET_CURRENCY"); v != "" {
		c.Currency.Default = v
	}
	if v := os.Getenv("BUDGET_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	return nil
}

// Validate validates the configuration and returns every problem found.
func (c Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Server.Port))
	}
	if c.Store.Path == "" {
		problems = append(problems, "store path is required")
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format %q: must be console or json", c.Log.Format))
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval.Duration <= 0 {
		problems = append(problems, "scheduler interval must be positive")
	}
	if len(strings.TrimSpace(c.Currency.Default)) != 3 {
		problems = append(problems, fmt.Sprintf("invalid currency %q: must be a 3-letter code", c.Currency.Default))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}
