package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/config"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval.Duration)
	assert.False(t, cfg.PayCycle.Strict)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))

	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Store, cfg.Store)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
[server]
port = 9090

[store]
path = "/tmp/budget-test.db"

[pay_cycle]
strict = true

[scheduler]
interval = "15m"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/budget-test.db", cfg.Store.Path)
	assert.True(t, cfg.PayCycle.Strict)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval.Duration)
	// Untouched sections keep their defaults.
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := writeFile(t, "[server]\nport = 9090\n")
	t.Setenv("BUDGET_PORT", "7070")
	t.Setenv("BUDGET_CURRENCY", "EUR")
	t.Setenv("BUDGET_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "EUR", cfg.Currency.Default)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(writeFile(t, "[server\nport = "))
	assert.ErrorContains(t, err, "parsing config")

	t.Setenv("BUDGET_PORT", "eighty")
	_, err = config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorContains(t, err, "BUDGET_PORT")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Port = 0
	cfg.Store.Path = ""
	cfg.Log.Format = "xml"
	cfg.Scheduler.Interval = config.Duration{}
	cfg.Currency.Default = "dollars"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"invalid port", "store path", "log format", "scheduler interval", "invalid currency"} {
		assert.Contains(t, err.Error(), want)
	}

	cfg = config.DefaultConfig()
	cfg.Scheduler.Enabled = false
	cfg.Scheduler.Interval = config.Duration{}
	assert.NoError(t, cfg.Validate())
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	want := config.DefaultConfig()
	want.Server.Port = 8181
	want.Currency.Default = "GBP"
	want.Scheduler.Interval = config.Duration{Duration: 90 * time.Second}

	require.NoError(t, config.Save(path, want))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
