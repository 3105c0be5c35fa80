package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "appraise.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrentScans)
	assert.Equal(t, 6, cfg.Cache.TTLHours)
	assert.Equal(t, int64(5*1024*1024), cfg.Vision.MaxImageBytes)
	assert.InDelta(t, 2.0, cfg.Marketplace.RequestsPerSec, 0.001)
	assert.Equal(t, 100, cfg.CertRegistry.DailyQuota)
	assert.InDelta(t, 5000.0, cfg.Pricing.CardCeiling, 0.001)
	assert.InDelta(t, 25000.0, cfg.Pricing.WatchCeiling, 0.001)
	assert.InDelta(t, 0.85, cfg.Pricing.ConservativeMultiplier, 0.001)
	assert.Equal(t, 5, cfg.Pricing.HighMinSamples)
	assert.InDelta(t, 0.13, cfg.Decision.CardFeeRate, 0.001)
	assert.InDelta(t, 0.25, cfg.Decision.MarginThreshold, 0.001)
	assert.InDelta(t, 10.0, cfg.Decision.TargetProfitFloor, 0.001)
	assert.Equal(t, 3, cfg.Retry.Attempts)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/appraise
log:
  level: debug
  format: console
server:
  port: 9090
batch:
  max_concurrent_scans: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrentScans)
	// Defaults still apply for unset values
	assert.Equal(t, 6, cfg.Cache.TTLHours)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("APPRAISE_STORE_DRIVER", "postgres")
	t.Setenv("APPRAISE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("APPRAISE_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = "appraise.db"
	cfg.Batch.MaxConcurrentScans = 4
	cfg.Cache.TTLHours = 6
	cfg.Pricing.ConservativeMultiplier = 0.85
	cfg.Decision.MarginThreshold = 0.25
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateAppraise_AllPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.Vision.Key = "sk-ant-key"
	cfg.Marketplace.Key = "mk-key"

	assert.NoError(t, cfg.Validate("appraise"))
}

func TestValidateAppraise_MissingKeys(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("appraise")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "vision.key is required")
	assert.Contains(t, err.Error(), "marketplace.key is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Vision.Key = "k"
	cfg.Marketplace.Key = "k"
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateCache_OnlyNeedsStore(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("cache"))
}

func TestValidatePostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("cache")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.MaxConcurrentScans = 0
	err := cfg.Validate("cache")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_scans must be between 1 and 32")

	cfg.Batch.MaxConcurrentScans = 33
	err = cfg.Validate("cache")
	assert.Error(t, err)

	cfg.Batch.MaxConcurrentScans = 32
	assert.NoError(t, cfg.Validate("cache"))
}

func TestValidateMultiplierBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Pricing.ConservativeMultiplier = 0
	err := cfg.Validate("cache")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "conservative_multiplier")

	cfg.Pricing.ConservativeMultiplier = 1.5
	err = cfg.Validate("cache")
	assert.Error(t, err)
}
