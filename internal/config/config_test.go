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

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.perplexity.ai", cfg.Perplexity.BaseURL)
	assert.Equal(t, "sonar", cfg.Perplexity.Model)
	assert.Equal(t, "https://generativelanguage.googleapis.com", cfg.Gemini.BaseURL)
	assert.Equal(t, "https://api.apollo.io/api/v1", cfg.Apollo.BaseURL)
	assert.Equal(t, 50, cfg.Apollo.RequestsPerMinute)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  database_url: personapro.db
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "personapro.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, "sonar", cfg.Perplexity.Model)
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

	t.Setenv("PERSONAPRO_STORE_DRIVER", "postgres")
	t.Setenv("PERSONAPRO_LOG_LEVEL", "warn")

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

	t.Setenv("PERSONAPRO_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func validServe() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "personapro.db"
	cfg.Apollo.RequestsPerMinute = 50
	return cfg
}

func TestValidateServe(t *testing.T) {
	assert.NoError(t, validServe().Validate("serve"))
}

func TestValidateServeProblems(t *testing.T) {
	cfg := validServe()
	cfg.Server.Port = 0
	cfg.Store.Driver = "oracle"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
	assert.Contains(t, err.Error(), "store.driver must be postgres or sqlite")
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateMigrate(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")

	cfg.Store.DatabaseURL = "postgres://localhost/personapro"
	assert.NoError(t, cfg.Validate("migrate"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validServe().Validate("deploy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
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
