package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 600, cfg.Server.RateLimitRPM)
	assert.Equal(t, "logs", cfg.Server.LoggerConfig.LogDir)
	assert.Zero(t, cfg.Server.ClassifierCfg.Tolerance)
	assert.Empty(t, cfg.Server.HistoryPath)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
log_level: debug
server:
  addr: ":9000"
  read_timeout: 2s
  debug: true
  history_path: /tmp/history.db
  request_log:
    dir: /var/log/triangle
  classifier:
    tolerance: 0.001
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Server.EnableDebug)
	assert.Equal(t, "/tmp/history.db", cfg.Server.HistoryPath)
	assert.Equal(t, "/var/log/triangle", cfg.Server.LoggerConfig.LogDir)
	assert.Equal(t, "classifications.jsonl", cfg.Server.LoggerConfig.FileName, "unset keys keep defaults")
	assert.Equal(t, 0.001, cfg.Server.ClassifierCfg.Tolerance)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "server:\n  addr: \":9000\"\n  rate_limit_rpm: 10\n")

	t.Setenv("ADDR", ":7000")
	t.Setenv("RATE_LIMIT_RPM", "0")
	t.Setenv("DEBUG", "true")
	t.Setenv("CLASSIFIER_TOLERANCE", "0.01")
	t.Setenv("LOG_DIR", "/srv/logs")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Zero(t, cfg.Server.RateLimitRPM)
	assert.True(t, cfg.Server.EnableDebug)
	assert.Equal(t, 0.01, cfg.Server.ClassifierCfg.Tolerance)
	assert.Equal(t, "/srv/logs", cfg.Server.LoggerConfig.LogDir)
}

func TestLoadPortWinsOverAddr(t *testing.T) {
	t.Setenv("ADDR", ":7000")
	t.Setenv("PORT", "8181")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8181", cfg.Server.Addr)
}

func TestLoadTLSFromEnv(t *testing.T) {
	t.Setenv("TLS_CERT", "/certs/cert.pem")
	t.Setenv("TLS_KEY", "/certs/key.pem")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Server.TLSEnabled())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "server:\n  bogus: 1\n"))
	assert.ErrorIs(t, err, ErrUnknownConfigField)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "log_level: loud\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "server:\n  classifier:\n    tolerance: 0.7\n"))
	assert.Error(t, err)

	t.Setenv("RATE_LIMIT_RPM", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
