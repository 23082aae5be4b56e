package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.HTTPAddr)
	assert.Equal(t, "MCP Server Example", cfg.Server.Name)
	assert.Equal(t, "1.0.0", cfg.Server.Version)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout.Std())
	assert.Empty(t, cfg.Auth.APIKey)
	assert.Equal(t, BackendSQLite, cfg.PurchaseBackend())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8080"
  read_timeout: 5s
  websocket: true
  cors_origins: ["http://localhost:5173"]
auth:
  api_key: ${TEST_GATEWAY_KEY}
database:
  path: /tmp/todo.db
purchase_log:
  url: https://example.turso.io
  auth_token: tok
  timeout: 2s
limits:
  rate: 20
  request_timeout: 1500ms
logging:
  level: debug
  format: json
`)

	cfg, err := load(path, envMap(map[string]string{"TEST_GATEWAY_KEY": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Std())
	// Unset keys keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout.Std())
	assert.True(t, cfg.Server.WebSocket)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "s3cret", cfg.Auth.APIKey)
	assert.Equal(t, "/tmp/todo.db", cfg.Database.Path)
	assert.Equal(t, BackendRemote, cfg.PurchaseBackend())
	assert.Equal(t, 2*time.Second, cfg.PurchaseLog.Timeout.Std())
	assert.Equal(t, 3, cfg.PurchaseLog.MaxRetries)
	assert.Equal(t, 20, cfg.Limits.Rate)
	assert.Equal(t, 1500*time.Millisecond, cfg.Limits.RequestTimeout.Std())
	assert.Equal(t, FormatJSON, cfg.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
auth:
  api_key: from-file
database:
  path: file.db
`)

	cfg, err := load(path, envMap(map[string]string{
		"API_KEY":            "from-env",
		"TURSO_DATABASE_URL": "https://db.example",
		"TURSO_AUTH_TOKEN":   "token",
		"MCP_ADDR":           ":9000",
		"MCP_DATABASE_PATH":  "env.db",
		"MCP_LOG_LEVEL":      "warn",
	}))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.APIKey)
	assert.Equal(t, "https://db.example", cfg.PurchaseLog.URL)
	assert.Equal(t, "token", cfg.PurchaseLog.AuthToken)
	assert.Equal(t, ":9000", cfg.Server.HTTPAddr)
	assert.Equal(t, "env.db", cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_EmptyEnvDisablesAuth(t *testing.T) {
	path := writeConfig(t, "auth:\n  api_key: from-file\n")

	cfg, err := load(path, envMap(map[string]string{"API_KEY": ""}))
	require.NoError(t, err)
	assert.Empty(t, cfg.Auth.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "server: [", "parsing config file"},
		{"bad duration", "server:\n  read_timeout: soon\n", "parsing config file"},
		{"empty addr", "server:\n  http_addr: \"\"\n", "server.http_addr is required"},
		{"empty db path", "database:\n  path: \"\"\n", "database.path is required"},
		{"remote without url", "purchase_log:\n  backend: remote\n", "purchase_log.url is required"},
		{"unknown backend", "purchase_log:\n  backend: kafka\n", "purchase_log.backend"},
		{"negative rate", "limits:\n  rate: -1\n", "limits.rate"},
		{"bad level", "logging:\n  level: loud\n", "logging.level"},
		{"bad format", "logging:\n  format: xml\n", "logging.format"},
		{"bad ratio", "telemetry:\n  sample_ratio: 2\n", "telemetry.sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(writeConfig(t, tt.content), envMap(nil))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), envMap(nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading config file")
	})
}

func TestExpandEnvVars(t *testing.T) {
	lookup := envMap(map[string]string{"A": "1"})
	assert.Equal(t, "x=1 y=", expandEnvVars("x=${A} y=${B}", lookup))
	assert.Equal(t, "no vars", expandEnvVars("no vars", lookup))
}
