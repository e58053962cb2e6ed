// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
app:
  name: meal-assistant
  environment: test
database:
  redis:
    address: localhost:6379
analyzer:
  api_key: test-key
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "meal-assistant", cfg.App.Name)
	assert.Equal(t, "localhost:6379", cfg.Database.Redis.Address)
	assert.Equal(t, "test-key", cfg.Analyzer.APIKey)
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
database:
  redis:
    address: localhost:6379
analyzer:
  api_key: test-key
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.Analyzer.Model)
	assert.Equal(t, 30000, cfg.Analyzer.Timeout)
	assert.Equal(t, 120, cfg.Session.TTLMin)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile_MissingRedisAddress(t *testing.T) {
	path := writeConfigFile(t, `
analyzer:
  api_key: test-key
`)

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFile_APIKeyFromEnvironment(t *testing.T) {
	t.Setenv("ANALYZER_API_KEY", "env-key")
	path := writeConfigFile(t, `
database:
  redis:
    address: localhost:6379
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Analyzer.APIKey)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, int64(1500), GetDuration(1500).Milliseconds())
}

func TestServerConfig_GetAddress(t *testing.T) {
	cfg := ServerConfig{Host: "0.0.0.0", Port: 8080}
	assert.Equal(t, "0.0.0.0:8080", cfg.GetAddress())
}
