package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	for _, k := range []string{"OPENAI_API_KEY", "GOOGLE_API_KEY", "PORTIA_API_KEY", "BACKEND_URL", "STORAGE_MODE"} {
		t.Setenv(k, "")
	}
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, ModeLocal, cfg.Collaborator.Mode)
	assert.Equal(t, "none", cfg.Database.Driver)
	assert.Equal(t, StorageLocal, cfg.Gateway.StorageMode)
	assert.Equal(t, 90*time.Second, cfg.Gateway.Timeout)
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9100
collaborator:
  mode: openai
  apiKey: sk-test
  model: gpt-4o
  timeout: 15s
database:
  driver: postgres
  host: db
  port: 5432
gateway:
  timeout: 5s
  storageMode: cloud
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, ModeOpenAI, cfg.Collaborator.Mode)
	assert.Equal(t, 15*time.Second, cfg.Collaborator.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, StorageCloud, cfg.Gateway.StorageMode)
	assert.Contains(t, cfg.PostgresDSN(), "host=db port=5432")
	assert.Contains(t, cfg.PostgresDSN(), "sslmode=disable")
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [oops"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	var cfg Config
	cfg.applyEnv(envFrom(map[string]string{
		"OPENAI_API_KEY":  "sk-env",
		"PORTIA_API_KEY":  "portia",
		"BACKEND_URL":     "http://api:8000",
		"STORAGE_MODE":    "cloud",
		"PACTGUARD_PORT":  "9000",
		"BACKEND_TIMEOUT": "12s",
	}))
	cfg.applyDefaults()

	assert.Equal(t, ModeOpenAI, cfg.Collaborator.Mode)
	assert.Equal(t, "portia", cfg.Collaborator.OrchestrationKey)
	assert.Equal(t, "http://api:8000", cfg.Gateway.BackendURL)
	assert.Equal(t, StorageCloud, cfg.Gateway.StorageMode)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 12*time.Second, cfg.Gateway.Timeout)
}

func TestGoogleKeyUsesGemini(t *testing.T) {
	var cfg Config
	cfg.applyEnv(envFrom(map[string]string{"GOOGLE_API_KEY": "g-key"}))
	cfg.applyDefaults()

	assert.Equal(t, ModeOpenAI, cfg.Collaborator.Mode)
	assert.Equal(t, "google", cfg.Collaborator.Provider)
	assert.Equal(t, geminiOpenAIBaseURL, cfg.Collaborator.BaseURL)
	assert.Equal(t, "g-key", cfg.Collaborator.APIKey)
}

func TestExplicitLocalModeIgnoresKeys(t *testing.T) {
	var cfg Config
	cfg.Collaborator.Mode = ModeLocal
	cfg.applyEnv(envFrom(map[string]string{"OPENAI_API_KEY": "sk"}))
	cfg.applyDefaults()
	assert.Equal(t, ModeLocal, cfg.Collaborator.Mode)
}
