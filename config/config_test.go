package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smartllm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4", cfg.Model)
	assert.Equal(t, 60, cfg.TimeoutSeconds)
	assert.Equal(t, 0, cfg.Retry.MaxRetries)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
provider: Anthropic
model: claude-3-haiku-20240307
timeout_seconds: 30
options:
  temperature: 0.2
  max_tokens: 512
retry:
  max_retries: 3
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-3-haiku-20240307", cfg.Model)
	assert.Equal(t, 0.2, cfg.Options["temperature"])
	assert.Equal(t, 512, cfg.Options["max_tokens"])
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, "json", cfg.LoggerConfig().Format)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "provider: openai\nmodel: gpt-4\n")
	t.Setenv("SMARTLLM_PROVIDER", "gollm")
	t.Setenv("SMARTLLM_MODEL", "ollama/llama3")
	t.Setenv("SMARTLLM_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gollm", cfg.Provider)
	assert.Equal(t, "ollama/llama3", cfg.Model)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadProviderFromEnvWithoutModel(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SMARTLLM_PROVIDER", "anthropic")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Empty(t, cfg.Model)
}

func TestLoadProviderFromFileWithoutModel(t *testing.T) {
	path := writeConfig(t, "provider: gollm\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gollm", cfg.Provider)
	assert.Empty(t, cfg.Model)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "read", ce.Op)
}

func TestLoadValidation(t *testing.T) {
	path := writeConfig(t, `
base_url: not a url
retry:
  max_retries: 20
logging:
  level: loud
`)
	_, err := Load(path)

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "validate", ce.Op)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.HasError("BaseURL"))
	assert.True(t, ve.HasError("MaxRetries"))
	assert.True(t, ve.HasError("Level"))
	assert.False(t, ve.HasError("Provider"))
}

func TestDriverOptionsAndRetryPolicy(t *testing.T) {
	cfg := &Config{
		BaseURL:        "https://proxy.example.com/v1",
		TimeoutSeconds: 15,
		Retry:          RetryConfig{MaxRetries: 2, BaseDelaySeconds: 0.5, MaxDelaySeconds: 4},
	}
	assert.Len(t, cfg.DriverOptions(), 2)
	assert.Empty(t, (&Config{}).DriverOptions())

	p := cfg.RetryPolicy()
	assert.Equal(t, 2, p.MaxRetries)
	assert.Equal(t, 0.5, p.BaseDelay)
	assert.Equal(t, 4.0, p.MaxDelay)
	assert.True(t, p.Jitter)
}
