package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bkyoung/reviewhook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{t.TempDir()},
		FileName:    "does-not-exist",
	})
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, "10s", cfg.Server.ShutdownTimeout)
	assert.Equal(t, "120s", cfg.HTTP.Timeout)
	assert.Equal(t, 0, cfg.HTTP.MaxRetries)
	assert.Equal(t, 2.0, cfg.HTTP.BackoffMultiplier)
	assert.Equal(t, "30s", cfg.Pipeline.DiffFetchTimeout)
	assert.Equal(t, "150s", cfg.Pipeline.AnalysisTimeout)
	assert.Equal(t, "30s", cfg.Pipeline.PublishTimeout)
	assert.True(t, cfg.Observability.Logging.Enabled)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
	assert.Equal(t, "human", cfg.Observability.Logging.Format)
	assert.True(t, cfg.Observability.Logging.RedactAPIKeys)
	assert.NotEmpty(t, cfg.Store.Path)

	require.Contains(t, cfg.Providers, "mistral")
	assert.False(t, cfg.Providers["mistral"].Enabled)
	assert.Equal(t, "mixtral-8x7b-32768", cfg.Providers["mistral"].Model)
	require.Contains(t, cfg.Providers, "openai")
	assert.Equal(t, "gpt-4o", cfg.Providers["openai"].Model)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  addr: ":8080"
store:
  path: /tmp/reviewhook-test.db
providers:
  mistral:
    enabled: true
    apiKey: groq-key
  openai:
    enabled: true
    model: gpt-4o-mini
    apiKey: sk-test
bootstrap:
  githubToken: ghp_file
  webhookSecret: file-secret
  repositories:
    - acme/widgets
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewhook.yaml"), []byte(content), 0o600))

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "reviewhook",
	})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "/tmp/reviewhook-test.db", cfg.Store.Path)
	assert.True(t, cfg.Providers["mistral"].Enabled)
	assert.Equal(t, "groq-key", cfg.Providers["mistral"].APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Providers["openai"].Model)
	assert.Equal(t, "ghp_file", cfg.Bootstrap.GitHubToken)
	assert.Equal(t, []string{"acme/widgets"}, cfg.Bootstrap.Repositories)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_GROQ_KEY", "groq-from-env")
	t.Setenv("TEST_HOOK_SECRET", "secret-from-env")

	dir := t.TempDir()
	content := `
providers:
  mistral:
    enabled: true
    apiKey: ${TEST_GROQ_KEY}
bootstrap:
  githubToken: $TEST_GROQ_KEY
  webhookSecret: ${TEST_HOOK_SECRET}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewhook.yaml"), []byte(content), 0o600))

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "reviewhook",
	})
	require.NoError(t, err)

	assert.Equal(t, "groq-from-env", cfg.Providers["mistral"].APIKey)
	assert.Equal(t, "groq-from-env", cfg.Bootstrap.GitHubToken)
	assert.Equal(t, "secret-from-env", cfg.Bootstrap.WebhookSecret)
}

func TestLoad_UnsetEnvVarKeptVerbatim(t *testing.T) {
	dir := t.TempDir()
	content := `
providers:
  mistral:
    apiKey: ${DEFINITELY_NOT_SET_ANYWHERE}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewhook.yaml"), []byte(content), 0o600))

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "reviewhook",
	})
	require.NoError(t, err)

	assert.Equal(t, "${DEFINITELY_NOT_SET_ANYWHERE}", cfg.Providers["mistral"].APIKey)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewhook.yaml"), []byte("server: [not: valid"), 0o600))

	_, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "reviewhook",
	})
	assert.Error(t, err)
}
