package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "promptforge.yaml"), []byte(body), 0o644))
}

func TestInitializeMergesUserConfigOverDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
providers:
  anthropic:
    base_url: https://api.anthropic.com
    model: claude-3-5-sonnet
default_provider: anthropic
queue:
  worker_count: 8
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Queue.WorkerCount)
	assert.Equal(t, 3, cfg.Queue.MaxRetries, "unset fields keep the built-in default")
	assert.Equal(t, 1.0, cfg.Pipeline.ScoreThreshold)
	assert.Equal(t, 1, cfg.Pipeline.MaxIterations)
}

func TestInitializeMissingFileReturnsLoadError(t *testing.T) {
	dir := t.TempDir()

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestInitializeRejectsMissingDefaultProvider(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
providers:
  anthropic:
    base_url: https://api.anthropic.com
    model: claude-3-5-sonnet
`)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "default_provider", valErr.Field)
}

func TestInitializeResolvesWebhookSecretFromNamedEnvVar(t *testing.T) {
	t.Setenv("TEST_PF_WEBHOOK_SECRET", "shh")
	dir := t.TempDir()
	writeConfig(t, dir, `
providers:
  anthropic:
    base_url: https://api.anthropic.com
    model: claude-3-5-sonnet
default_provider: anthropic
webhook_secret_env: TEST_PF_WEBHOOK_SECRET
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "shh", cfg.WebhookSecret)
}

func TestExpandEnvSubstitutesYAMLValues(t *testing.T) {
	t.Setenv("TEST_PF_MODEL", "claude-3-5-sonnet")
	dir := t.TempDir()
	writeConfig(t, dir, `
providers:
  anthropic:
    base_url: https://api.anthropic.com
    model: ${TEST_PF_MODEL}
default_provider: anthropic
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-sonnet", cfg.Providers["anthropic"].Model)
}
