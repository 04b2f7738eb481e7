package config

import "time"

// Config is the fully-resolved, validated application configuration,
// assembled from promptforge.yaml plus built-in defaults. It is the
// object wired into cmd/promptforge's server/queue/provider setup.
type Config struct {
	configPath string

	// Providers maps a provider name (referenced by Options.Provider
	// elsewhere in the request path) to its connection details.
	Providers map[string]ProviderConfig

	// DefaultProvider is used when a request does not name one.
	DefaultProvider string

	Queue     *QueueConfig
	Retention *RetentionConfig
	Pipeline  *PipelineDefaults
	SSE       *SSEConfig

	// WebhookSecret gates POST /internal/mcp-event; compared with
	// constant time against the X-Webhook-Secret header.
	WebhookSecret string
}

// ProviderConfig describes one entry in the LLM provider registry.
type ProviderConfig struct {
	Name      string `yaml:"name"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// QueueConfig controls the job queue's worker pool and retry policy.
type QueueConfig struct {
	WorkerCount             int           `yaml:"worker_count"`
	MaxRetries              int           `yaml:"max_retries"`
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`
}

// RetentionConfig controls event/job cleanup.
type RetentionConfig struct {
	EventTTL        time.Duration `yaml:"event_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	OptimizationTTL time.Duration `yaml:"optimization_ttl"`
}

// PipelineDefaults mirrors internal/pipeline's own fallback defaults
// so they can be overridden per deployment without a code change.
// preserving the joint "never iterate unless asked" default of
// score_threshold=1.0, max_iterations=1 (original_source/backend/app/services/pipeline.py:414-415)
// unless the operator opts into a lower threshold or higher cap.
type PipelineDefaults struct {
	ScoreThreshold float64 `yaml:"score_threshold"`
	MaxIterations  int     `yaml:"max_iterations"`
}

// SSEConfig controls the bus-to-SSE relay.
type SSEConfig struct {
	HistoryBufferSize int `yaml:"history_buffer_size"`
}

// Stats summarizes the loaded config for a health-check response, the
// way `pkg/config.Config.Stats()` does for tarsy.yaml.
type Stats struct {
	Providers int
}

// Stats returns summary counts for the /health endpoint.
func (c *Config) Stats() Stats {
	return Stats{Providers: len(c.Providers)}
}

// Provider looks up a named provider, falling back to DefaultProvider
// when name is empty.
func (c *Config) Provider(name string) (ProviderConfig, error) {
	if name == "" {
		name = c.DefaultProvider
	}
	p, ok := c.Providers[name]
	if !ok {
		return ProviderConfig{}, NewValidationError("provider", ErrProviderNotFound)
	}
	return p, nil
}
