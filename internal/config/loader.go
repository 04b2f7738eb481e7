package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// yamlConfig mirrors promptforge.yaml's on-disk shape. Every section
// is optional; Initialize merges it over the built-in defaults.
type yamlConfig struct {
	Providers        map[string]ProviderConfig `yaml:"providers"`
	DefaultProvider  string                    `yaml:"default_provider"`
	Queue            *QueueConfig              `yaml:"queue"`
	Retention        *RetentionConfig          `yaml:"retention"`
	Pipeline         *PipelineDefaults         `yaml:"pipeline"`
	SSE              *SSEConfig                `yaml:"sse"`
	WebhookSecretEnv string                    `yaml:"webhook_secret_env"`
}

// Initialize loads promptforge.yaml from configDir, merges it over the
// built-in defaults, and validates the result. This is the primary
// entry point, mirroring `pkg/config.Initialize`'s load → validate →
// return shape.
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	raw, err := loadYAML(configDir)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		configPath:      filepath.Join(configDir, "promptforge.yaml"),
		Providers:       raw.Providers,
		DefaultProvider: raw.DefaultProvider,
		WebhookSecret:   os.Getenv(raw.WebhookSecretEnv),
	}
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}

	cfg.Queue = DefaultQueueConfig()
	if raw.Queue != nil {
		if err := mergo.Merge(cfg.Queue, raw.Queue, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge queue config: %w", err)
		}
	}

	cfg.Retention = DefaultRetentionConfig()
	if raw.Retention != nil {
		if err := mergo.Merge(cfg.Retention, raw.Retention, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge retention config: %w", err)
		}
	}

	cfg.Pipeline = DefaultPipelineDefaults()
	if raw.Pipeline != nil {
		if err := mergo.Merge(cfg.Pipeline, raw.Pipeline, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge pipeline defaults: %w", err)
		}
	}

	cfg.SSE = DefaultSSEConfig()
	if raw.SSE != nil {
		if err := mergo.Merge(cfg.SSE, raw.SSE, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge sse config: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized", "providers", len(cfg.Providers))
	return cfg, nil
}

func loadYAML(configDir string) (*yamlConfig, error) {
	path := filepath.Join(configDir, "promptforge.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewLoadError(path, fmt.Errorf("%w: %s", ErrConfigNotFound, path))
		}
		return nil, NewLoadError(path, err)
	}

	data = ExpandEnv(data)

	cfg := &yamlConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}
	return cfg, nil
}
