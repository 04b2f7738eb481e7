package config

import "fmt"

// Validate checks that a loaded Config is internally consistent
// before it is handed to the rest of the app, the way
// `pkg/config.Validator.ValidateAll` fails fast in a fixed order.
func Validate(cfg *Config) error {
	if err := validateProviders(cfg); err != nil {
		return err
	}
	if err := validateQueue(cfg.Queue); err != nil {
		return err
	}
	if err := validatePipeline(cfg.Pipeline); err != nil {
		return err
	}
	return nil
}

func validateProviders(cfg *Config) error {
	if len(cfg.Providers) == 0 {
		return NewValidationError("providers", fmt.Errorf("at least one provider must be configured"))
	}
	if cfg.DefaultProvider == "" {
		return NewValidationError("default_provider", fmt.Errorf("required"))
	}
	if _, ok := cfg.Providers[cfg.DefaultProvider]; !ok {
		return NewValidationError("default_provider", fmt.Errorf("%q is not in providers", cfg.DefaultProvider))
	}
	for name, p := range cfg.Providers {
		if p.BaseURL == "" {
			return NewValidationError(fmt.Sprintf("providers.%s.base_url", name), fmt.Errorf("required"))
		}
		if p.Model == "" {
			return NewValidationError(fmt.Sprintf("providers.%s.model", name), fmt.Errorf("required"))
		}
	}
	return nil
}

func validateQueue(q *QueueConfig) error {
	if q.WorkerCount < 1 {
		return NewValidationError("queue.worker_count", fmt.Errorf("must be at least 1"))
	}
	if q.MaxRetries < 0 {
		return NewValidationError("queue.max_retries", fmt.Errorf("cannot be negative"))
	}
	return nil
}

func validatePipeline(p *PipelineDefaults) error {
	if p.ScoreThreshold <= 0 || p.ScoreThreshold > 1 {
		return NewValidationError("pipeline.score_threshold", fmt.Errorf("must be in (0, 1]"))
	}
	if p.MaxIterations < 1 {
		return NewValidationError("pipeline.max_iterations", fmt.Errorf("must be at least 1"))
	}
	return nil
}
