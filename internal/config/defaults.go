package config

import "time"

// DefaultQueueConfig returns the built-in queue defaults, applied
// before any promptforge.yaml `queue:` section is merged in.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		WorkerCount:             4,
		MaxRetries:              3,
		GracefulShutdownTimeout: 30 * time.Second,
	}
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		EventTTL:        1 * time.Hour,
		CleanupInterval: 12 * time.Hour,
		OptimizationTTL: 90 * 24 * time.Hour,
	}
}

// DefaultPipelineDefaults mirrors internal/pipeline.DefaultScoreThreshold
// and internal/pipeline.DefaultMaxIterations so the YAML schema and the
// code defaults agree without the config package importing pipeline.
func DefaultPipelineDefaults() *PipelineDefaults {
	return &PipelineDefaults{
		ScoreThreshold: 1.0,
		MaxIterations:  1,
	}
}

// DefaultSSEConfig returns the built-in SSE relay defaults.
func DefaultSSEConfig() *SSEConfig {
	return &SSEConfig{HistoryBufferSize: 100}
}
