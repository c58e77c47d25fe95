package config

import "time"

// QueueConfig contains the worker-pool and retry configuration for the
// event pipeline's consumers.
type QueueConfig struct {
	// WorkerCount is validated to lie in [1, 50]. cmd/evalctl does not read
	// it: each consumer runs a single poll loop (one pipeline.Consumer.Start
	// call per consumer).
	WorkerCount int `yaml:"worker_count"`

	// MaxRetries is the number of attempts a consumer makes before sending
	// an event to the shared pipeline.errors dead-letter topic.
	MaxRetries int `yaml:"max_retries"`

	// GracefulShutdownTimeout is validated but not read by cmd/evalctl;
	// pipeline.Consumer.Stop waits for its poll loop without a deadline.
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`
}

// DefaultQueueConfig returns the built-in queue defaults.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		WorkerCount:             3,
		MaxRetries:              3,
		GracefulShutdownTimeout: 30 * time.Second,
	}
}
