package config

import "time"

// RetentionConfig controls data retention and cleanup behavior for
// completed eval runs and their conversations/evaluations.
type RetentionConfig struct {
	// EvalRunRetentionDays is how many days to keep a completed eval run
	// (and its conversations/evaluations/metrics) before it is eligible
	// for deletion.
	EvalRunRetentionDays int `yaml:"eval_run_retention_days"`

	// DeadLetterTTL is the maximum age of a dead-lettered event before
	// it is purged.
	DeadLetterTTL time.Duration `yaml:"dead_letter_ttl"`

	// CleanupInterval is how often the cleanup loop runs.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		EvalRunRetentionDays: 90,
		DeadLetterTTL:        7 * 24 * time.Hour,
		CleanupInterval:      12 * time.Hour,
	}
}
