package engine

import "time"

// Config tunes the engine's store access.
type Config struct {
	// FetchTimeout bounds every store call, including whole transactions.
	FetchTimeout time.Duration `yaml:"fetch_timeout" validate:"gt=0"`
	// MaxConflictRetries is how many times a lost optimistic write is retried.
	MaxConflictRetries int `yaml:"max_conflict_retries" validate:"gte=0"`
	// MetricsConcurrency caps parallel aggregations during calibration.
	MetricsConcurrency int `yaml:"metrics_concurrency" validate:"gte=1"`
}

// DefaultConfig returns the default engine settings.
func DefaultConfig() Config {
	return Config{
		FetchTimeout:       5 * time.Second,
		MaxConflictRetries: 3,
		MetricsConcurrency: 8,
	}
}
