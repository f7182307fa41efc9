// Package cache holds recently aggregated NodeMetrics. Cached values are
// never a source of truth; a miss always falls back to a fresh aggregation.
package cache

import (
	"context"
	"time"

	"github.com/abhisek/skilltree/internal/progress"
)

// MetricsCache stores NodeMetrics by node ID.
type MetricsCache interface {
	Get(ctx context.Context, nodeID string) (progress.NodeMetrics, bool, error)
	Set(ctx context.Context, m progress.NodeMetrics) error
	Delete(ctx context.Context, nodeID string) error
}

// Config selects and tunes the cache.
type Config struct {
	TTL           time.Duration `yaml:"ttl" validate:"gte=0"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
}

// DefaultConfig returns an in-memory cache with a short TTL.
func DefaultConfig() Config {
	return Config{TTL: 10 * time.Minute}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (progress.NodeMetrics, bool, error) {
	return progress.NodeMetrics{}, false, nil
}
func (Nop) Set(context.Context, progress.NodeMetrics) error { return nil }
func (Nop) Delete(context.Context, string) error            { return nil }
