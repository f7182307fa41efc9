package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/skilltree/internal/progress"
)

const keyPrefix = "skilltree:metrics:"

// Redis shares cached metrics between processes.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// DialRedis connects to the configured server and checks it responds.
func DialRedis(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewRedis returns a cache backed by rdb.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, nodeID string) (progress.NodeMetrics, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+nodeID).Bytes()
	if errors.Is(err, redis.Nil) {
		return progress.NodeMetrics{}, false, nil
	}
	if err != nil {
		return progress.NodeMetrics{}, false, fmt.Errorf("cache get %s: %w", nodeID, err)
	}
	var m progress.NodeMetrics
	if err := json.Unmarshal(raw, &m); err != nil {
		return progress.NodeMetrics{}, false, fmt.Errorf("cache decode %s: %w", nodeID, err)
	}
	return m, true, nil
}

func (c *Redis) Set(ctx context.Context, m progress.NodeMetrics) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, keyPrefix+m.NodeID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", m.NodeID, err)
	}
	return nil
}

func (c *Redis) Delete(ctx context.Context, nodeID string) error {
	if err := c.rdb.Del(ctx, keyPrefix+nodeID).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", nodeID, err)
	}
	return nil
}
