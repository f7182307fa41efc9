package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/skilltree/internal/clock"
	"github.com/abhisek/skilltree/internal/progress"
)

var start = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func sample(id string) progress.NodeMetrics {
	return progress.NodeMetrics{NodeID: id, UniqueStudents: 12, CompletionRate: 0.75, AverageScore: 81.5, AsOf: start}
}

func TestMemory_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFixed(start)
	c := NewMemory(time.Minute, clk)

	require.NoError(t, c.Set(ctx, sample("n1")))
	got, ok, err := c.Get(ctx, "n1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sample("n1"), got)

	clk.Advance(time.Minute)
	_, ok, err = c.Get(ctx, "n1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Hour, clock.NewFixed(start))
	require.NoError(t, c.Set(ctx, sample("n1")))
	require.NoError(t, c.Delete(ctx, "n1"))
	_, ok, _ := c.Get(ctx, "n1")
	assert.False(t, ok)
}

func TestNop(t *testing.T) {
	var c MetricsCache = Nop{}
	require.NoError(t, c.Set(context.Background(), sample("n1")))
	_, ok, err := c.Get(context.Background(), "n1")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestRedis runs against a real server when SKILLTREE_TEST_REDIS is set.
func TestRedis(t *testing.T) {
	addr := os.Getenv("SKILLTREE_TEST_REDIS")
	if addr == "" {
		t.Skip("SKILLTREE_TEST_REDIS not set")
	}
	ctx := context.Background()
	rdb, err := DialRedis(ctx, Config{RedisAddr: addr})
	require.NoError(t, err)
	defer rdb.Close()

	c := NewRedis(rdb, time.Minute)
	require.NoError(t, c.Set(ctx, sample("redis-n1")))
	got, ok, err := c.Get(ctx, "redis-n1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 81.5, got.AverageScore)
	assert.True(t, got.AsOf.Equal(start))

	require.NoError(t, c.Delete(ctx, "redis-n1"))
	_, ok, err = c.Get(ctx, "redis-n1")
	require.NoError(t, err)
	assert.False(t, ok)
}
