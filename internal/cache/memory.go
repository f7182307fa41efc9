package cache

import (
	"context"
	"sync"
	"time"

	"github.com/abhisek/skilltree/internal/clock"
	"github.com/abhisek/skilltree/internal/progress"
)

type memoryEntry struct {
	m       progress.NodeMetrics
	expires time.Time
}

// Memory is a process-local cache with a fixed TTL.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   clock.Clock
	entries map[string]memoryEntry
}

// NewMemory returns an empty cache whose entries live for ttl.
func NewMemory(ttl time.Duration, c clock.Clock) *Memory {
	return &Memory{ttl: ttl, clock: c, entries: make(map[string]memoryEntry)}
}

func (c *Memory) Get(_ context.Context, nodeID string) (progress.NodeMetrics, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[nodeID]
	if !ok {
		return progress.NodeMetrics{}, false, nil
	}
	if !c.clock.Now().Before(e.expires) {
		delete(c.entries, nodeID)
		return progress.NodeMetrics{}, false, nil
	}
	return e.m, true, nil
}

func (c *Memory) Set(_ context.Context, m progress.NodeMetrics) error {
	c.mu.Lock()
	c.entries[m.NodeID] = memoryEntry{m: m, expires: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *Memory) Delete(_ context.Context, nodeID string) error {
	c.mu.Lock()
	delete(c.entries, nodeID)
	c.mu.Unlock()
	return nil
}
