// Package ratelimit gates sensitive, repeatable money-movement requests.
// Two independent checks must both pass: a per-user fixed window computed
// from persisted transactions, and a per-source window tracked by a
// Counter. The in-memory Counter is correct for a single instance; the
// Redis Counter makes the window visible to every instance.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Counter records one hit for key and returns how many hits the key has
// accumulated inside the window, including this one.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int, error)
}

// MemoryCounter is a process-local sliding window: per key, a trimmed list
// of recent hit timestamps. Key cardinality is unbounded; acceptable for a
// single-instance deployment only.
type MemoryCounter struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{hits: make(map[string][]time.Time), now: time.Now}
}

func (c *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	cutoff := now.Add(-window)
	kept := c.hits[key][:0]
	for _, t := range c.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	c.hits[key] = kept
	return len(kept), nil
}
