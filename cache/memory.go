package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shaj13/go-guardian/store"
)

type entry struct {
	count     int64
	expiresAt time.Time
}

// Memory is an in-process Counter for single instance deployments. Entries live
// in a go-guardian FIFO store whose own ttl bounds memory; the per-entry expiry
// is tracked alongside the count.
type Memory struct {
	mu    sync.Mutex
	store store.Cache
	now   func() time.Time
}

// NewMemory creates a Memory counter. maxTTL should be at least the longest ttl
// passed to Increment.
func NewMemory(ctx context.Context, maxTTL time.Duration) *Memory {
	return &Memory{
		store: store.NewFIFO(ctx, maxTTL),
		now:   time.Now,
	}
}

func (m *Memory) load(key string) (entry, bool) {
	v, ok, err := m.store.Load(key, nil)
	if err != nil || !ok {
		return entry{}, false
	}
	e, ok := v.(entry)
	if !ok || !m.now().Before(e.expiresAt) {
		_ = m.store.Delete(key, nil)
		return entry{}, false
	}
	return e, true
}

// Get returns the current value of key
func (m *Memory) Get(_ context.Context, key string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.load(key)
	return e.count, ok, nil
}

// Increment increments key, setting ttl when this is the first increment
func (m *Memory) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.load(key)
	if !ok {
		e = entry{expiresAt: m.now().Add(ttl)}
	}
	e.count++
	if err := m.store.Store(key, e, nil); err != nil {
		return 0, err
	}
	return e.count, nil
}

// Evict removes key
func (m *Memory) Evict(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Delete(key, nil)
}
