package cache

import (
	"context"
	"sort"
	"sync"

	"gocuts/ports"

	"golang.org/x/sync/singleflight"
)

// Memory is an in-process ComputeCachePort. Concurrent computes of the same
// key run once.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
	flight  singleflight.Group
}

var _ ports.ComputeCachePort = (*Memory)(nil)

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func (m *Memory) get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

// GetOrCompute implements ports.ComputeCachePort.
func (m *Memory) GetOrCompute(ctx context.Context, key string, compute ports.ComputeFunc) ([]byte, error) {
	if v, ok := m.get(key); ok {
		observeHit(storeMemory)
		return v, nil
	}

	res, err, _ := m.flight.Do(key, func() (interface{}, error) {
		if v, ok := m.get(key); ok {
			observeHit(storeMemory)
			return v, nil
		}
		observeMiss(storeMemory)
		data, err := compute(ctx)
		if err != nil {
			observeError(storeMemory)
			return nil, err
		}
		m.mu.Lock()
		m.entries[key] = data
		m.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

// Invalidate implements ports.ComputeCachePort.
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
