// Package cache provides the key-value backends behind core.Cache:
// an embedded badger store standing in for an external cache, and an
// in-process fallback for running without one.
package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value   []byte
	count   int64
	expires time.Time
}

// Memory is the graceful-absence cache backend: same contract, no
// external process. Expired entries are dropped lazily on access.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memEntry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*memEntry)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = &memEntry{value: value, expires: expiry(ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) IncrWithTTL(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.live(key); ok {
		e.count++
		return e.count, nil
	}
	m.entries[key] = &memEntry{count: 1, expires: expiry(window)}
	return 1, nil
}

// live returns the unexpired entry for key; caller holds mu.
func (m *Memory) live(key string) (*memEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && !time.Now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false
	}
	return e, true
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}
