// Package cache provides the shared key/value cache used for uploaded
// connector config files and other short-lived console artifacts. Redis
// backs it in multi-node deployments; a process-local map backs it
// otherwise.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a string key/value store with optional expiry.
type Cache interface {
	// Put stores value under key. A zero ttl means no expiry.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the value for key, with ok=false on a miss.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Delete removes key. Missing keys are a no-op.
	Delete(ctx context.Context, key string) error
}

// memoryEntry is one value with its optional deadline.
type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is the in-process Cache implementation.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory constructs an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// Put stores value under key.
func (m *Memory) Put(_ context.Context, key, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Get returns the value for key, dropping expired entries lazily.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", false, nil
	}
	return entry.value, true, nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
