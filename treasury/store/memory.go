// Package store provides KV implementations for the treasury record store.
package store

import (
	"context"
	"sync"
)

// =============================================================================
// MEMORY KV - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	values map[string]string

	// failSet, when set, is consulted before every write.
	failSet func(key string) error
	writes  int
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get returns the value under key. Missing keys report ok == false.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set replaces the value under key.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		if err := m.failSet(key); err != nil {
			return err
		}
	}
	m.values[key] = value
	m.writes++
	return nil
}

// FailWrites makes every later Set call return the error fn gives for its
// key. A nil fn restores normal writes.
func (m *Memory) FailWrites(fn func(key string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSet = fn
}

// Writes counts successful Set calls.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
