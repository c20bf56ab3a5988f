// Package ocrcache remembers the text recognized for a prepared page image so
// resubmitting the same files with another name or type selection skips OCR.
package ocrcache

import (
	"context"
	"sync"
)

// Store keeps recognized text by image key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, text string) error
}

// MemoryStore is a bounded in-process Store. The oldest entry is evicted
// once capacity is reached.
type MemoryStore struct {
	mu      sync.Mutex
	max     int
	entries map[string]string
	order   []string
}

// NewMemoryStore creates a store holding at most max entries. max <= 0 means 1.
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 1
	}
	return &MemoryStore{max: max, entries: make(map[string]string, max)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.entries[key]
	return text, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		m.entries[key] = text
		return nil
	}
	for len(m.order) >= m.max {
		delete(m.entries, m.order[0])
		m.order = m.order[1:]
	}
	m.entries[key] = text
	m.order = append(m.order, key)
	return nil
}

// Len returns the number of cached entries.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
