package history

import (
	"context"
	"sync"
)

const defaultMemoryCap = 200

type memoryStore struct {
	mu      sync.Mutex
	entries []Entry
	cap     int
}

// NewMemory keeps the last capacity entries.
func NewMemory(capacity int) Store {
	if capacity <= 0 {
		capacity = defaultMemoryCap
	}
	return &memoryStore{cap: capacity}
}

func (m *memoryStore) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.cap; over > 0 {
		m.entries = append([]Entry(nil), m.entries[over:]...)
	}
	return nil
}

func (m *memoryStore) Recent(_ context.Context, n int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || n > len(m.entries) {
		n = len(m.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(m.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *memoryStore) Close() error { return nil }
