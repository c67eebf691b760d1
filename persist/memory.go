package persist

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// memoryStore keeps snapshots in process memory. Snapshots are lost when
// the process terminates; suitable for development and testing.
type memoryStore struct {
	snapshots map[string][]byte
	mu        sync.RWMutex
}

// NewMemoryStore creates a Store backed by process memory.
func NewMemoryStore() Store {
	return &memoryStore{snapshots: make(map[string][]byte)}
}

func (m *memoryStore) Save(_ context.Context, id string, snapshot []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[id] = slices.Clone(snapshot)
	return nil
}

func (m *memoryStore) Load(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot, exists := m.snapshots[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return slices.Clone(snapshot), nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.snapshots, id)
	return nil
}

func (m *memoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.snapshots))
	for id := range m.snapshots {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
