package store

import (
	"context"
	"sync"
)

// MemoryStore keeps documents in process memory. Used for local development
// and tests; contents vanish on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

var _ DocumentStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, collection, key string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.docs[collection+"/"+key]
	if !ok {
		return Snapshot{}, nil
	}
	return Snapshot{Exists: true, Data: append([]byte(nil), data...)}, nil
}

func (m *MemoryStore) Set(_ context.Context, collection, key string, data []byte) error {
	if !validObject(data) {
		return ErrInvalidDocument
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[collection+"/"+key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close(context.Context) error { return nil }
