package store

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory.  List returns records in
// insertion order; an upsert of an existing key keeps its position.
type MemoryStore struct {
	mu    sync.RWMutex
	colls map[string]*memCollection
}

type memCollection struct {
	order []string
	data  map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{colls: make(map[string]*memCollection)}
}

func (m *MemoryStore) coll(name string) *memCollection {
	c, ok := m.colls[name]
	if !ok {
		c = &memCollection{data: make(map[string][]byte)}
		m.colls[name] = c
	}
	return c
}

func (m *MemoryStore) Insert(_ context.Context, collection, id string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(collection)
	if _, ok := c.data[id]; ok {
		return ErrExists
	}
	c.order = append(c.order, id)
	c.data[id] = clone(body)
	return nil
}

func (m *MemoryStore) Upsert(_ context.Context, collection, id string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(collection)
	if _, ok := c.data[id]; !ok {
		c.order = append(c.order, id)
	}
	c.data[id] = clone(body)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, collection, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.colls[collection]
	if !ok {
		return nil, ErrNotFound
	}
	b, ok := c.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(b), nil
}

func (m *MemoryStore) List(_ context.Context, collection string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.colls[collection]
	if !ok {
		return []Record{}, nil
	}
	out := make([]Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, Record{ID: id, Body: clone(c.data[id])})
	}
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.colls[collection]
	if !ok {
		return ErrNotFound
	}
	if _, ok := c.data[id]; !ok {
		return ErrNotFound
	}
	delete(c.data, id)
	for i, k := range c.order {
		if k == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Corrupt overwrites a record with raw bytes without validation.  Tests use
// it to simulate a damaged store.
func (m *MemoryStore) Corrupt(collection, id string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(collection)
	if _, ok := c.data[id]; !ok {
		c.order = append(c.order, id)
	}
	c.data[id] = clone(raw)
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
