package search

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryBackend keeps objects in process. It evaluates the same queries the
// Elasticsearch backend sends. NewBackend selects it for ES_HOSTS=memory.
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[string]*Object
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string]*Object)}
}

func (m *MemoryBackend) matching(q Query) []*Object {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Object
	for _, o := range m.docs {
		if q.Match(o) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (m *MemoryBackend) Search(_ context.Context, q Query, from, size int) ([]*Object, int64, error) {
	all := m.matching(q)
	total := int64(len(all))
	if from >= len(all) {
		return []*Object{}, total, nil
	}
	end := from + size
	if end > len(all) {
		end = len(all)
	}
	return all[from:end], total, nil
}

func (m *MemoryBackend) Scan(_ context.Context, q Query) ([]*Object, error) {
	return m.matching(q), nil
}

func (m *MemoryBackend) Save(_ context.Context, o *Object) error {
	if o.ID == "" {
		return fmt.Errorf("save: object has no id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[o.ID] = o.Clone()
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return &TransportError{Status: 404, Info: "document " + id + " not found"}
	}
	delete(m.docs, id)
	return nil
}

func (m *MemoryBackend) EnsureIndex(context.Context) error { return nil }

func (m *MemoryBackend) Ping(context.Context) error { return nil }

// Len is the number of stored documents.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Get returns a copy of a stored document.
func (m *MemoryBackend) Get(id string) (*Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.docs[id]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}
