package store

import (
	"context"
	"sync"
)

// MemoryStore keeps records in a process-lifetime slice. Data is lost on
// restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records []map[string]any
}

// NewMemoryStore returns a store pre-seeded with the given records.
func NewMemoryStore(seed ...map[string]any) *MemoryStore {
	m := &MemoryStore{records: make([]map[string]any, 0, len(seed))}
	for _, doc := range seed {
		m.records = append(m.records, deepCopy(doc))
	}
	return m
}

// deepCopy returns a deep copy of a record. Leaf values (json.Number
// included) are kept as-is.
func deepCopy(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = copyValue(v)
	}
	return dst
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopy(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	}
	return v
}

func (m *MemoryStore) List(_ context.Context) ([]map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]map[string]any, len(m.records))
	for i, doc := range m.records {
		result[i] = deepCopy(doc)
	}
	return result, nil
}

func (m *MemoryStore) Append(_ context.Context, doc map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, deepCopy(doc))
	return doc, nil
}

func (m *MemoryStore) AppendMany(_ context.Context, docs []map[string]any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range docs {
		m.records = append(m.records, deepCopy(doc))
	}
	return len(docs), nil
}

// Len reports how many records are held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
