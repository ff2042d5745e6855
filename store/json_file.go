package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JsonFileStore persists a collection as a JSON array on disk.
//
// Layout:
//
//	data_dir/
//	  products.json   # "products" collection
//	  users.json      # "users" collection
type JsonFileStore struct {
	mu   sync.Mutex
	path string
}

func NewJsonFileStore(dir, name string) (*JsonFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &JsonFileStore{path: filepath.Join(dir, name+".json")}, nil
}

func (s *JsonFileStore) load() ([]map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []map[string]any{}, nil
		}
		return nil, err
	}
	var records []map[string]any
	if err := unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if records == nil {
		records = []map[string]any{}
	}
	return records, nil
}

func (s *JsonFileStore) save(records []map[string]any) error {
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *JsonFileStore) List(_ context.Context) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *JsonFileStore) Append(_ context.Context, doc map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return nil, err
	}
	if err := s.save(append(records, doc)); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *JsonFileStore) AppendMany(_ context.Context, docs []map[string]any) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return 0, err
	}
	if err := s.save(append(records, docs...)); err != nil {
		return 0, err
	}
	return len(docs), nil
}
