package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// MemoryStore keeps documents in process. Values are normalized through JSON
// on every write, so readers see the same shapes a remote store returns.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Fields
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]Fields)}
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: id, Fields: copyFields(fields)}, nil
}

func (s *MemoryStore) Create(_ context.Context, collection, id string, fields Fields) error {
	normalized, err := normalize(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	if docs == nil {
		docs = make(map[string]Fields)
		s.collections[collection] = docs
	}
	if _, exists := docs[id]; exists {
		return ErrDuplicate
	}
	docs[id] = normalized
	return nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, fields Fields) error {
	normalized, err := normalize(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range normalized {
		doc[k] = v
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, collection string, filter Filter) ([]*Document, error) {
	want, err := normalize(Fields(filter))
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []*Document
	for id, fields := range s.collections[collection] {
		if matches(fields, want) {
			docs = append(docs, &Document{ID: id, Fields: copyFields(fields)})
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func matches(fields, want Fields) bool {
	for k, v := range want {
		got, ok := fields[k]
		if !ok || got != v {
			return false
		}
	}
	return true
}

func normalize(fields Fields) (Fields, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	out := Fields{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func copyFields(fields Fields) Fields {
	// normalized values only fail to marshal if the map was corrupted
	out, _ := normalize(fields)
	return out
}
