package store

import (
	"context"
	"sync"
)

// Op names a DocumentStore method for fault injection.
type Op string

const (
	OpGet    Op = "get"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpQuery  Op = "query"
)

// FaultyStore wraps a DocumentStore and fails chosen operations. It backs
// tests of the best-effort write paths.
type FaultyStore struct {
	DocumentStore

	mu     sync.Mutex
	faults map[Op]map[string]error
	calls  map[Op]int
}

func NewFaultyStore(inner DocumentStore) *FaultyStore {
	return &FaultyStore{
		DocumentStore: inner,
		faults:        make(map[Op]map[string]error),
		calls:         make(map[Op]int),
	}
}

// Fail makes op on collection return err until cleared with a nil err.
func (s *FaultyStore) Fail(op Op, collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.faults[op] == nil {
		s.faults[op] = make(map[string]error)
	}
	if err == nil {
		delete(s.faults[op], collection)
		return
	}
	s.faults[op][collection] = err
}

// Calls reports how many times op was invoked.
func (s *FaultyStore) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *FaultyStore) fault(op Op, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.faults[op][collection]
}

func (s *FaultyStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := s.fault(OpGet, collection); err != nil {
		return nil, err
	}
	return s.DocumentStore.Get(ctx, collection, id)
}

func (s *FaultyStore) Create(ctx context.Context, collection, id string, fields Fields) error {
	if err := s.fault(OpCreate, collection); err != nil {
		return err
	}
	return s.DocumentStore.Create(ctx, collection, id, fields)
}

func (s *FaultyStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	if err := s.fault(OpUpdate, collection); err != nil {
		return err
	}
	return s.DocumentStore.Update(ctx, collection, id, fields)
}

func (s *FaultyStore) Query(ctx context.Context, collection string, filter Filter) ([]*Document, error) {
	if err := s.fault(OpQuery, collection); err != nil {
		return nil, err
	}
	return s.DocumentStore.Query(ctx, collection, filter)
}
