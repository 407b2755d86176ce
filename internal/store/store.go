// Package store is the document store adapter. Every backend offers get by
// id, create, partial update and equality queries with last-write-wins
// semantics and no cross-document transactions.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names.
const (
	Tickets    = "tickets"
	Users      = "users"
	Events     = "events"
	Attendance = "attendance"
)

var (
	ErrNotFound  = errors.New("store: document not found")
	ErrDuplicate = errors.New("store: duplicate document")
)

// Fields holds JSON compatible document values keyed by field name.
type Fields map[string]any

// Filter selects documents whose fields equal every given value.
type Filter map[string]any

type Document struct {
	ID     string
	Fields Fields
}

// Decode fills v (a struct with json tags) from the document. The id is
// exposed as the "id" field.
func (d Document) Decode(v any) error {
	data := make(map[string]any, len(d.Fields)+1)
	for k, val := range d.Fields {
		data[k] = val
	}
	data["id"] = d.ID

	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// ToFields converts a json tagged value into Fields, dropping the id and any
// key not listed in keep (when keep is non-empty).
func ToFields(v any, keep ...string) (Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var all Fields
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, err
	}
	delete(all, "id")
	if len(keep) == 0 {
		return all, nil
	}

	fields := make(Fields, len(keep))
	for _, k := range keep {
		if val, ok := all[k]; ok {
			fields[k] = val
		}
	}
	return fields, nil
}

type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Create fails with ErrDuplicate when id already exists.
	Create(ctx context.Context, collection, id string, fields Fields) error
	// Update overwrites only the given fields. ErrNotFound if id is absent.
	Update(ctx context.Context, collection, id string, fields Fields) error
	Query(ctx context.Context, collection string, filter Filter) ([]*Document, error)
	Ping(ctx context.Context) error
}
