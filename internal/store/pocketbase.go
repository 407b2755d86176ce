package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// PocketBaseStore keeps documents as records of PocketBase base collections.
type PocketBaseStore struct {
	app core.App
}

func NewPocketBaseStore(app core.App) *PocketBaseStore {
	return &PocketBaseStore{app: app}
}

func (s *PocketBaseStore) Get(_ context.Context, collection, id string) (*Document, error) {
	record, err := s.app.FindRecordById(collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return recordDocument(record)
}

func (s *PocketBaseStore) Create(ctx context.Context, collection, id string, fields Fields) error {
	col, err := s.app.FindCachedCollectionByNameOrId(collection)
	if err != nil {
		return err
	}

	record := core.NewRecord(col)
	record.Id = id
	for k, v := range fields {
		record.Set(k, v)
	}

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *PocketBaseStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	record, err := s.app.FindRecordById(collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	for k, v := range fields {
		record.Set(k, v)
	}
	return s.app.SaveWithContext(ctx, record)
}

func (s *PocketBaseStore) Query(_ context.Context, collection string, filter Filter) ([]*Document, error) {
	records, err := s.app.FindAllRecords(collection, dbx.HashExp(filter))
	if err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(records))
	for _, record := range records {
		doc, err := recordDocument(record)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *PocketBaseStore) Ping(ctx context.Context) error {
	_, err := s.app.DB().NewQuery("SELECT 1").WithContext(ctx).Execute()
	return err
}

func recordDocument(record *core.Record) (*Document, error) {
	fields, err := normalize(record.FieldsData())
	if err != nil {
		return nil, err
	}
	delete(fields, "id")
	return &Document{ID: record.Id, Fields: fields}, nil
}

// isDuplicate recognizes both PocketBase's own uniqueness validation and a
// unique index violation reported by SQLite.
func isDuplicate(err error) bool {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		if _, ok := verrs["id"]; ok {
			return true
		}
		for _, fieldErr := range verrs {
			var verr validation.Error
			if !errors.As(fieldErr, &verr) {
				continue
			}
			if code := verr.Code(); strings.Contains(code, "unique") || strings.Contains(code, "duplicate") {
				return true
			}
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
