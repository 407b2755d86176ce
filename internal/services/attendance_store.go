package services

import (
	"context"
	"errors"
	"fmt"

	"ticket-manager/internal/repository"
	"ticket-manager/internal/status"
	"ticket-manager/internal/store"
	"ticket-manager/models"
)

// AttendanceStore keeps at most one attendance record per (event, ticket,
// user). Record returns status.ErrAlreadyMarked for a second record.
type AttendanceStore interface {
	ListByTicket(ctx context.Context, ticketID, eventID string) ([]models.AttendanceRecord, error)
	Record(ctx context.Context, rec models.AttendanceRecord) error
}

// LedgerStore is the append-only attendance collection. Each record's
// document id is derived from its key, so the store's primary key rejects
// concurrent duplicates.
type LedgerStore struct {
	store store.DocumentStore
}

func NewLedgerStore(s store.DocumentStore) *LedgerStore {
	return &LedgerStore{store: s}
}

func (l *LedgerStore) ListByTicket(ctx context.Context, ticketID, eventID string) ([]models.AttendanceRecord, error) {
	docs, err := l.store.Query(ctx, store.Attendance, store.Filter{
		"ticket_id": ticketID,
		"event_id":  eventID,
	})
	if err != nil {
		return nil, fmt.Errorf("query attendance of ticket %s: %w", ticketID, err)
	}

	records := make([]models.AttendanceRecord, 0, len(docs))
	for _, doc := range docs {
		var rec models.AttendanceRecord
		if err := doc.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode attendance %s: %w", doc.ID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (l *LedgerStore) Record(ctx context.Context, rec models.AttendanceRecord) error {
	fields, err := store.ToFields(rec)
	if err != nil {
		return err
	}

	err = l.store.Create(ctx, store.Attendance, rec.Key(), fields)
	if errors.Is(err, store.ErrDuplicate) {
		return status.ErrAlreadyMarked
	}
	return err
}

// EmbeddedArrayStore keeps attendance inside the ticket document. Every
// Record is a read-modify-write of the whole array, so two markers racing
// on one ticket can lose a record.
type EmbeddedArrayStore struct {
	tickets *repository.TicketRepository
}

func NewEmbeddedArrayStore(tickets *repository.TicketRepository) *EmbeddedArrayStore {
	return &EmbeddedArrayStore{tickets: tickets}
}

func (e *EmbeddedArrayStore) ListByTicket(ctx context.Context, ticketID, _ string) ([]models.AttendanceRecord, error) {
	ticket, err := e.tickets.FindOneByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return ticket.Attendance, nil
}

func (e *EmbeddedArrayStore) Record(ctx context.Context, rec models.AttendanceRecord) error {
	ticket, err := e.tickets.FindOneByID(ctx, rec.TicketID)
	if err != nil {
		return err
	}
	if ticket.EventID != rec.EventID {
		return status.ErrWrongEvent
	}
	for _, existing := range ticket.Attendance {
		if existing.UserID == rec.UserID {
			return status.ErrAlreadyMarked
		}
	}

	// the ticket and event are implied by the enclosing document
	ticket.Attendance = append(ticket.Attendance, models.AttendanceRecord{
		UserID:    rec.UserID,
		Timestamp: rec.Timestamp,
		MarkedBy:  rec.MarkedBy,
	})
	ticket.LastModified = rec.Timestamp
	return e.tickets.UpdateAttendance(ctx, ticket)
}
