package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-manager/internal/repository"
	"ticket-manager/internal/status"
	"ticket-manager/internal/store"
	"ticket-manager/models"
)

func newAttendanceStores(t *testing.T) map[string]AttendanceStore {
	t.Helper()
	ledger := store.NewMemoryStore()
	embedded := store.NewMemoryStore()
	tickets := repository.NewTicketRepository(embedded)
	ctx := context.Background()

	for _, s := range []store.DocumentStore{ledger, embedded} {
		repo := repository.NewTicketRepository(s)
		require.NoError(t, repo.Create(ctx, &models.Ticket{ID: "t1", EventID: "e1", Active: true, Members: []string{"u1", "u2"}}))
		require.NoError(t, repo.Create(ctx, &models.Ticket{ID: "t2", EventID: "e1", Active: true, Members: []string{"u1"}}))
	}

	return map[string]AttendanceStore{
		"ledger":   NewLedgerStore(ledger),
		"embedded": NewEmbeddedArrayStore(tickets),
	}
}

func TestAttendanceStore_Contract(t *testing.T) {
	for name, as := range newAttendanceStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			at := models.NewTimestamp(fixedNow)
			rec := models.AttendanceRecord{EventID: "e1", TicketID: "t1", UserID: "u1", Timestamp: at, MarkedBy: "e1"}

			records, err := as.ListByTicket(ctx, "t1", "e1")
			require.NoError(t, err)
			assert.Empty(t, records)

			require.NoError(t, as.Record(ctx, rec))
			assert.ErrorIs(t, as.Record(ctx, rec), status.ErrAlreadyMarked)

			// the same user on another ticket is a different key
			other := rec
			other.TicketID = "t2"
			require.NoError(t, as.Record(ctx, other))

			records, err = as.ListByTicket(ctx, "t1", "e1")
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "u1", records[0].UserID)
			assert.Equal(t, "e1", records[0].MarkedBy)
			assert.True(t, at.Equal(records[0].Timestamp.Time))
		})
	}
}

func TestLedgerStore_KeyIsDocumentID(t *testing.T) {
	s := store.NewMemoryStore()
	ledger := NewLedgerStore(s)
	rec := models.AttendanceRecord{EventID: "e1", TicketID: "t1", UserID: "u1", Timestamp: models.NewTimestamp(fixedNow), MarkedBy: models.MainCoordinator}

	require.NoError(t, ledger.Record(context.Background(), rec))

	doc, err := s.Get(context.Background(), store.Attendance, rec.Key())
	require.NoError(t, err)
	assert.Equal(t, "t1", doc.Fields["ticket_id"])
	assert.Equal(t, models.MainCoordinator, doc.Fields["marked_by"])
}

func TestEmbeddedArrayStore_Errors(t *testing.T) {
	s := store.NewMemoryStore()
	tickets := repository.NewTicketRepository(s)
	as := NewEmbeddedArrayStore(tickets)
	ctx := context.Background()
	require.NoError(t, tickets.Create(ctx, &models.Ticket{ID: "t1", EventID: "e1", Members: []string{"u1"}}))

	err := as.Record(ctx, models.AttendanceRecord{EventID: "e1", TicketID: "missing", UserID: "u1"})
	assert.ErrorIs(t, err, status.ErrTicketNotFound)

	err = as.Record(ctx, models.AttendanceRecord{EventID: "e2", TicketID: "t1", UserID: "u1"})
	assert.ErrorIs(t, err, status.ErrWrongEvent)

	_, err = as.ListByTicket(ctx, "missing", "e1")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}
