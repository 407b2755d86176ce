package repository

import (
	"context"
	"errors"
	"fmt"

	"ticket-manager/internal/status"
	"ticket-manager/internal/store"
	"ticket-manager/models"
)

type TicketRepository struct {
	store store.DocumentStore
}

func NewTicketRepository(s store.DocumentStore) *TicketRepository {
	return &TicketRepository{store: s}
}

// FindOneByID looks a ticket up case-insensitively.
func (r *TicketRepository) FindOneByID(ctx context.Context, id string) (*models.Ticket, error) {
	id = models.NormalizeTicketID(id)
	if id == "" {
		return nil, status.ErrTicketNotFound
	}

	doc, err := r.store.Get(ctx, store.Tickets, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.ErrTicketNotFound
		}
		return nil, fmt.Errorf("get ticket %s: %w", id, err)
	}

	var ticket models.Ticket
	if err := doc.Decode(&ticket); err != nil {
		return nil, fmt.Errorf("decode ticket %s: %w", id, err)
	}
	return &ticket, nil
}

func (r *TicketRepository) FindManyByEventID(ctx context.Context, eventID string) ([]*models.Ticket, error) {
	docs, err := r.store.Query(ctx, store.Tickets, store.Filter{"event_id": eventID})
	if err != nil {
		return nil, fmt.Errorf("query tickets of event %s: %w", eventID, err)
	}

	tickets := make([]*models.Ticket, 0, len(docs))
	for _, doc := range docs {
		var ticket models.Ticket
		if err := doc.Decode(&ticket); err != nil {
			return nil, fmt.Errorf("decode ticket %s: %w", doc.ID, err)
		}
		tickets = append(tickets, &ticket)
	}
	return tickets, nil
}

func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	ticket.ID = models.NormalizeTicketID(ticket.ID)
	fields, err := store.ToFields(ticket)
	if err != nil {
		return err
	}
	return r.store.Create(ctx, store.Tickets, ticket.ID, fields)
}

// UpdateMembers writes the member list and its history.
func (r *TicketRepository) UpdateMembers(ctx context.Context, ticket *models.Ticket) error {
	return r.update(ctx, ticket, "stud_id", "member_history", "last_modified")
}

// UpdateSwap writes the member list and the swap history.
func (r *TicketRepository) UpdateSwap(ctx context.Context, ticket *models.Ticket) error {
	return r.update(ctx, ticket, "stud_id", "swap_history", "last_modified")
}

// UpdateAttendance writes the embedded attendance array.
func (r *TicketRepository) UpdateAttendance(ctx context.Context, ticket *models.Ticket) error {
	return r.update(ctx, ticket, "attendance", "last_modified")
}

func (r *TicketRepository) update(ctx context.Context, ticket *models.Ticket, keys ...string) error {
	fields, err := store.ToFields(ticket, keys...)
	if err != nil {
		return err
	}
	// an emptied slice marshals as null; keep arrays as arrays
	for _, k := range keys {
		if fields[k] == nil && k != "last_modified" {
			fields[k] = []any{}
		}
	}

	if err := r.store.Update(ctx, store.Tickets, ticket.ID, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return status.ErrTicketNotFound
		}
		return fmt.Errorf("update ticket %s: %w", ticket.ID, err)
	}
	return nil
}
