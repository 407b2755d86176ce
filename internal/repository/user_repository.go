package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"ticket-manager/internal/status"
	"ticket-manager/internal/store"
	"ticket-manager/models"
)

type UserRepository struct {
	store store.DocumentStore
}

func NewUserRepository(s store.DocumentStore) *UserRepository {
	return &UserRepository{store: s}
}

func (r *UserRepository) FindOneByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, status.ErrUserNotFound
	}

	doc, err := r.store.Get(ctx, store.Users, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return decodeUser(doc)
}

func (r *UserRepository) FindManyByEmail(ctx context.Context, email string) ([]*models.User, error) {
	return r.find(ctx, store.Filter{"email": email})
}

func (r *UserRepository) FindManyByPhone(ctx context.Context, phone string) ([]*models.User, error) {
	return r.find(ctx, store.Filter{"phone": phone})
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.Tickets == nil {
		user.Tickets = []string{}
	}
	fields, err := store.ToFields(user)
	if err != nil {
		return err
	}
	return r.store.Create(ctx, store.Users, user.ID, fields)
}

// AddTicket puts ticketID into the user's ticket set. It is a separate
// read-modify-write and is not atomic with the ticket update.
func (r *UserRepository) AddTicket(ctx context.Context, userID, ticketID string) error {
	user, err := r.FindOneByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.HoldsTicket(ticketID) {
		return nil
	}
	return r.updateTickets(ctx, userID, append(user.Tickets, ticketID))
}

// RemoveTicket drops every occurrence of ticketID from the user's ticket set.
func (r *UserRepository) RemoveTicket(ctx context.Context, userID, ticketID string) error {
	user, err := r.FindOneByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HoldsTicket(ticketID) {
		return nil
	}
	tickets := slices.DeleteFunc(user.Tickets, func(t string) bool { return t == ticketID })
	return r.updateTickets(ctx, userID, tickets)
}

func (r *UserRepository) updateTickets(ctx context.Context, userID string, tickets []string) error {
	if tickets == nil {
		tickets = []string{}
	}
	err := r.store.Update(ctx, store.Users, userID, store.Fields{"tickets": tickets})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return status.ErrUserNotFound
		}
		return fmt.Errorf("update tickets of user %s: %w", userID, err)
	}
	return nil
}

func (r *UserRepository) find(ctx context.Context, filter store.Filter) ([]*models.User, error) {
	docs, err := r.store.Query(ctx, store.Users, filter)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	users := make([]*models.User, 0, len(docs))
	for _, doc := range docs {
		user, err := decodeUser(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func decodeUser(doc *store.Document) (*models.User, error) {
	var user models.User
	if err := doc.Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", doc.ID, err)
	}
	return &user, nil
}
