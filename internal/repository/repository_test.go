package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-manager/internal/status"
	"ticket-manager/internal/store"
	"ticket-manager/models"
)

func TestTicketRepository_FindOneByID_CaseInsensitive(t *testing.T) {
	s := store.NewMemoryStore()
	repo := NewTicketRepository(s)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Ticket{
		ID:      "T1",
		EventID: "e1",
		Active:  true,
		Members: []string{"u1"},
	}))

	for _, id := range []string{"t1", "T1", " t1 "} {
		ticket, err := repo.FindOneByID(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, "t1", ticket.ID)
		assert.Equal(t, []string{"u1"}, ticket.Members)
	}
}

func TestTicketRepository_FindOneByID_Errors(t *testing.T) {
	s := store.NewFaultyStore(store.NewMemoryStore())
	repo := NewTicketRepository(s)
	ctx := context.Background()

	_, err := repo.FindOneByID(ctx, "missing")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)

	_, err = repo.FindOneByID(ctx, "")
	assert.ErrorIs(t, err, status.ErrNotFound)

	s.Fail(store.OpGet, store.Tickets, errors.New("timeout"))
	_, err = repo.FindOneByID(ctx, "t1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, status.ErrNotFound)
}

func TestTicketRepository_UpdateMembersWritesOnlyMembershipFields(t *testing.T) {
	s := store.NewMemoryStore()
	repo := NewTicketRepository(s)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Ticket{ID: "t1", EventID: "e1", TeamName: "Rockets", Active: true}))

	ticket, err := repo.FindOneByID(ctx, "t1")
	require.NoError(t, err)
	now := models.NewTimestamp(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	ticket.AddMember("u1", now)
	ticket.TeamName = "ignored"
	require.NoError(t, repo.UpdateMembers(ctx, ticket))

	stored, err := repo.FindOneByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, stored.Members)
	assert.Equal(t, "Rockets", stored.TeamName)
	require.Len(t, stored.MemberHistory, 1)
	assert.Equal(t, models.MemberAdded, stored.MemberHistory[0].Action)
	assert.True(t, now.Equal(stored.LastModified.Time))
}

func TestTicketRepository_UpdateMissingTicket(t *testing.T) {
	repo := NewTicketRepository(store.NewMemoryStore())

	err := repo.UpdateSwap(context.Background(), &models.Ticket{ID: "nope"})
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}

func TestTicketRepository_FindManyByEventID(t *testing.T) {
	repo := NewTicketRepository(store.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Ticket{ID: "a", EventID: "e1"}))
	require.NoError(t, repo.Create(ctx, &models.Ticket{ID: "b", EventID: "e2"}))
	require.NoError(t, repo.Create(ctx, &models.Ticket{ID: "c", EventID: "e1"}))

	tickets, err := repo.FindManyByEventID(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "a", tickets[0].ID)
	assert.Equal(t, "c", tickets[1].ID)
}

func TestUserRepository_TicketSet(t *testing.T) {
	repo := NewUserRepository(store.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{ID: "u1", Name: "Ann"}))

	require.NoError(t, repo.AddTicket(ctx, "u1", "t1"))
	require.NoError(t, repo.AddTicket(ctx, "u1", "t1"))
	require.NoError(t, repo.AddTicket(ctx, "u1", "t2"))

	user, err := repo.FindOneByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, user.Tickets)

	require.NoError(t, repo.RemoveTicket(ctx, "u1", "t1"))
	require.NoError(t, repo.RemoveTicket(ctx, "u1", "absent"))

	user, err = repo.FindOneByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, user.Tickets)

	require.NoError(t, repo.RemoveTicket(ctx, "u1", "t2"))
	user, err = repo.FindOneByID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, user.Tickets)
}

func TestUserRepository_MissingUser(t *testing.T) {
	repo := NewUserRepository(store.NewMemoryStore())
	ctx := context.Background()

	_, err := repo.FindOneByID(ctx, "ghost")
	assert.ErrorIs(t, err, status.ErrUserNotFound)
	assert.ErrorIs(t, repo.AddTicket(ctx, "ghost", "t1"), status.ErrUserNotFound)
}

func TestUserRepository_FindManyByEmailAndPhone(t *testing.T) {
	repo := NewUserRepository(store.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Phone: "555-0101"}))
	require.NoError(t, repo.Create(ctx, &models.User{ID: "u2", Name: "Bob", Email: "bob@example.com"}))

	users, err := repo.FindManyByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].ID)

	users, err = repo.FindManyByPhone(ctx, "555-0101")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ann", users[0].Name)
}

func TestEventRepository_FindName(t *testing.T) {
	s := store.NewMemoryStore()
	repo := NewEventRepository(s, nil, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Event{ID: "e1", Name: "Hackathon"}))

	name, err := repo.FindName(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Hackathon", name)

	_, err = repo.FindName(ctx, "e404")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventRepository_FindName_CacheHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	faulty := store.NewFaultyStore(store.NewMemoryStore())
	repo := NewEventRepository(faulty, db, time.Minute)

	mock.ExpectGet("event:name:e1").SetVal("Cached Fest")

	name, err := repo.FindName(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "Cached Fest", name)
	assert.Equal(t, 0, faulty.Calls(store.OpGet))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_FindName_CacheMissFillsCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := store.NewMemoryStore()
	repo := NewEventRepository(s, db, time.Minute)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Event{ID: "e1", Name: "Hackathon"}))

	mock.ExpectGet("event:name:e1").RedisNil()
	mock.ExpectSet("event:name:e1", "Hackathon", time.Minute).SetVal("OK")

	name, err := repo.FindName(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Hackathon", name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_FindName_StoreFailure(t *testing.T) {
	faulty := store.NewFaultyStore(store.NewMemoryStore())
	repo := NewEventRepository(faulty, nil, time.Minute)
	faulty.Fail(store.OpGet, store.Events, errors.New("connection reset"))

	_, err := repo.FindName(context.Background(), "e1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, status.ErrNotFound)
}
