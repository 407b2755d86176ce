package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-manager/config"
	"ticket-manager/internal/services"
	"ticket-manager/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:       "test",
		StoreBackend:      config.StoreMemory,
		AttendanceStore:   config.AttendanceLedger,
		AuthMode:          config.AuthCookie,
		TicketLocks:       config.LocksNone,
		TicketLockTTL:     5 * time.Second,
		EventNameCacheTTL: time.Minute,
	}
}

func TestNewDependencies_SelectsAttendanceStore(t *testing.T) {
	cfg := testConfig()
	d := newDependencies(cfg, store.NewMemoryStore(), nil)
	assert.IsType(t, &services.LedgerStore{}, d.attendanceStore(cfg))

	cfg.AttendanceStore = config.AttendanceEmbedded
	assert.IsType(t, &services.EmbeddedArrayStore{}, d.attendanceStore(cfg))
}

func TestNewGuard(t *testing.T) {
	cfg := testConfig()
	assert.True(t, newGuard(cfg).Enforcing())

	cfg.AuthMode = config.AuthDisabled
	assert.False(t, newGuard(cfg).Enforcing())
}

func TestOpenStore_Memory(t *testing.T) {
	docs, closeStore, err := openStore(t.Context(), testConfig(), nil)
	require.NoError(t, err)
	defer closeStore()

	assert.IsType(t, &store.MemoryStore{}, docs)
	assert.NoError(t, docs.Ping(t.Context()))
}

func TestSeedEvent(t *testing.T) {
	cfg := testConfig()
	d := newDependencies(cfg, store.NewMemoryStore(), nil)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	result, err := seedEvent(t.Context(), d, seedOptions{
		EventID:   "hack",
		EventName: "Hack Night",
		Tickets:   3,
		TeamSize:  2,
	}, now)
	require.NoError(t, err)
	assert.Len(t, result.TicketIDs, 3)
	assert.Len(t, result.UserIDs, 6)

	name, err := d.events.FindName(t.Context(), "hack")
	require.NoError(t, err)
	assert.Equal(t, "Hack Night", name)

	ticket, err := d.tickets.FindOneByID(t.Context(), result.TicketIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "hack", ticket.EventID)
	assert.True(t, ticket.Active)
	assert.Len(t, ticket.Members, 2)
	assert.Len(t, ticket.MemberHistory, 2)

	user, err := d.users.FindOneByID(t.Context(), ticket.Members[0])
	require.NoError(t, err)
	assert.True(t, user.HoldsTicket(ticket.ID))

	repaired, err := d.service.ReconcileMemberships(t.Context(), "hack")
	require.NoError(t, err)
	assert.Zero(t, repaired)
}

func TestSeedEvent_RequiresEventID(t *testing.T) {
	d := newDependencies(testConfig(), store.NewMemoryStore(), nil)

	_, err := seedEvent(t.Context(), d, seedOptions{Tickets: 1}, time.Now())
	assert.Error(t, err)
}

func TestSessionCommand_RequiresSecret(t *testing.T) {
	d := newDependencies(testConfig(), store.NewMemoryStore(), nil)

	command := newSessionCommand(d)
	command.SetArgs([]string{"--event", "e1"})
	command.SilenceUsage = true
	command.SilenceErrors = true

	assert.ErrorIs(t, command.Execute(), services.ErrNoSecret)
}

func TestSessionCommand_IssuesToken(t *testing.T) {
	cfg := testConfig()
	cfg.SessionSecret = "s3cret"
	d := newDependencies(cfg, store.NewMemoryStore(), nil)

	var out bytes.Buffer
	command := newSessionCommand(d)
	command.SetOut(&out)
	command.SetArgs([]string{"--event", "e1", "--ttl", "1h"})
	require.NoError(t, command.Execute())

	caller, err := d.sessions.Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "e1", caller.EventID)
	assert.False(t, caller.MainCoordinator)
}
