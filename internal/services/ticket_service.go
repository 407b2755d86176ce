package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ticket-manager/internal/repository"
	"ticket-manager/internal/status"
	"ticket-manager/models"
)

// EventDirectory resolves display names of events.
type EventDirectory interface {
	FindName(ctx context.Context, eventID string) (string, error)
}

// TicketService implements the coordinator operations on tickets. Every
// mutation is a read-modify-write of one ticket document followed by
// best-effort updates of the affected users. Nothing is rolled back.
type TicketService struct {
	tickets    *repository.TicketRepository
	users      *repository.UserRepository
	events     EventDirectory
	attendance AttendanceStore
	guard      Guard
	locker     Locker
	notifier   Notifier
	now        func() time.Time
}

type Option func(*TicketService)

// WithLocker serializes AddMember and SwapTicket per ticket.
func WithLocker(l Locker) Option {
	return func(s *TicketService) { s.locker = l }
}

func WithNotifier(n Notifier) Option {
	return func(s *TicketService) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *TicketService) { s.now = now }
}

func NewTicketService(
	tickets *repository.TicketRepository,
	users *repository.UserRepository,
	events EventDirectory,
	attendance AttendanceStore,
	guard Guard,
	opts ...Option,
) *TicketService {
	s := &TicketService{
		tickets:    tickets,
		users:      users,
		events:     events,
		attendance: attendance,
		guard:      guard,
		locker:     NoopLocker{},
		notifier:   NoopNotifier{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TicketService) Guard() Guard { return s.guard }

func (s *TicketService) timestamp() models.Timestamp {
	return models.NewTimestamp(s.now())
}

type AddMemberRequest struct {
	TicketID  string `json:"ticket_id"`
	EventID   string `json:"event_id"`
	NewUserID string `json:"new_user_id"`
	// MaxTeamSize lowers the capacity below models.MaxTeamSize when positive.
	MaxTeamSize int `json:"max_team_size"`
}

type AddMemberResult struct {
	NewMemberCount int    `json:"new_member_count"`
	TicketID       string `json:"ticket_id"`
	NewUserID      string `json:"new_user_id"`
}

func teamCapacity(requested int) int {
	if requested <= 0 || requested > models.MaxTeamSize {
		return models.MaxTeamSize
	}
	return requested
}

func (s *TicketService) AddMember(ctx context.Context, caller Caller, req AddMemberRequest) (*AddMemberResult, error) {
	ticketID := models.NormalizeTicketID(req.TicketID)
	if ticketID == "" || req.EventID == "" || req.NewUserID == "" {
		return nil, status.ErrMissingFields
	}
	if err := s.guard.Authorize(caller, req.EventID); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ticket, err := s.tickets.FindOneByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.EventID != req.EventID {
		return nil, status.ErrWrongEvent
	}
	if !ticket.Active {
		return nil, status.ErrInactiveTicket
	}
	if ticket.HasMember(req.NewUserID) {
		return nil, status.ErrAlreadyMember
	}
	if capacity := teamCapacity(req.MaxTeamSize); len(ticket.Members) >= capacity {
		return nil, status.Conflictf("Team has reached maximum capacity of %d members", capacity)
	}

	user, err := s.users.FindOneByID(ctx, req.NewUserID)
	if err != nil {
		return nil, err
	}

	ticket.AddMember(user.ID, s.timestamp())
	if err := s.tickets.UpdateMembers(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.users.AddTicket(ctx, user.ID, ticket.ID); err != nil {
		log.Error().Err(err).
			Str("op", "add_member").
			Str("ticket_id", ticket.ID).
			Str("user_id", user.ID).
			Msg("ticket updated but user ticket list was not")
	}

	log.Info().
		Str("ticket_id", ticket.ID).
		Str("event_id", ticket.EventID).
		Str("user_id", user.ID).
		Int("members", len(ticket.Members)).
		Msg("member added")
	s.notifier.Notify(Notification{
		Type:     EventMemberAdded,
		EventID:  ticket.EventID,
		TicketID: ticket.ID,
		UserIDs:  []string{user.ID},
	})

	return &AddMemberResult{
		NewMemberCount: len(ticket.Members),
		TicketID:       ticket.ID,
		NewUserID:      user.ID,
	}, nil
}

type SwapTicketRequest struct {
	TicketID   string `json:"ticket_id"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	EventID    string `json:"event_id"`
	Reason     string `json:"reason"`
}

type SwapTicketResult struct {
	TicketID   string `json:"ticket_id"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
}

// SwapTicket puts ToUserID in FromUserID's place on the ticket. Equal ids
// are accepted and only add a swap history entry.
func (s *TicketService) SwapTicket(ctx context.Context, caller Caller, req SwapTicketRequest) (*SwapTicketResult, error) {
	ticketID := models.NormalizeTicketID(req.TicketID)
	if ticketID == "" || req.FromUserID == "" || req.ToUserID == "" || req.EventID == "" {
		return nil, status.ErrMissingFields
	}
	if err := s.guard.Authorize(caller, req.EventID); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ticket, err := s.tickets.FindOneByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.EventID != req.EventID {
		return nil, status.ErrWrongEvent
	}
	if !ticket.HasMember(req.FromUserID) {
		return nil, status.ErrNotTicketHolder
	}
	// members stay unique
	if req.ToUserID != req.FromUserID && ticket.HasMember(req.ToUserID) {
		return nil, status.ErrAlreadyMember
	}

	ticket.ReplaceMember(req.FromUserID, req.ToUserID, req.Reason, s.timestamp())
	if err := s.tickets.UpdateSwap(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.users.RemoveTicket(ctx, req.FromUserID, ticket.ID); err != nil {
		log.Error().Err(err).
			Str("op", "swap_ticket").
			Str("ticket_id", ticket.ID).
			Str("user_id", req.FromUserID).
			Msg("failed to remove ticket from previous holder")
	}
	if err := s.users.AddTicket(ctx, req.ToUserID, ticket.ID); err != nil {
		log.Error().Err(err).
			Str("op", "swap_ticket").
			Str("ticket_id", ticket.ID).
			Str("user_id", req.ToUserID).
			Msg("failed to add ticket to new holder")
	}

	log.Info().
		Str("ticket_id", ticket.ID).
		Str("event_id", ticket.EventID).
		Str("from_user_id", req.FromUserID).
		Str("to_user_id", req.ToUserID).
		Msg("ticket swapped")
	s.notifier.Notify(Notification{
		Type:     EventTicketSwapped,
		EventID:  ticket.EventID,
		TicketID: ticket.ID,
		UserIDs:  []string{req.FromUserID, req.ToUserID},
	})

	return &SwapTicketResult{
		TicketID:   ticket.ID,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
	}, nil
}

type MarkAttendanceRequest struct {
	TicketID string `json:"ticket_id"`
	// Timestamp is RFC 3339; empty means now.
	Timestamp string `json:"timestamp"`
}

type MarkAttendanceResult struct {
	EventID       string   `json:"event_id"`
	UsersMarked   []string `json:"users_marked"`
	TotalAttended int      `json:"total_attended"`
	TotalMembers  int      `json:"total_members"`
}

func (s *TicketService) batchTimestamp(raw string) (models.Timestamp, error) {
	if raw == "" {
		return s.timestamp(), nil
	}
	ts, err := models.ParseTimestamp(raw)
	if err != nil {
		return models.Timestamp{}, status.ErrBadTimestamp
	}
	return ts, nil
}

// MarkAttendance marks every member not yet marked, all with the same
// timestamp. The event is the ticket's own. A member whose record cannot be
// written is skipped. TotalAttended counts the records seen before writing
// plus the new ones, so concurrent markers can make it stale.
func (s *TicketService) MarkAttendance(ctx context.Context, caller Caller, req MarkAttendanceRequest) (*MarkAttendanceResult, error) {
	ticketID := models.NormalizeTicketID(req.TicketID)
	if ticketID == "" {
		return nil, status.ErrMissingFields
	}
	at, err := s.batchTimestamp(req.Timestamp)
	if err != nil {
		return nil, err
	}

	ticket, err := s.tickets.FindOneByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(caller, ticket.EventID); err != nil {
		return nil, err
	}
	if len(ticket.Members) == 0 {
		return nil, status.ErrEmptyTicket
	}

	existing, err := s.attendance.ListByTicket(ctx, ticket.ID, ticket.EventID)
	if err != nil {
		return nil, err
	}
	marked := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		marked[rec.UserID] = struct{}{}
	}

	newlyMarked := make([]string, 0, len(ticket.Members))
	for _, userID := range ticket.Members {
		if _, ok := marked[userID]; ok {
			continue
		}
		err := s.attendance.Record(ctx, models.AttendanceRecord{
			EventID:   ticket.EventID,
			TicketID:  ticket.ID,
			UserID:    userID,
			Timestamp: at,
			MarkedBy:  caller.MarkedBy(),
		})
		if err != nil {
			event := log.Error()
			if errors.Is(err, status.ErrAlreadyMarked) {
				event = log.Warn()
			}
			event.Err(err).
				Str("op", "mark_attendance").
				Str("ticket_id", ticket.ID).
				Str("user_id", userID).
				Msg("skipping attendance record")
			continue
		}
		newlyMarked = append(newlyMarked, userID)
	}

	if len(newlyMarked) == 0 {
		return nil, status.ErrAllMarked
	}

	log.Info().
		Str("ticket_id", ticket.ID).
		Str("event_id", ticket.EventID).
		Strs("users", newlyMarked).
		Msg("attendance marked")
	s.notifier.Notify(Notification{
		Type:     EventAttendanceMarked,
		EventID:  ticket.EventID,
		TicketID: ticket.ID,
		UserIDs:  newlyMarked,
	})

	return &MarkAttendanceResult{
		EventID:       ticket.EventID,
		UsersMarked:   newlyMarked,
		TotalAttended: len(existing) + len(newlyMarked),
		TotalMembers:  len(ticket.Members),
	}, nil
}

type MarkUserAttendanceRequest struct {
	TicketID  string `json:"ticket_id"`
	EventID   string `json:"event_id"`
	UserID    string `json:"user_id"`
	Timestamp string `json:"timestamp"`
}

type MarkUserAttendanceResult struct {
	TicketID      string           `json:"ticket_id"`
	UserID        string           `json:"user_id"`
	Timestamp     models.Timestamp `json:"timestamp"`
	TotalAttended int              `json:"total_attended"`
	TotalMembers  int              `json:"total_members"`
}

func (s *TicketService) MarkUserAttendance(ctx context.Context, caller Caller, req MarkUserAttendanceRequest) (*MarkUserAttendanceResult, error) {
	ticketID := models.NormalizeTicketID(req.TicketID)
	if ticketID == "" || req.EventID == "" || req.UserID == "" {
		return nil, status.ErrMissingFields
	}
	at, err := s.batchTimestamp(req.Timestamp)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(caller, req.EventID); err != nil {
		return nil, err
	}

	ticket, err := s.tickets.FindOneByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.EventID != req.EventID {
		return nil, status.ErrWrongEvent
	}
	if !ticket.HasMember(req.UserID) {
		return nil, status.ErrNotMember
	}

	existing, err := s.attendance.ListByTicket(ctx, ticket.ID, ticket.EventID)
	if err != nil {
		return nil, err
	}
	for _, rec := range existing {
		if rec.UserID == req.UserID {
			return nil, status.ErrAlreadyMarked
		}
	}

	err = s.attendance.Record(ctx, models.AttendanceRecord{
		EventID:   ticket.EventID,
		TicketID:  ticket.ID,
		UserID:    req.UserID,
		Timestamp: at,
		MarkedBy:  caller.MarkedBy(),
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(Notification{
		Type:     EventAttendanceMarked,
		EventID:  ticket.EventID,
		TicketID: ticket.ID,
		UserIDs:  []string{req.UserID},
	})

	return &MarkUserAttendanceResult{
		TicketID:      ticket.ID,
		UserID:        req.UserID,
		Timestamp:     at,
		TotalAttended: len(existing) + 1,
		TotalMembers:  len(ticket.Members),
	}, nil
}

type MemberInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type TicketInfo struct {
	ID            string                      `json:"id"`
	EventID       string                      `json:"event_id"`
	EventName     string                      `json:"event_name"`
	TeamName      string                      `json:"team_name"`
	Active        bool                        `json:"active"`
	Members       []MemberInfo                `json:"members"`
	MaxSize       int                         `json:"max_size"`
	SwapHistory   []models.SwapHistoryEntry   `json:"swap_history"`
	MemberHistory []models.MemberHistoryEntry `json:"member_history"`
}

func (s *TicketService) GetTicketInfo(ctx context.Context, caller Caller, ticketID, eventID string) (*TicketInfo, error) {
	ticketID = models.NormalizeTicketID(ticketID)
	if ticketID == "" || eventID == "" {
		return nil, status.ErrMissingFields
	}
	if err := s.guard.Authorize(caller, eventID); err != nil {
		return nil, err
	}

	ticket, err := s.tickets.FindOneByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.EventID != eventID {
		if s.guard.Enforcing() {
			return nil, status.ErrEventForbidden
		}
		return nil, status.ErrEventNotFound
	}

	info := &TicketInfo{
		ID:            ticket.ID,
		EventID:       ticket.EventID,
		EventName:     s.eventName(ctx, ticket),
		TeamName:      ticket.TeamName,
		Active:        ticket.Active,
		Members:       make([]MemberInfo, 0, len(ticket.Members)),
		MaxSize:       models.MaxTeamSize,
		SwapHistory:   ticket.SwapHistory,
		MemberHistory: ticket.MemberHistory,
	}
	if info.SwapHistory == nil {
		info.SwapHistory = []models.SwapHistoryEntry{}
	}
	if info.MemberHistory == nil {
		info.MemberHistory = []models.MemberHistoryEntry{}
	}

	for _, userID := range ticket.Members {
		user, err := s.users.FindOneByID(ctx, userID)
		if err != nil {
			if !errors.Is(err, status.ErrNotFound) {
				log.Warn().Err(err).Str("ticket_id", ticket.ID).Str("user_id", userID).Msg("member lookup failed")
			}
			info.Members = append(info.Members, MemberInfo{ID: userID, Name: userID})
			continue
		}
		info.Members = append(info.Members, MemberInfo{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Phone: user.Phone,
		})
	}
	return info, nil
}

func (s *TicketService) eventName(ctx context.Context, ticket *models.Ticket) string {
	name, err := s.events.FindName(ctx, ticket.EventID)
	if err == nil && name != "" {
		return name
	}
	if err != nil && !errors.Is(err, status.ErrNotFound) {
		log.Warn().Err(err).Str("event_id", ticket.EventID).Msg("event name lookup failed")
	}
	if ticket.EventName != "" {
		return ticket.EventName
	}
	return models.UnknownEventName
}

type BasicTicket struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	Active  bool   `json:"active"`
}

// GetBasicTicket needs no session; scanners use it to learn a ticket's event.
func (s *TicketService) GetBasicTicket(ctx context.Context, ticketID string) (*BasicTicket, error) {
	ticketID = models.NormalizeTicketID(ticketID)
	if ticketID == "" {
		return nil, status.ErrMissingFields
	}
	ticket, err := s.tickets.FindOneByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return &BasicTicket{ID: ticket.ID, EventID: ticket.EventID, Active: ticket.Active}, nil
}

// SearchUsers finds users whose id, email or phone equals q.
func (s *TicketService) SearchUsers(ctx context.Context, caller Caller, q string) ([]*models.User, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, status.ErrEmptyQuery
	}
	if err := s.guard.AuthorizeAny(caller); err != nil {
		return nil, err
	}

	results := make([]*models.User, 0)
	seen := make(map[string]struct{})
	add := func(users ...*models.User) {
		for _, u := range users {
			if _, ok := seen[u.ID]; ok {
				continue
			}
			seen[u.ID] = struct{}{}
			results = append(results, u)
		}
	}

	user, err := s.users.FindOneByID(ctx, q)
	switch {
	case err == nil:
		add(user)
	case !errors.Is(err, status.ErrNotFound):
		return nil, err
	}

	byEmail, err := s.users.FindManyByEmail(ctx, q)
	if err != nil {
		return nil, err
	}
	add(byEmail...)

	byPhone, err := s.users.FindManyByPhone(ctx, q)
	if err != nil {
		return nil, err
	}
	add(byPhone...)

	return results, nil
}

// ReconcileMemberships adds missing ticket ids to the users listed on the
// event's tickets and returns how many user documents changed. Tickets are
// never written.
func (s *TicketService) ReconcileMemberships(ctx context.Context, eventID string) (int, error) {
	if eventID == "" {
		return 0, status.ErrMissingFields
	}

	tickets, err := s.tickets.FindManyByEventID(ctx, eventID)
	if err != nil {
		return 0, err
	}

	repaired := make(map[string]struct{})
	for _, ticket := range tickets {
		for _, userID := range ticket.Members {
			user, err := s.users.FindOneByID(ctx, userID)
			if errors.Is(err, status.ErrNotFound) {
				log.Warn().Str("ticket_id", ticket.ID).Str("user_id", userID).Msg("ticket member has no user document")
				continue
			}
			if err != nil {
				return len(repaired), err
			}
			if user.HoldsTicket(ticket.ID) {
				continue
			}
			if err := s.users.AddTicket(ctx, userID, ticket.ID); err != nil {
				return len(repaired), err
			}
			repaired[userID] = struct{}{}
		}
	}

	log.Info().Str("event_id", eventID).Int("tickets", len(tickets)).Int("repaired", len(repaired)).Msg("memberships reconciled")
	return len(repaired), nil
}
