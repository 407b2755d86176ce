package models

import (
	"slices"
	"strings"
)

// MaxTeamSize is the hard ceiling on members per ticket.
const MaxTeamSize = 10

const (
	MemberAdded   = "added"
	MemberRemoved = "removed"

	DefaultSwapReason = "No reason provided"
)

type Ticket struct {
	ID            string               `json:"id"`
	EventID       string               `json:"event_id"`
	EventName     string               `json:"event_name,omitempty"`
	TeamName      string               `json:"team_name,omitempty"`
	Active        bool                 `json:"active"`
	Members       []string             `json:"stud_id"` // stored as stud_id for existing ticket documents
	MemberHistory []MemberHistoryEntry `json:"member_history"`
	SwapHistory   []SwapHistoryEntry   `json:"swap_history"`
	Attendance    []AttendanceRecord   `json:"attendance,omitempty"`
	LastModified  Timestamp            `json:"last_modified"`
}

type MemberHistoryEntry struct {
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"` // added, removed
	Timestamp Timestamp `json:"timestamp"`
}

type SwapHistoryEntry struct {
	FromUser  string    `json:"from_user"`
	ToUser    string    `json:"to_user"`
	Timestamp Timestamp `json:"timestamp"`
	Reason    string    `json:"reason"`
}

// NormalizeTicketID case-folds a ticket id; all ticket lookups go through it.
func NormalizeTicketID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func (t *Ticket) HasMember(userID string) bool {
	return slices.Contains(t.Members, userID)
}

// AddMember appends userID and records the change. Callers check capacity
// and duplicates first.
func (t *Ticket) AddMember(userID string, at Timestamp) {
	t.Members = append(t.Members, userID)
	t.MemberHistory = append(t.MemberHistory, MemberHistoryEntry{
		UserID:    userID,
		Action:    MemberAdded,
		Timestamp: at,
	})
	t.LastModified = at
}

// ReplaceMember substitutes from with to at the same position. It reports
// false when from is not a member.
func (t *Ticket) ReplaceMember(from, to, reason string, at Timestamp) bool {
	i := slices.Index(t.Members, from)
	if i < 0 {
		return false
	}
	t.Members[i] = to

	if reason == "" {
		reason = DefaultSwapReason
	}
	t.SwapHistory = append(t.SwapHistory, SwapHistoryEntry{
		FromUser:  from,
		ToUser:    to,
		Timestamp: at,
		Reason:    reason,
	})
	t.LastModified = at
	return true
}
