package models

import (
	"crypto/sha256"
	"encoding/hex"
)

// MainCoordinator is recorded as marked_by when the caller has no event claim.
const MainCoordinator = "main_coordinator"

type AttendanceRecord struct {
	EventID   string    `json:"event_id,omitempty"`
	TicketID  string    `json:"ticket_id,omitempty"`
	UserID    string    `json:"user_id"`
	Timestamp Timestamp `json:"timestamp"`
	MarkedBy  string    `json:"marked_by"`
}

// Key returns the ledger document id for the (event, ticket, user) triple.
// It is 15 lowercase hex characters so it satisfies PocketBase's default id
// pattern, and equal triples always collide on the primary key.
func (r AttendanceRecord) Key() string {
	sum := sha256.Sum256([]byte(r.EventID + "\x00" + r.TicketID + "\x00" + r.UserID))
	return hex.EncodeToString(sum[:])[:15]
}
