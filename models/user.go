package models

import "slices"

type User struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email,omitempty"`
	Phone   string   `json:"phone,omitempty"`
	Tickets []string `json:"tickets"`
}

func (u *User) HoldsTicket(ticketID string) bool {
	return slices.Contains(u.Tickets, ticketID)
}
