package status

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// Error is a domain failure with a message that is safe to show to the caller.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrMissingFields  = New(ErrInvalidInput, "Missing required fields")
	ErrBadTimestamp   = New(ErrInvalidInput, "Invalid timestamp")
	ErrEmptyTicket    = New(ErrInvalidInput, "Ticket has no members")
	ErrSameUserSwap   = New(ErrInvalidInput, "Cannot swap ticket to the same user")
	ErrEmptyQuery     = New(ErrInvalidInput, "Search query is required")
	ErrTicketNotFound = New(ErrNotFound, "Ticket not found")
	ErrUserNotFound   = New(ErrNotFound, "User not found")
	ErrNotAuthorized  = New(ErrForbidden, "Not authorized for this event")

	ErrWrongEvent      = New(ErrConflict, "Ticket does not belong to specified event")
	ErrInactiveTicket  = New(ErrConflict, "Cannot add members to inactive ticket")
	ErrAlreadyMember   = New(ErrConflict, "User is already a member of this ticket")
	ErrNotTicketHolder = New(ErrConflict, "Ticket does not belong to the specified user")
	ErrNotMember       = New(ErrConflict, "User is not a member of this ticket")
	ErrAlreadyMarked   = New(ErrConflict, "Attendance already marked for this user")
	ErrAllMarked       = New(ErrConflict, "Attendance already marked for all users")
	ErrTicketBusy      = New(ErrConflict, "Ticket is being modified, try again")
	ErrEventForbidden  = New(ErrForbidden, "Ticket does not belong to this event")
	ErrEventNotFound   = New(ErrNotFound, "Ticket not found for this event")
)
