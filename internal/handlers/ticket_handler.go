package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-manager/internal/services"
	"ticket-manager/internal/status"
)

// AddMember - add a user to a team ticket
func (h *Handler) AddMember(e *core.RequestEvent) error {
	var req services.AddMemberRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.MaxTeamSize == 0 {
		req.MaxTeamSize = h.opts.DefaultTeamSize
	}

	start := time.Now()
	res, err := h.service.AddMember(e.Request.Context(), h.caller(e), req)
	h.track("add_member", start, err)
	if err != nil {
		return apiError(e, "add_member", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ok":               true,
		"message":          "Member added successfully",
		"ticket_id":        res.TicketID,
		"new_user_id":      res.NewUserID,
		"new_member_count": res.NewMemberCount,
	})
}

// SwapTicket - hand a member's place on a ticket to another user
func (h *Handler) SwapTicket(e *core.RequestEvent) error {
	var req services.SwapTicketRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if h.opts.RejectSameUserSwap && req.FromUserID != "" && req.FromUserID == req.ToUserID {
		return apiError(e, "swap_ticket", status.ErrSameUserSwap)
	}

	start := time.Now()
	res, err := h.service.SwapTicket(e.Request.Context(), h.caller(e), req)
	h.track("swap_ticket", start, err)
	if err != nil {
		return apiError(e, "swap_ticket", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ok":           true,
		"message":      "Ticket swapped successfully",
		"ticket_id":    res.TicketID,
		"from_user_id": res.FromUserID,
		"to_user_id":   res.ToUserID,
	})
}

// GetTicketInfo - ticket details with resolved members
func (h *Handler) GetTicketInfo(e *core.RequestEvent) error {
	query := e.Request.URL.Query()
	start := time.Now()
	info, err := h.service.GetTicketInfo(e.Request.Context(), h.caller(e), query.Get("ticket_id"), query.Get("event_id"))
	h.track("ticket_info", start, err)
	if err != nil {
		return apiError(e, "ticket_info", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Ticket found",
		"ticket":  info,
	})
}

// GetBasicTicket - event and state of a scanned ticket
func (h *Handler) GetBasicTicket(e *core.RequestEvent) error {
	start := time.Now()
	basic, err := h.service.GetBasicTicket(e.Request.Context(), e.Request.URL.Query().Get("ticket_id"))
	h.track("get_basic", start, err)
	if err != nil {
		return apiError(e, "get_basic", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Ticket found",
		"ticket":  basic,
	})
}
