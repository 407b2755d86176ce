package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-manager/internal/services"
)

// MarkAttendance - mark every member of a ticket present
func (h *Handler) MarkAttendance(e *core.RequestEvent) error {
	var req services.MarkAttendanceRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	start := time.Now()
	res, err := h.service.MarkAttendance(e.Request.Context(), h.caller(e), req)
	h.track("mark_attendance", start, err)
	if err != nil {
		return apiError(e, "mark_attendance", err)
	}
	if h.monitor != nil {
		h.monitor.TrackAttendance(res.EventID, len(res.UsersMarked))
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ok":             true,
		"message":        "Attendance marked successfully",
		"ticket_id":      req.TicketID,
		"event_id":       res.EventID,
		"users_marked":   res.UsersMarked,
		"total_attended": res.TotalAttended,
		"total_members":  res.TotalMembers,
	})
}

// MarkUserAttendance - mark a single member present
func (h *Handler) MarkUserAttendance(e *core.RequestEvent) error {
	var req services.MarkUserAttendanceRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	start := time.Now()
	res, err := h.service.MarkUserAttendance(e.Request.Context(), h.caller(e), req)
	h.track("mark_user_attendance", start, err)
	if err != nil {
		return apiError(e, "mark_user_attendance", err)
	}
	if h.monitor != nil {
		h.monitor.TrackAttendance(req.EventID, 1)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ok":             true,
		"message":        "Attendance marked successfully",
		"ticket_id":      res.TicketID,
		"user_id":        res.UserID,
		"timestamp":      res.Timestamp,
		"total_attended": res.TotalAttended,
		"total_members":  res.TotalMembers,
	})
}
