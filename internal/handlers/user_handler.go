package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// SearchUsers - exact match on user id, email or phone
func (h *Handler) SearchUsers(e *core.RequestEvent) error {
	start := time.Now()
	users, err := h.service.SearchUsers(e.Request.Context(), h.caller(e), e.Request.URL.Query().Get("q"))
	h.track("search_users", start, err)
	if err != nil {
		return apiError(e, "search_users", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Search completed",
		"users":   users,
	})
}
