package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog/log"

	"ticket-manager/internal/status"
)

// apiError turns a service error into a PocketBase API error. Anything
// outside the status taxonomy is logged and hidden behind a generic message.
func apiError(e *core.RequestEvent, op string, err error) error {
	msg := err.Error()

	switch {
	case errors.Is(err, status.ErrInvalidInput):
		return apis.NewBadRequestError(msg, nil)
	case errors.Is(err, status.ErrForbidden):
		return apis.NewForbiddenError(msg, nil)
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError(msg, nil)
	case errors.Is(err, status.ErrConflict):
		return apis.NewApiError(http.StatusConflict, msg, nil)
	}

	log.Error().Err(err).
		Str("op", op).
		Str("method", e.Request.Method).
		Str("path", e.Request.URL.Path).
		Msg("request failed")
	return apis.NewInternalServerError("Internal server error", nil)
}

// outcome is the metrics label for err.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, status.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, status.ErrForbidden):
		return "forbidden"
	case errors.Is(err, status.ErrNotFound):
		return "not_found"
	case errors.Is(err, status.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
