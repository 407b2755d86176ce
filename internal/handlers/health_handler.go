package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"ticket-manager/internal/store"
	"ticket-manager/utils"
)

type HealthHandler struct {
	store store.DocumentStore
	redis *redis.Client
}

// NewHealthHandler checks the document store and, when given, Redis.
func NewHealthHandler(s store.DocumentStore, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{store: s, redis: redisClient}
}

func (h *HealthHandler) Health(e *core.RequestEvent) error {
	ctx, cancel := context.WithTimeout(e.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{"store": "ok"}
	healthy := true

	if err := h.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("store health check failed")
		checks["store"] = "unavailable"
		healthy = false
	}
	if h.redis != nil {
		checks["redis"] = "ok"
		if err := utils.RedisHealthCheck(h.redis); err != nil {
			log.Warn().Err(err).Msg("redis health check failed")
			checks["redis"] = "unavailable"
			healthy = false
		}
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	return e.JSON(code, map[string]any{
		"ok":     healthy,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
