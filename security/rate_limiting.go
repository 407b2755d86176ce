package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const rateWindow = time.Minute

type RateLimiter struct {
	redis     *redis.Client
	perMinute int64
	clientIP  func(e *core.RequestEvent) string
}

func NewRateLimiter(redisClient *redis.Client, perMinute int) *RateLimiter {
	return &RateLimiter{
		redis:     redisClient,
		perMinute: int64(perMinute),
		clientIP:  func(e *core.RequestEvent) string { return e.RealIP() },
	}
}

// Middleware rejects crawler user agents and clients over the per-minute
// budget. Redis failures let the request through.
func (r *RateLimiter) Middleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if r.isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
			return apis.NewForbiddenError("Access denied", nil)
		}

		ip := r.clientIP(e)
		allowed, err := r.Allow(e.Request.Context(), ip)
		if err != nil {
			log.Warn().Err(err).Str("ip", ip).Msg("rate limiter unavailable")
			return e.Next()
		}
		if !allowed {
			return apis.NewTooManyRequestsError("Too many requests", nil)
		}
		return e.Next()
	}
}

// Allow counts one request for client in the current window.
func (r *RateLimiter) Allow(ctx context.Context, client string) (bool, error) {
	if r.redis == nil || r.perMinute <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("ratelimit:%s", client)
	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, key, rateWindow).Err(); err != nil {
			return false, err
		}
	}
	return count <= r.perMinute, nil
}

func (r *RateLimiter) isSuspiciousUserAgent(ua string) bool {
	ua = strings.ToLower(ua)
	for _, pattern := range []string{"bot", "crawler", "spider", "scraper"} {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
