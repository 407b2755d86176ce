package security

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent(userAgent string) *core.RequestEvent {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/mark", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = httptest.NewRecorder()
	return e
}

// newTestLimiter reads the socket address; RealIP needs app settings.
func newTestLimiter(db *redis.Client, perMinute int) *RateLimiter {
	r := NewRateLimiter(db, perMinute)
	r.clientIP = func(e *core.RequestEvent) string { return e.RemoteIP() }
	return r
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var apiErr *router.ApiError
	require.ErrorAs(t, err, &apiErr)
	return apiErr.Status
}

func TestRateLimiter_Allow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRateLimiter(db, 2)

	mock.ExpectIncr("ratelimit:10.0.0.1").SetVal(1)
	mock.ExpectExpire("ratelimit:10.0.0.1", time.Minute).SetVal(true)
	mock.ExpectIncr("ratelimit:10.0.0.1").SetVal(2)
	mock.ExpectIncr("ratelimit:10.0.0.1").SetVal(3)

	for _, want := range []bool{true, true, false} {
		allowed, err := r.Allow(t.Context(), "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, allowed)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_DisabledWithoutRedis(t *testing.T) {
	allowed, err := NewRateLimiter(nil, 1).Allow(t.Context(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_Middleware(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := newTestLimiter(db, 1)
	handler := r.Middleware()

	mock.ExpectIncr("ratelimit:10.0.0.1").SetVal(1)
	mock.ExpectExpire("ratelimit:10.0.0.1", time.Minute).SetVal(true)
	assert.NoError(t, handler(newEvent("Mozilla/5.0")))

	mock.ExpectIncr("ratelimit:10.0.0.1").SetVal(2)
	assert.Equal(t, http.StatusTooManyRequests, apiStatus(t, handler(newEvent("Mozilla/5.0"))))

	assert.Equal(t, http.StatusForbidden, apiStatus(t, handler(newEvent("Googlebot/2.1"))))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_MiddlewareFailsOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := newTestLimiter(db, 1)

	mock.ExpectIncr("ratelimit:10.0.0.1").SetErr(errors.New("connection refused"))
	assert.NoError(t, r.Middleware()(newEvent("")))
}

func TestRateLimiter_IsSuspiciousUserAgent(t *testing.T) {
	r := NewRateLimiter(nil, 0)

	assert.True(t, r.isSuspiciousUserAgent("Mozilla/5.0 (compatible; bingbot/2.0)"))
	assert.True(t, r.isSuspiciousUserAgent("Web-Scraper"))
	assert.False(t, r.isSuspiciousUserAgent("Mozilla/5.0 (iPhone)"))
	assert.False(t, r.isSuspiciousUserAgent(""))
}
