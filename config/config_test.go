package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := LoadConfig()

	assert.Equal(t, StorePocketBase, cfg.StoreBackend)
	assert.Equal(t, AttendanceLedger, cfg.AttendanceStore)
	assert.Equal(t, AuthCookie, cfg.AuthMode)
	assert.Equal(t, LocksNone, cfg.TicketLocks)
	assert.True(t, cfg.SwapRejectSameUser)
	assert.Zero(t, cfg.MaxTeamSize)
	assert.Equal(t, 5*time.Second, cfg.TicketLockTTL)
	assert.Equal(t, 10*time.Minute, cfg.EventNameCacheTTL)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.PubNubEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("ATTENDANCE_STORE", "embedded")
	t.Setenv("AUTH_MODE", "disabled")
	t.Setenv("TICKET_LOCKS", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TICKET_LOCK_TTL", "2s")
	t.Setenv("SWAP_REJECT_SAME_USER", "false")
	t.Setenv("MAX_TEAM_SIZE", "4")
	t.Setenv("PUBNUB_PUBLISH_KEY", "pub")
	t.Setenv("PUBNUB_SUBSCRIBE_KEY", "sub")

	cfg := LoadConfig()

	assert.Equal(t, StoreMongo, cfg.StoreBackend)
	assert.Equal(t, AttendanceEmbedded, cfg.AttendanceStore)
	assert.Equal(t, AuthDisabled, cfg.AuthMode)
	assert.Equal(t, 2*time.Second, cfg.TicketLockTTL)
	assert.False(t, cfg.SwapRejectSameUser)
	assert.Equal(t, 4, cfg.MaxTeamSize)
	assert.True(t, cfg.PubNubEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_BadValuesFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAX_TEAM_SIZE", "many")
	t.Setenv("TICKET_LOCK_TTL", "soon")
	t.Setenv("ENABLE_METRICS", "maybe")

	cfg := LoadConfig()

	assert.Zero(t, cfg.MaxTeamSize)
	assert.Equal(t, 5*time.Second, cfg.TicketLockTTL)
	assert.True(t, cfg.EnableMetrics)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreBackend:    StoreMemory,
			AttendanceStore: AttendanceLedger,
			AuthMode:        AuthCookie,
			TicketLocks:     LocksNone,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"store backend", func(c *Config) { c.StoreBackend = "sqlite" }},
		{"attendance store", func(c *Config) { c.AttendanceStore = "array" }},
		{"auth mode", func(c *Config) { c.AuthMode = "none" }},
		{"ticket locks", func(c *Config) { c.TicketLocks = "mutex" }},
		{"redis locks without redis", func(c *Config) { c.TicketLocks = LocksRedis }},
		{"negative team size", func(c *Config) { c.MaxTeamSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, valid().Validate())
}
