package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Store backends.
const (
	StorePocketBase = "pocketbase"
	StoreMongo      = "mongo"
	StoreMemory     = "memory"
)

// Attendance storage variants.
const (
	AttendanceLedger   = "ledger"
	AttendanceEmbedded = "embedded"
)

const (
	AuthCookie   = "cookie"
	AuthDisabled = "disabled"

	LocksNone  = "none"
	LocksRedis = "redis"
)

type Config struct {
	// Server configuration
	Environment string
	LogLevel    string

	// Storage
	StoreBackend    string
	MongoURI        string
	MongoDatabase   string
	AttendanceStore string

	// Redis configuration, empty URL disables the cache, limiter and locks
	RedisURL string

	// Coordinator sessions
	AuthMode      string
	SessionSecret string

	// Ticket rules
	TicketLocks        string
	TicketLockTTL      time.Duration
	SwapRejectSameUser bool
	MaxTeamSize        int
	EventNameCacheTTL  time.Duration

	RateLimitPerMinute int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Monitoring
	EnableMetrics bool
}

// LoadConfig reads the environment after loading .env when one exists.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env")
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		StoreBackend:    getEnv("STORE_BACKEND", StorePocketBase),
		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGODB_NAME", "tickets"),
		AttendanceStore: getEnv("ATTENDANCE_STORE", AttendanceLedger),

		RedisURL: getEnv("REDIS_URL", ""),

		AuthMode:      getEnv("AUTH_MODE", AuthCookie),
		SessionSecret: getEnv("SESSION_SECRET", ""),

		TicketLocks:        getEnv("TICKET_LOCKS", LocksNone),
		TicketLockTTL:      getEnvAsDuration("TICKET_LOCK_TTL", "5s"),
		SwapRejectSameUser: getEnvAsBool("SWAP_REJECT_SAME_USER", true),
		MaxTeamSize:        getEnvAsInt("MAX_TEAM_SIZE", 0),
		EventNameCacheTTL:  getEnvAsDuration("EVENT_NAME_CACHE_TTL", "10m"),

		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),

		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: unknown value %q (want one of %v)", key, value, allowed)
}

// Validate rejects unknown enum values and combinations that cannot run.
func (c *Config) Validate() error {
	if err := oneOf("STORE_BACKEND", c.StoreBackend, StorePocketBase, StoreMongo, StoreMemory); err != nil {
		return err
	}
	if err := oneOf("ATTENDANCE_STORE", c.AttendanceStore, AttendanceLedger, AttendanceEmbedded); err != nil {
		return err
	}
	if err := oneOf("AUTH_MODE", c.AuthMode, AuthCookie, AuthDisabled); err != nil {
		return err
	}
	if err := oneOf("TICKET_LOCKS", c.TicketLocks, LocksNone, LocksRedis); err != nil {
		return err
	}
	if c.TicketLocks == LocksRedis && c.RedisURL == "" {
		return fmt.Errorf("TICKET_LOCKS=redis requires REDIS_URL")
	}
	if c.TicketLocks == LocksRedis && c.TicketLockTTL <= 0 {
		return fmt.Errorf("TICKET_LOCK_TTL must be positive")
	}
	if c.MaxTeamSize < 0 {
		return fmt.Errorf("MAX_TEAM_SIZE must not be negative")
	}
	return nil
}

// PubNubEnabled reports whether notifications can be published.
func (c *Config) PubNubEnabled() bool {
	return c.PubNubPublishKey != "" && c.PubNubSubscribeKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
