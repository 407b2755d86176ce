package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"ticket-manager/config"
	"ticket-manager/internal/handlers"
	"ticket-manager/internal/repository"
	"ticket-manager/internal/services"
	"ticket-manager/internal/store"
	_ "ticket-manager/migrations"
	"ticket-manager/monitoring"
	"ticket-manager/security"
	"ticket-manager/utils"
)

func Start() error {
	cfg := config.LoadConfig()
	setupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	app := pocketbase.New()

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := utils.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		redisClient = client
		defer redisClient.Close()
	}

	docs, closeStore, err := openStore(ctx, cfg, app)
	if err != nil {
		return err
	}
	defer closeStore()

	var opts []services.Option
	if cfg.PubNubEnabled() {
		opts = append(opts, services.WithNotifier(services.NewPubNubNotifier(
			cfg.PubNubPublishKey, cfg.PubNubSubscribeKey, cfg.PubNubSecretKey,
		)))
	}
	deps := newDependencies(cfg, docs, redisClient, opts...)

	monitor := monitoring.NewMonitor(redisClient)
	handler := handlers.NewHandler(deps.service, deps.sessions, monitor, handlers.Options{
		RejectSameUserSwap: cfg.SwapRejectSameUser,
		DefaultTeamSize:    cfg.MaxTeamSize,
	})
	health := handlers.NewHealthHandler(docs, redisClient)
	limiter := security.NewRateLimiter(redisClient, cfg.RateLimitPerMinute)

	app.RootCmd.AddCommand(
		newSeedCommand(deps),
		newReconcileCommand(deps),
		newSessionCommand(deps),
	)

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		go monitor.Run(ctx, 30*time.Second)

		handler.Register(se, limiter.Middleware())
		se.Router.GET("/health", health.Health)
		if cfg.EnableMetrics {
			se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		log.Info().
			Str("store", cfg.StoreBackend).
			Str("attendance", cfg.AttendanceStore).
			Str("auth", cfg.AuthMode).
			Str("locks", cfg.TicketLocks).
			Msg("server routes registered")
		return se.Next()
	})

	return app.Start()
}

// dependencies holds what the server and the maintenance commands share.
type dependencies struct {
	store    store.DocumentStore
	redis    *redis.Client
	tickets  *repository.TicketRepository
	users    *repository.UserRepository
	events   *repository.EventRepository
	guard    services.Guard
	sessions *services.SessionReader
	service  *services.TicketService
}

func newDependencies(cfg *config.Config, docs store.DocumentStore, redisClient *redis.Client, opts ...services.Option) *dependencies {
	d := &dependencies{
		store:    docs,
		redis:    redisClient,
		tickets:  repository.NewTicketRepository(docs),
		users:    repository.NewUserRepository(docs),
		events:   repository.NewEventRepository(docs, redisClient, cfg.EventNameCacheTTL),
		guard:    newGuard(cfg),
		sessions: services.NewSessionReader(cfg.SessionSecret),
	}
	if cfg.TicketLocks == config.LocksRedis && redisClient != nil {
		opts = append(opts, services.WithLocker(services.NewRedisLocker(redisClient, cfg.TicketLockTTL)))
	}
	d.service = services.NewTicketService(d.tickets, d.users, d.events, d.attendanceStore(cfg), d.guard, opts...)
	return d
}

func (d *dependencies) attendanceStore(cfg *config.Config) services.AttendanceStore {
	if cfg.AttendanceStore == config.AttendanceEmbedded {
		return services.NewEmbeddedArrayStore(d.tickets)
	}
	return services.NewLedgerStore(d.store)
}

func newGuard(cfg *config.Config) services.Guard {
	if cfg.AuthMode == config.AuthDisabled {
		log.Warn().Msg("coordinator authorization is disabled")
		return services.AllowAllGuard{}
	}
	return services.CookieGuard{}
}

func openStore(ctx context.Context, cfg *config.Config, app core.App) (store.DocumentStore, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(connectCtx, store.NewMongoClientOptions(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
		}
		s := store.NewMongoStore(client, cfg.MongoDatabase)
		if err := s.Ping(connectCtx); err != nil {
			client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("ping mongodb: %w", err)
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongodb")

		return s, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("failed to disconnect from mongodb")
			}
		}, nil
	case config.StoreMemory:
		log.Warn().Msg("using in-memory document store, data is lost on exit")
		return store.NewMemoryStore(), func() {}, nil
	default:
		return store.NewPocketBaseStore(app), func() {}, nil
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info().Msg("shutdown signal received, cleaning up")
	cancel()
}
