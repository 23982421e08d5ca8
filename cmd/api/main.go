package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/geocoder89/eventsapp/internal/cache"
	"github.com/geocoder89/eventsapp/internal/config"
	"github.com/geocoder89/eventsapp/internal/db"
	httpx "github.com/geocoder89/eventsapp/internal/http"
	"github.com/geocoder89/eventsapp/internal/http/handlers"
	"github.com/geocoder89/eventsapp/internal/http/middlewares"
	"github.com/geocoder89/eventsapp/internal/notifications"
	"github.com/geocoder89/eventsapp/internal/observability"
	"github.com/geocoder89/eventsapp/internal/repo/memory"
	"github.com/geocoder89/eventsapp/internal/repo/postgres"
	"github.com/geocoder89/eventsapp/internal/security"
	"github.com/geocoder89/eventsapp/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"
)

// stores groups the three repositories so main can pick a backend once.
type stores struct {
	users  service.UserStore
	events service.EventStore
	regs   service.RegistrationStore
	ping   handlers.Check
	close  func()
}

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	// "api migrate up|down" manages the schema and exits
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := migrateCmd(cfg, os.Args[2:]); err != nil {
			log.Error("migrate failed", "err", err)
			os.Exit(1)
		}
		log.Info("migrate complete")
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// tracing
	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		tctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(tctx)
	}()

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// storage
	st, err := openStores(ctx, cfg, prom, log)
	if err != nil {
		return err
	}
	defer st.close()

	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiry)

	seedCtx, cancelSeed := config.WithTimeout(10 * time.Second)
	err = db.EnsureAdminUser(seedCtx, st.users, hasher, cfg, log)
	cancelSeed()
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	// cache: redis when configured, process memory otherwise
	var (
		cacheStore cache.Store
		memCache   *cache.Memory
	)
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cache.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rc.Close()
		cacheStore = rc
		log.Info("event cache backed by redis", "addr", cfg.RedisAddr)
	} else {
		memCache = cache.NewMemory(cfg.CacheTTL)
		cacheStore = memCache
	}
	eventCache := cache.NewEventCache(cacheStore, cfg.CacheTTL, prom)

	// notifications: rabbitmq when configured, log otherwise
	var inner notifications.Notifier = notifications.NewLogNotifier(log)
	if cfg.RabbitMQURL != "" {
		an, err := notifications.NewAMQPNotifier(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer an.Close()
		inner = an
		log.Info("registration notifications published to rabbitmq", "queue", cfg.RabbitMQQueue)
	}
	notifier := notifications.NewProtectedNotifier(inner, notifications.ProtectedNotifierConfig{
		Timeout:          2 * time.Second,
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
	})

	// services
	authSvc := service.NewAuthService(st.users, hasher, tokens, log, service.AuthOptions{
		AllowRoleOnRegister: cfg.RegisterAllowsRole,
		Metrics:             prom,
	})
	usersSvc := service.NewUsersService(st.users, hasher, log)
	eventsSvc := service.NewEventsService(st.events, eventCache, log)
	regsSvc := service.NewRegistrationsService(st.regs, st.users, st.events, notifier, log)

	limiter := middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateLimitWindow)

	// set up routers with the log
	router, _ := httpx.NewRouter(log, httpx.Deps{
		Env:         cfg.Env,
		ServiceName: cfg.ServiceName,
		Tokens:      tokens,
		Handlers: httpx.Handlers{
			Auth:          handlers.NewAuthHandler(authSvc),
			Users:         handlers.NewUsersHandler(usersSvc),
			Events:        handlers.NewEventsHandler(eventsSvc),
			Registrations: handlers.NewRegistrationHandler(regsSvc),
		},
		Checks: map[string]handlers.Check{
			"store": st.ping,
			"cache": eventCache.Ping,
		},
		Prom:           prom,
		Gatherer:       reg,
		AuthLimit:      limiter,
		CORS:           cfg.CORSAllowedOrigins,
		MaxBody:        cfg.MaxBodyBytes,
		TrustedProxies: cfg.TrustedProxies,
	})

	// periodic cleanup of in-process state
	go sweep(ctx, time.Minute, func() {
		limiter.Sweep()
		if memCache != nil {
			memCache.Sweep()
		}
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}

func migrateCmd(cfg config.Config, args []string) error {
	direction := "up"
	if len(args) > 0 {
		direction = args[0]
	}

	switch direction {
	case "up":
		return db.MigrateUp(cfg.DBURL)
	case "down":
		return db.MigrateDown(cfg.DBURL)
	default:
		return fmt.Errorf("unknown migrate direction %q (want up or down)", direction)
	}
}

func openStores(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (stores, error) {
	if cfg.Store == "memory" {
		log.Warn("using in-memory store; data is lost on restart")
		m := memory.NewStore()
		return stores{
			users:  m.Users(),
			events: m.Events(),
			regs:   m.Registrations(),
			ping:   m.Ping,
			close:  func() {},
		}, nil
	}

	if cfg.RunMigrations {
		if err := db.MigrateUp(cfg.DBURL); err != nil {
			return stores{}, fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied")
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
	if err != nil {
		return stores{}, fmt.Errorf("db connect failed: %w", err)
	}

	return stores{
		users:  postgres.NewUsersRepo(pool, prom),
		events: postgres.NewEventsRepo(pool, prom),
		regs:   postgres.NewRegistrationsRepo(pool, prom),
		ping:   pool.Ping,
		close:  pool.Close,
	}, nil
}

func sweep(ctx context.Context, every time.Duration, fn func()) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn()
		}
	}
}
