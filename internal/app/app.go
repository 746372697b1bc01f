// Package app assembles the HTTP service from configuration: storage engine,
// Redis collaborators, services, handlers and routes.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/reclamos-service/internal/api/http"
	"github.com/spec-kit/reclamos-service/internal/api/http/handlers"
	"github.com/spec-kit/reclamos-service/internal/auth"
	"github.com/spec-kit/reclamos-service/internal/config"
	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/events"
	"github.com/spec-kit/reclamos-service/internal/observability"
	"github.com/spec-kit/reclamos-service/internal/persistence"
	"github.com/spec-kit/reclamos-service/internal/repository"
	"github.com/spec-kit/reclamos-service/internal/repository/memstore"
	"github.com/spec-kit/reclamos-service/internal/service"
	"github.com/spec-kit/reclamos-service/internal/worker"
)

// App is a fully wired server. Close releases the storage and Redis handles.
type App struct {
	Fiber    *fiber.App
	Config   *config.Config
	Store    *repository.Store
	Postgres *persistence.Postgres
	Redis    *persistence.Redis
	Metrics  *observability.Metrics
	Location *time.Location
	logger   *zap.Logger
	notifier *worker.NotificationWorker
}

// Option tweaks assembly, mostly for tests.
type Option func(*options)

type options struct {
	clock domain.Clock
}

// WithClock replaces the wall clock used by services.
func WithClock(clock domain.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// New builds the application. The configuration must already be validated.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	loc, err := cfg.App.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	policy, err := domain.PolicyByName(cfg.Claims.TransitionPolicy)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Location: loc, Metrics: observability.NewMetrics(), logger: logger}
	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.Redis = persistence.NewRedis(cfg.Redis, logger)

	var (
		revoker auth.Revoker
		limiter auth.LoginLimiter
	)
	if client := a.Redis.Handle(); client != nil {
		revoker = auth.NewRedisRevoker(client)
		limiter = auth.NewRedisLoginLimiter(client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow())
	}

	dispatcher := events.NewInMemoryDispatcher()
	a.notifier = worker.StartNotificationWorker(dispatcher,
		service.NewNotificationService(logger, cfg.Notification), logger, cfg.Notification.QueueSize)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   a.Store.Users,
		Tokens:     tokens,
		Revoker:    revoker,
		Limiter:    limiter,
		Dispatcher: dispatcher,
		Logger:     logger,
		Clock:      o.clock,
	})
	if _, err := authService.SeedModerator(ctx, cfg.Auth.SeedModerator); err != nil {
		a.Close()
		return nil, fmt.Errorf("seed moderator: %w", err)
	}
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   a.Store.Users,
		Dispatcher: dispatcher,
		Logger:     logger,
		Clock:      o.clock,
	})
	claimService := service.NewClaimService(service.ClaimDependencies{
		ClaimRepo:      a.Store.Claims,
		UserRepo:       a.Store.Users,
		ActivityRepo:   a.Store.Activities,
		CommentRepo:    a.Store.Comments,
		Dispatcher:     dispatcher,
		Policy:         policy,
		Location:       loc,
		TrackingPrefix: cfg.Claims.TrackingPrefix,
		Clock:          o.clock,
		Logger:         logger,
	})
	statsService := service.NewStatsService(a.Store.Claims, a.Store.Users, o.clock)

	a.Fiber = fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(a.Fiber, logger, a.Metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(a.Fiber, httptransport.RouteConfig{
		BasePath:       cfg.App.BasePath,
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.Storage.Driver, a.Postgres, a.Redis, a.Metrics),
		Auth:           handlers.NewAuthHandler(authService, o.clock),
		Users:          handlers.NewUsersHandler(userService, statsService),
		Claims:         handlers.NewClaimsHandler(claimService, loc),
		Stats:          handlers.NewStatsHandler(statsService, o.clock, loc),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, a.Store.Users, revoker, logger),
	})

	logger.Info("application assembled",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("transition_policy", policy.Name()),
		zap.Bool("redis", a.Redis.Handle() != nil),
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Config.Storage.Driver {
	case config.StorageDriverMemory:
		store, err := memstore.New()
		if err != nil {
			return fmt.Errorf("init memory store: %w", err)
		}
		a.Store = store
		return nil
	case config.StorageDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, a.Config.Postgres, a.logger)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.Postgres = pg
		if pg.PoolHandle() == nil {
			return fmt.Errorf("postgres driver selected without POSTGRES_DSN")
		}
		if a.Config.Postgres.RunMigrations {
			if err := persistence.RunMigrations(pg.PoolHandle(), a.logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		a.Store = repository.NewPostgresStore(pg.PoolHandle())
		return nil
	}
	return fmt.Errorf("unknown storage driver %q", a.Config.Storage.Driver)
}

// Listen serves until the listener fails or Shutdown is called.
func (a *App) Listen() error {
	return a.Fiber.Listen(a.Config.App.Addr())
}

// Shutdown stops accepting requests and waits for in-flight ones up to
// timeout, then flushes queued notifications within the same budget.
func (a *App) Shutdown(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	if a.Fiber != nil {
		if err := a.Fiber.ShutdownWithTimeout(timeout); err != nil {
			return err
		}
	}
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()
	return a.notifier.Stop(ctx)
}

// Close releases external handles.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.notifier.Stop(ctx); err != nil {
		a.logger.Warn("notification queue not drained", zap.Error(err))
	}
	a.Redis.Close()
	a.Postgres.Close()
}
