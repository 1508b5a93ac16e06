package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"go-ceremony-portal/internal/auth"
	"go-ceremony-portal/internal/config"
	"go-ceremony-portal/internal/database"
	"go-ceremony-portal/internal/event"
	"go-ceremony-portal/internal/handler"
	"go-ceremony-portal/internal/middleware"
	"go-ceremony-portal/internal/observability"
	"go-ceremony-portal/internal/repository"
	"go-ceremony-portal/internal/router"
	"go-ceremony-portal/internal/service"
)

const shutdownTimeout = 10 * time.Second

type revocationStore interface {
	auth.RevocationList
	service.ExpiredCleaner
}

// stores is the set of backends selected by STORE_DRIVER.
type stores struct {
	users       service.UserStore
	graduates   service.GraduateStore
	diplomas    service.DiplomaStore
	faculties   service.FacultyStore
	audit       service.AuditStore
	revocations revocationStore
	health      map[string]handler.HealthChecker
}

type App struct {
	server       *http.Server
	sweeper      *service.RevocationSweeper
	audit        *service.AuditService
	events       <-chan event.Event
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	st, err := a.openStores(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenStaffTTL, cfg.TokenGraduateTTL, auth.WithIssuerName(cfg.JWTIssuer))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	bus := event.NewBus()
	events, unsubscribe := bus.Subscribe()
	a.events = events
	a.cleanupFuncs = append(a.cleanupFuncs, unsubscribe)

	metrics := observability.NewMetrics(nil)
	verifier := auth.NewVerifier(st.users, st.graduates)
	resolver := auth.NewResolver(issuer, st.users, st.graduates, st.revocations)
	authMiddleware := middleware.NewAuthMiddleware(resolver, auth.NewPolicy(nil), bus, metrics)

	authService := service.NewAuthService(verifier, issuer, st.revocations, bus, metrics)
	userService := service.NewUserService(st.users, bus, service.WithHashCost(cfg.PasswordHashCost))
	diplomaService := service.NewDiplomaService(st.diplomas, st.graduates, bus)
	graduateService := service.NewGraduateService(st.graduates, bus)
	facultyService := service.NewFacultyService(st.faculties, bus)
	a.audit = service.NewAuditService(st.audit)
	a.sweeper = service.NewRevocationSweeper(st.revocations, cfg.RevocationSweepInterval)

	created, err := userService.Bootstrap(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to bootstrap supervisor: %w", err)
	}
	if created {
		slog.Info("bootstrap supervisor created", "username", cfg.BootstrapAdminUsername)
	}

	appRouter := router.New(cfg, authMiddleware, metrics, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		User:     handler.NewUserHandler(userService),
		Diploma:  handler.NewDiplomaHandler(diplomaService),
		Graduate: handler.NewGraduateHandler(graduateService),
		Faculty:  handler.NewFacultyHandler(facultyService),
		Audit:    handler.NewAuditHandler(a.audit),
		Health:   handler.NewHealthHandler(st.health),
	})

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return a, nil
}

func (a *App) openStores(ctx context.Context, cfg *config.Config) (stores, error) {
	var st stores

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		mem := repository.NewMemoryStore()
		if err := mem.SeedDemo(ctx); err != nil {
			return st, fmt.Errorf("failed to seed memory store: %w", err)
		}
		st = stores{
			users:       mem.Users,
			graduates:   mem.Graduates,
			diplomas:    mem.Diplomas,
			faculties:   mem.Faculties,
			audit:       mem.Audit,
			revocations: mem.Revocations,
			health:      map[string]handler.HealthChecker{},
		}
		slog.Warn("using in-memory store; data is lost on restart")
	default:
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, database.Options{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
		if err != nil {
			return st, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.cleanupFuncs = append(a.cleanupFuncs, db.Close)

		if err := db.EnsureSchema(ctx); err != nil {
			return st, fmt.Errorf("failed to ensure database schema: %w", err)
		}

		pool := db.Pool
		st = stores{
			users:       repository.NewUserRepository(pool),
			graduates:   repository.NewGraduateRepository(pool),
			diplomas:    repository.NewDiplomaRepository(pool),
			faculties:   repository.NewFacultyRepository(pool),
			audit:       repository.NewAuditRepository(pool),
			revocations: repository.NewTokenRepository(pool),
			health:      map[string]handler.HealthChecker{"database": db},
		}
		slog.Info("database ready")
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.cleanupFuncs = append(a.cleanupFuncs, func() { _ = client.Close() })

		redisStore := repository.NewRedisRevocationStore(client)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisStore.Ping(pingCtx); err != nil {
			return st, fmt.Errorf("failed to connect to redis: %w", err)
		}

		st.revocations = redisStore
		st.health["redis"] = handler.HealthCheckFunc(redisStore.Ping)
		slog.Info("token revocation list in redis", "addr", cfg.RedisAddr)
	}

	return st, nil
}

// Handler exposes the fully wired router.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests. The
// audit consumer and the revocation sweeper share the server's lifetime.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.sweeper.Run(gctx)
	})

	g.Go(func() error {
		return a.audit.Consume(gctx, a.events)
	})

	err := g.Wait()
	a.Close()
	slog.Info("server stopped")
	return err
}

// Close releases stores and subscriptions in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
