package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/keygate/internal/keygate/http"
	"github.com/aussiebroadwan/keygate/internal/keygate/service"
	"github.com/aussiebroadwan/keygate/internal/keygate/store"
	"github.com/aussiebroadwan/keygate/internal/keygate/store/drivers/sqlite"
	"github.com/aussiebroadwan/keygate/pkg/cryptox"
	"github.com/aussiebroadwan/keygate/pkg/slogx"
	"github.com/aussiebroadwan/keygate/pkg/yubico"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the store, the second factor guard and the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	verifier *yubico.Client // nil while the second factor is disabled

	// Services
	accountService      *service.AccountService
	guard               *service.Guard
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "keygate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(pepper); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("keygate starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"yubikey_enabled", app.cfg.YubikeyEnabled,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			app.housekeepingService.Stop()
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down keygate...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("keygate stopped")
	return nil
}

// Handler exposes the routed handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		app.cfg.DatabaseFile,
	)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices(pepper string) error {
	policy, err := service.NewPolicy(service.PolicyConfig{
		Enabled:     app.cfg.YubikeyEnabled,
		Required:    app.cfg.YubikeyRequired,
		Credentials: app.cfg.Credentials(),
	})
	if err != nil {
		return err
	}

	engine := service.NewEngine(nil, app.cfg.YubikeyVerifyTimeout, app.logger)
	if policy.IsEnabled() {
		client, err := yubico.NewClient(app.cfg.Credentials(), app.cfg.Endpoints...)
		if err != nil {
			return fmt.Errorf("%w: %w", service.ErrConfiguration, err)
		}
		client.Parallel = app.cfg.YubikeyAPIParallel
		client.HTTPClient.Timeout = endpointTimeout(app.cfg.YubikeyVerifyTimeout, len(client.Endpoints), client.Parallel)

		app.verifier = client
		engine.Verifier = client

		app.logger.Info("yubikey verification enabled",
			"endpoints", len(client.Endpoints),
			"parallel", client.Parallel,
			"required_default", policy.RequiredDefault(),
		)
	}

	app.accountService = &service.AccountService{
		Store:      app.db,
		Hasher:     cryptox.NewHasher(pepper),
		SessionTTL: app.cfg.SessionTTL,
	}

	app.guard = &service.Guard{
		Policy:   policy,
		Engine:   engine,
		Bindings: app.db.Bindings(),
		Sessions: app.accountService,
		Logger:   app.logger,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	return nil
}

// endpointTimeout bounds a single validation request. Sequential failover
// splits the budget so a hanging first endpoint leaves time for the next.
func endpointTimeout(budget time.Duration, endpoints int, parallel bool) time.Duration {
	if parallel || endpoints <= 1 || budget <= 0 {
		return budget
	}
	return budget / time.Duration(endpoints)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.cfg.RateLimits, app.logger)

	router.AccountService = app.accountService
	router.Guard = app.guard
	router.VerificationOn = app.verifier != nil
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
