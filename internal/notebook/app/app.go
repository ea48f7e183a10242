package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"

	httpapi "github.com/aussiebroadwan/notebook/internal/notebook/http"
	"github.com/aussiebroadwan/notebook/internal/notebook/i18n"
	"github.com/aussiebroadwan/notebook/internal/notebook/service"
	"github.com/aussiebroadwan/notebook/internal/notebook/session"
	"github.com/aussiebroadwan/notebook/internal/notebook/store"
	"github.com/aussiebroadwan/notebook/internal/notebook/store/drivers/mysql"
	"github.com/aussiebroadwan/notebook/internal/notebook/store/drivers/sqlite"
	"github.com/aussiebroadwan/notebook/internal/notebook/telemetry"
	"github.com/aussiebroadwan/notebook/pkg/cryptox"
	"github.com/aussiebroadwan/notebook/pkg/httpx"
	"github.com/aussiebroadwan/notebook/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Store is a store.Store that can bring its own schema up to date.
type Store interface {
	store.Store
	ApplyMigrations() error
}

// Application encapsulates the notebook service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       Store
	sessions *session.Manager
	metrics  *telemetry.Provider
	proxies  httpx.TrustedProxies

	// Services
	userService        *service.UserService
	noteService        *service.NoteService
	activityService    *service.ActivityService
	authService        *service.AuthService
	adminService       *service.AdminService
	bootstrapService   *service.BootstrapService
	maintenanceService *service.MaintenanceService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "notebook",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application with migrations applied and the
// administrator account in place.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg:      cfg,
		logger:   NewLogger(cfg),
		sessions: session.New(),
	}

	if err := cryptox.LoadPepper(cfg.PepperFile); err != nil {
		return nil, err
	}

	proxies, err := httpx.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	app.proxies = proxies

	db, err := OpenStore(ctx, cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Info("database migrations applied successfully")

	metrics, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:       cfg.OTelEndpoint,
		ExportInterval: cfg.OTelMetricsInterval,
		ServiceName:    "notebook",
		ServiceVersion: BuildVersion,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set up metrics export: %w", err)
	}
	app.metrics = metrics
	if metrics.Enabled() {
		app.logger.Info("metrics export enabled", "endpoint", cfg.OTelEndpoint)
	}

	if err := app.initServices(); err != nil {
		_ = metrics.Shutdown(ctx)
		_ = db.Close()
		return nil, err
	}

	if _, err := app.bootstrapService.EnsureAdmin(ctx); err != nil {
		_ = metrics.Shutdown(ctx)
		_ = db.Close()
		return nil, fmt.Errorf("failed to bootstrap administrator: %w", err)
	}

	app.initHTTP()
	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.maintenanceService.Start()

	app.logger.Info("notebook service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown drains HTTP traffic, stops the maintenance worker, drops every
// session, flushes metrics and closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down notebook service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slogx.Err(err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slogx.Err(err))
		}
	}

	app.maintenanceService.Stop()
	app.sessions.Close()

	if err := app.metrics.Shutdown(ctx); err != nil {
		app.logger.Error("error flushing metrics", slogx.Err(err))
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", slogx.Err(err))
		return err
	}

	app.logger.Info("notebook service stopped")
	return nil
}

// Handler exposes the HTTP router, mainly for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// OpenStore connects to the configured driver. MySQL connections are retried
// with exponential backoff since the database often starts alongside us.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	switch cfg.DBDriver {
	case DriverSQLite, "":
		db, err := sqlite.NewStore(cfg.DatabaseFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return db, nil

	case DriverMySQL:
		var db *mysql.Store
		backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			s, err := mysql.NewStore(ctx, cfg.MySQL.FormatDSN())
			if err != nil {
				logger.Warn("database not ready, retrying", "host", cfg.MySQL.Host, slogx.Err(err))
				return retry.RetryableError(err)
			}
			db = s
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

func (app *Application) initServices() error {
	failures, err := telemetry.NewActivityFailures(app.metrics)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	app.activityService = &service.ActivityService{Store: app.db, Observer: failures}
	app.userService = &service.UserService{Store: app.db}
	app.noteService = &service.NoteService{Store: app.db}
	app.adminService = &service.AdminService{Store: app.db, Activity: app.activityService}
	app.authService = &service.AuthService{
		Store:    app.db,
		Users:    app.userService,
		Activity: app.activityService,
		Sessions: app.sessions,
	}
	app.bootstrapService = &service.BootstrapService{Store: app.db, Admin: app.cfg.Admin}

	app.maintenanceService = service.NewMaintenanceService(
		app.db,
		app.logger,
		app.cfg.MaintenanceInterval,
	)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.db,
		app.sessions,
		i18n.MustNew(),
		app.logger,
		httpapi.Options{
			BuildVersion:   BuildVersion,
			RequestTimeout: app.cfg.RequestTimeout,
			CookieSecure:   app.cfg.CookieSecure,
			TrustedProxies: app.proxies,
		},
	)

	router.AuthService = app.authService
	router.UserService = app.userService
	router.NoteService = app.noteService
	router.ActivityService = app.activityService
	router.AdminService = app.adminService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
