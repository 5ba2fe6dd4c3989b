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

	httpapi "github.com/ledgerdash/ledgerdash/internal/auth/http"
	"github.com/ledgerdash/ledgerdash/internal/auth/notify"
	"github.com/ledgerdash/ledgerdash/internal/auth/service"
	"github.com/ledgerdash/ledgerdash/internal/auth/store"
	"github.com/ledgerdash/ledgerdash/internal/auth/store/drivers/sqlite"
	"github.com/ledgerdash/ledgerdash/pkg/cryptox"
	"github.com/ledgerdash/ledgerdash/pkg/jwtx"
	"github.com/ledgerdash/ledgerdash/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	codec  *jwtx.Codec
	sender notify.Sender

	sessionService      *service.SessionService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Pepper for password and refresh-secret hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	codec, err := jwtx.NewCodec([]byte(cfg.SigningSecret), cfg.Issuer, cfg.Audience)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initSender()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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
	app.logger.Info("shutting down auth service...")

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

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
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

// initSender picks SMTP when a host is configured, otherwise the log sender
// so dev setups work without a mail relay.
func (app *Application) initSender() {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("no SMTP host configured, emails will be logged instead of sent")
		app.sender = notify.NewLogSender(app.logger)
		return
	}

	app.sender = notify.NewSMTPSender(notify.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUser,
		Password: app.cfg.SMTPPass,
		From:     app.cfg.SMTPFrom,
		BaseURL:  app.cfg.BaseURL,
	})
}

// initServices initializes the business logic services.
func (app *Application) initServices() {
	app.sessionService = &service.SessionService{
		Store:           app.db,
		Codec:           app.codec,
		Sender:          app.sender,
		Issuer:          app.cfg.Issuer,
		Audience:        app.cfg.Audience,
		AccessTTL:       app.cfg.AccessTTL,
		RefreshTTL:      app.cfg.RefreshTTL,
		VerificationTTL: app.cfg.VerificationTTL,
		ResetTTL:        app.cfg.ResetTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		httpapi.CookieConfig{
			Domain: app.cfg.CookieDomain,
			Secure: app.cfg.CookieSecure,
		},
		app.cfg.Env != "prod",
		app.logger,
	)

	router.Sessions = app.sessionService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
