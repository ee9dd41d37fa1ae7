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

	"github.com/portalhq/portal/internal/api/cache"
	httpapi "github.com/portalhq/portal/internal/api/http"
	"github.com/portalhq/portal/internal/api/mailer"
	"github.com/portalhq/portal/internal/api/objstore"
	"github.com/portalhq/portal/internal/api/service"
	"github.com/portalhq/portal/internal/api/store"
	"github.com/portalhq/portal/internal/api/store/drivers/sqlite"
	"github.com/portalhq/portal/pkg/cryptox"
	"github.com/portalhq/portal/pkg/jwtx"
	"github.com/portalhq/portal/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application wires every dependency of the API together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	cache  *cache.Cache
	signer *jwtx.HS256

	authService         *service.AuthService
	resetService        *service.PasswordResetService
	userService         *service.UserService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "portal-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	signer, err := jwtx.NewHS256([]byte(cfg.JWTSecret), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	ctx := context.Background()

	app.cache, err = cache.New(ctx, cfg.RedisURL)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	if app.cache == nil {
		app.logger.Info("response cache disabled, REDIS_URL not set")
	}

	mail, err := mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	var uploader objstore.Uploader
	if cfg.S3Bucket != "" {
		uploader, err = objstore.NewS3Store(ctx, objstore.Options{
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			Bucket:       cfg.S3Bucket,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			_ = app.db.Close()
			return nil, fmt.Errorf("failed to initialize object store: %w", err)
		}
	} else {
		app.logger.Warn("file uploads disabled, S3_BUCKET not set")
	}

	app.initServices(mail)
	app.initHTTP(uploader)

	if _, err := app.bootstrapService.EnsureAdmin(ctx); err != nil {
		if !errors.Is(err, service.ErrBootstrapIncomplete) {
			_ = app.db.Close()
			return nil, fmt.Errorf("failed to seed bootstrap admin: %w", err)
		}
		app.logger.Warn("users table is empty and no bootstrap admin is configured")
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("portal api starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully stops the server, the sweeper and the stores.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.cache.Close(); err != nil {
		app.logger.Error("error closing cache", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("portal api stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
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

func (app *Application) initServices(mail mailer.Mailer) {
	tokens := &service.TokenIssuer{Signer: app.signer, Env: app.cfg.Env}

	app.authService = &service.AuthService{
		Store:  app.db,
		Tokens: tokens,
		Mailer: mail,
		Env:    app.cfg.Env,
	}

	app.resetService = &service.PasswordResetService{
		Store:     app.db,
		Mailer:    mail,
		WebAppURL: app.cfg.WebAppURL,
		Env:       app.cfg.Env,
	}

	app.userService = &service.UserService{
		Store:     app.db,
		Cache:     app.cache,
		Mailer:    mail,
		WebAppURL: app.cfg.WebAppURL,
	}

	app.bootstrapService = &service.BootstrapService{
		Store:         app.db,
		AdminName:     app.cfg.BootstrapAdminName,
		AdminEmail:    app.cfg.BootstrapAdminEmail,
		AdminPassword: app.cfg.BootstrapAdminPassword,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP(uploader objstore.Uploader) {
	router := httpapi.NewRouter(
		app.signer,
		app.cfg.APIKey,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.ResetService = app.resetService
	router.UserService = app.userService
	router.Uploader = uploader
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
