// Package app initializes and runs the journal server: configuration,
// database and migrations, the sync core, and the HTTP API with graceful
// shutdown.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/spiralapp/journal/internal/auth"
	"github.com/spiralapp/journal/internal/config"
	"github.com/spiralapp/journal/internal/export"
	"github.com/spiralapp/journal/internal/httpapi"
	"github.com/spiralapp/journal/internal/logging"
	"github.com/spiralapp/journal/internal/migrations"
	"github.com/spiralapp/journal/internal/profiles"
	"github.com/spiralapp/journal/internal/session"
	"github.com/spiralapp/journal/internal/signup"
	"github.com/spiralapp/journal/internal/tasks"
	"github.com/spiralapp/journal/internal/theme"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	router http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	profileRepo := profiles.NewPostgresRepository(db)
	taskRepo := tasks.NewRepository(tasks.NewPostgresStore(db), logger)

	stores := func() *session.Store {
		return session.NewStore(auth.NewPostgresAuthenticator(db), profileRepo,
			logger, []byte(cfg.SecretKey), cfg.TokenValidityDuration)
	}

	validator := signup.NewValidator(profileRepo, cfg.UniquenessCheckTimeout)
	exporter := export.NewService(profileRepo, taskRepo, cfg)

	palette, known := theme.ByName(cfg.Theme)
	if !known {
		logger.Warn(ctx, "unknown theme, using default", "theme", cfg.Theme)
	}

	metrics := httpapi.NewMetrics()
	handlers := httpapi.NewHandlers(stores, validator, taskRepo, exporter, palette, metrics, logger)
	router := httpapi.NewRouter(handlers, []byte(cfg.SecretKey), logger)

	return &App{config: cfg, logger: logger, db: db, router: router}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting journal server")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s := httpapi.NewServer(app.config.HTTPAddr, app.router, app.logger)
		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
}
