// Package cli is the interactive journal client: sign up or in, then
// add, watch and clear task entries day by day.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/spiralapp/journal/internal/auth"
	"github.com/spiralapp/journal/internal/config"
	"github.com/spiralapp/journal/internal/logging"
	"github.com/spiralapp/journal/internal/profiles"
	"github.com/spiralapp/journal/internal/session"
	"github.com/spiralapp/journal/internal/signup"
	"github.com/spiralapp/journal/internal/tasks"
)

type App struct {
	config    *config.Config
	store     *session.Store
	validator *signup.Validator
	tasks     *tasks.Repository
	reader    *bufio.Reader
	out       io.Writer
	db        *sql.DB
}

// NewApp wires the client. With JOURNAL_DATABASE_DSN set (or -d) it runs
// against Postgres; otherwise everything lives in memory for the session,
// which is handy for trying the client out.
func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stderr)

	app := &App{
		config: cfg,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	var (
		authn       auth.Authenticator
		profileRepo profiles.Repository
		store       tasks.Store
	)

	if cfg.DatabaseDSN != "" {
		db, err := sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db
		authn = auth.NewPostgresAuthenticator(db)
		profileRepo = profiles.NewPostgresRepository(db)
		store = tasks.NewPostgresStore(db)
	} else {
		authn = auth.NewInMemoryAuthenticator()
		profileRepo = profiles.NewInMemoryRepository()
		store = tasks.NewInMemoryStore()
	}

	app.store = session.NewStore(authn, profileRepo, logger,
		[]byte(cfg.SecretKey), cfg.TokenValidityDuration)
	app.validator = signup.NewValidator(profileRepo, cfg.UniquenessCheckTimeout)
	app.tasks = tasks.NewRepository(store, logger)

	return app, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.store.Restore(ctx)
	a.repl(ctx)
}

func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	_, ok := a.store.Current()
	return ok
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}
