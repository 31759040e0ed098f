// Package cli is the interactive terminal front end: it renders the
// session manager's state and drives its operations from user commands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/ljthub/authcli/internal/client/api"
	"github.com/ljthub/authcli/internal/client/config"
	"github.com/ljthub/authcli/internal/client/repositories/sessionstore"
	"github.com/ljthub/authcli/internal/client/services"
	"github.com/ljthub/authcli/internal/logging"
)

type App struct {
	config  *config.Config
	session services.Session
	log     logging.Logger
	reader  *bufio.Reader
}

// NewApp wires the local database, the API client, and the session
// manager together.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	db, err := sessionstore.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	store := sessionstore.NewSQLiteRepository(db)

	clientID, err := sessionstore.EnsureClientID(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("error provisioning client id: %w", err)
	}

	apiClient := api.NewHTTPClient(cfg.BaseURL, clientID)
	session := services.NewSessionManager(apiClient, store, cfg.SessionTTL, log.With("client_id", clientID))

	return &App{
		config:  cfg,
		session: session,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Run restores any remembered session, starts the background token
// revalidation, and hands control to the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.session.Close()

	if err := a.session.Restore(ctx); err != nil {
		a.log.Warn(ctx, "session restore failed", "error", err)
	}
	if st := a.session.Snapshot(); st.IsAuthenticated {
		printlnFn(fmt.Sprintf("Welcome back, %s!", st.User.Username))
	}

	go a.session.RunRevalidation(ctx, a.config.RevalidateInterval)

	printlnFn("LJT Hub auth CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().IsAuthenticated
}

// status renders the prompt suffix: username plus a verification hint.
func (a *App) status() string {
	st := a.session.Snapshot()
	if !st.IsAuthenticated || st.User == nil {
		return ""
	}
	s := st.User.Username
	if !st.User.IsVerified {
		s += " unverified"
	}
	return fmt.Sprintf("(%s)", s)
}
