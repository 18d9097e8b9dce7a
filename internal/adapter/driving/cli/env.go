// Package cli is the command-line driving adapter. Every command is a
// subcommands.Command run against an Env.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/subcommands"

	"github.com/shilph/art/internal/application"
	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// Accounts is the account surface the commands use.
type Accounts interface {
	ListUsers(ctx context.Context) ([]string, error)
	Enroll(ctx context.Context, user, provider string, fields map[string]string) (*application.EnrollResult, error)
	Account(ctx context.Context, user, provider, identity string) (*model.Account, error)
	LatestBalances(ctx context.Context, user string) ([]model.CategoryBalances, error)
	History(ctx context.Context, accountID int64, limit int) ([]model.HistoryEntry, error)
	RemoveUser(ctx context.Context, user string) error
}

// Refresher scrapes balances.
type Refresher interface {
	Refresh(ctx context.Context, accountID int64) (model.RefreshOutcome, error)
	RefreshUser(ctx context.Context, user string) (*model.RefreshReport, error)
}

// Settings edits the user-visible settings.
type Settings interface {
	List(ctx context.Context) ([]model.Setting, error)
	Set(ctx context.Context, key, value string) error
}

// Notes serves the note of the day.
type Notes interface {
	Today(ctx context.Context, force bool) (*model.Note, error)
}

// App is an opened and unlocked tracker.
type App struct {
	Accounts  Accounts
	Refresher Refresher
	Settings  Settings
	Notes     Notes
	// API serves the JSON API for the serve command.
	API   http.Handler
	Close func() error
}

// Env is what every command runs against. Open is only called by commands
// that need the store, so catalog and about commands never ask for the
// master password.
type Env struct {
	Catalog    application.ProviderCatalog
	Releases   driven.ReleaseChecker
	Open       func(ctx context.Context) (*App, error)
	ListenAddr string

	In  io.Reader
	Out io.Writer
	Err io.Writer
	// Plain prints markdown as is instead of styling it for a terminal.
	Plain bool
}

// Register adds every command to c.
func Register(c *subcommands.Commander, env *Env) {
	c.Register(&providersCmd{env: env}, "catalog")
	c.Register(&aboutCmd{env: env}, "catalog")

	c.Register(&usersCmd{env: env}, "accounts")
	c.Register(&enrollCmd{env: env}, "accounts")
	c.Register(&removeUserCmd{env: env}, "accounts")

	c.Register(&balancesCmd{env: env}, "balances")
	c.Register(&historyCmd{env: env}, "balances")
	c.Register(&refreshCmd{env: env}, "balances")

	c.Register(&settingsCmd{env: env}, "app")
	c.Register(&noteCmd{env: env}, "app")
	c.Register(&serveCmd{env: env}, "app")
}

// withApp opens the app, runs fn and closes the app again.
func (e *Env) withApp(ctx context.Context, fn func(app *App) subcommands.ExitStatus) subcommands.ExitStatus {
	app, err := e.Open(ctx)
	if err != nil {
		return e.fail(err)
	}
	defer func() {
		if app.Close == nil {
			return
		}
		if err := app.Close(); err != nil {
			slog.Error("error closing app", "error", err)
		}
	}()
	return fn(app)
}

func (e *Env) fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(e.Err, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func (e *Env) usage(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(e.Err, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}
