package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shilph/art/internal/adapter/driven/blog"
	"github.com/shilph/art/internal/adapter/driven/browser"
	"github.com/shilph/art/internal/adapter/driven/rewards"
	sqliteadapter "github.com/shilph/art/internal/adapter/driven/sqlite"
	"github.com/shilph/art/internal/adapter/driven/vault"
	"github.com/shilph/art/internal/adapter/driving/cli"
	httphandler "github.com/shilph/art/internal/adapter/driving/http"
	"github.com/shilph/art/internal/application"
	"github.com/shilph/art/internal/catalog"
	"github.com/shilph/art/internal/config"
	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

// launcher opens the store, unlocks it and wires the services.
type launcher struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	registry *rewards.Registry
}

func (l *launcher) open(ctx context.Context) (app *cli.App, err error) {
	// 1. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, l.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err == nil {
			return
		}
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Debug("database opened", "path", l.cfg.DBPath)

	// 2. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return nil, err
	}

	// 3. Sync the catalog and seed default settings.
	settings := sqliteadapter.NewSettingRepo(db)
	if err := application.Bootstrap(ctx, l.catalog, sqliteadapter.NewCatalogRepo(db), settings, time.Now()); err != nil {
		return nil, err
	}

	// 4. Unlock with the master password.
	unlocker := application.NewUnlocker(settings, newCipher, l.cfg.PasswordAttempts)
	codec, err := unlocker.Unlock(ctx, cli.PasswordReader(l.cfg.Password, os.Stdin, os.Stderr))
	if err != nil {
		return nil, fmt.Errorf("unlock: %w", err)
	}

	// 5. Wire stores and services.
	accounts := sqliteadapter.NewAccountRepo(db, codec)
	history := sqliteadapter.NewHistoryRepo(db, codec)
	settingSvc := application.NewSettingService(settings)

	sessions := application.NewSessionProvider(func(ctx context.Context) (driven.Browser, error) {
		execPath := l.cfg.ChromePath
		if execPath == "" {
			execPath = settingSvc.Value(ctx, model.SettingChromeExecutable)
		}
		return browser.Open(ctx, browser.Options{
			RemoteURL:   l.cfg.BrowserURL,
			ExecPath:    execPath,
			Headless:    l.cfg.Headless,
			WaitTimeout: l.cfg.WaitTimeout,
		})
	})

	refresher := application.NewRefreshService(l.catalog, accounts, history, l.registry, sessions)
	accountSvc := application.NewAccountService(l.catalog, accounts, history, refresher, l.cfg.HistoryLimit)
	notes := application.NewNoteService(settings, blog.NewFetcher())

	api := httphandler.NewRouter(httphandler.NewHandler(accountSvc, refresher, notes, slog.Default()), slog.Default())

	return &cli.App{
		Accounts:  accountSvc,
		Refresher: refresher,
		Settings:  settingSvc,
		Notes:     notes,
		API:       api,
		Close: func() error {
			return errors.Join(sessions.Close(), db.Close())
		},
	}, nil
}

func newCipher(password string) (driven.Cipher, error) {
	c, err := vault.New(password)
	if err != nil {
		return nil, err
	}
	return c, nil
}
