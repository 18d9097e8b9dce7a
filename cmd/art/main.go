package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
	"golang.org/x/term"

	githubadapter "github.com/shilph/art/internal/adapter/driven/github"
	"github.com/shilph/art/internal/adapter/driven/rewards"
	"github.com/shilph/art/internal/adapter/driving/cli"
	"github.com/shilph/art/internal/catalog"
	"github.com/shilph/art/internal/config"
)

func main() {
	status, err := run()
	if err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
	os.Exit(int(status))
}

func run() (subcommands.ExitStatus, error) {
	// 1. Load configuration. Every variable is optional.
	cfg, err := config.Load()
	if err != nil {
		return subcommands.ExitFailure, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	// 2. Load the provider catalog and make sure every provider has an adapter.
	cat, err := catalog.Load()
	if err != nil {
		return subcommands.ExitFailure, err
	}
	registry, err := rewards.NewRegistry(cli.NewLinePrompter(os.Stdin, os.Stderr))
	if err != nil {
		return subcommands.ExitFailure, err
	}
	if err := cat.Validate(registry.Has); err != nil {
		return subcommands.ExitFailure, fmt.Errorf("provider catalog: %w", err)
	}

	// 3. Register commands. The store is only opened by commands that need it.
	l := &launcher{cfg: cfg, catalog: cat, registry: registry}
	env := &cli.Env{
		Catalog:    cat,
		Releases:   githubadapter.NewClient(githubadapter.DefaultOwner, githubadapter.DefaultRepo),
		Open:       l.open,
		ListenAddr: cfg.ListenAddr,
		In:         os.Stdin,
		Out:        os.Stdout,
		Err:        os.Stderr,
		Plain:      !term.IsTerminal(int(os.Stdout.Fd())),
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cli.Register(commander, env)

	flag.Parse()
	return commander.Execute(context.Background()), nil
}
