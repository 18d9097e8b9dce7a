package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"github.com/shilph/art/internal/domain/model"
)

type settingsCmd struct {
	env *Env
}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "List or change settings." }
func (*settingsCmd) Usage() string {
	return `settings [key=value...]

Without arguments, list the settings. With key=value pairs, update them.
`
}
func (*settingsCmd) SetFlags(*flag.FlagSet) {}

func (c *settingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	updates, err := parseAssignments(f.Args())
	if err != nil {
		return c.env.usage("%v", err)
	}

	return c.env.withApp(ctx, func(app *App) subcommands.ExitStatus {
		for _, arg := range f.Args() {
			key, _, _ := strings.Cut(arg, "=")
			key = strings.TrimSpace(key)
			if err := app.Settings.Set(ctx, key, updates[key]); err != nil {
				return c.env.fail(fmt.Errorf("set %s: %w", key, err))
			}
		}

		settings, err := app.Settings.List(ctx)
		if err != nil {
			return c.env.fail(err)
		}
		rows := make([][]string, len(settings))
		for i, s := range settings {
			rows[i] = []string{s.Key, s.Label, s.Value}
		}
		if err := render(c.env.Out, table([]string{"Key", "Setting", "Value"}, "lll", rows), c.env.Plain); err != nil {
			return c.env.fail(err)
		}
		return subcommands.ExitSuccess
	})
}

type noteCmd struct {
	env   *Env
	force bool
}

func (*noteCmd) Name() string     { return "note" }
func (*noteCmd) Synopsis() string { return "Show the note of the day." }
func (*noteCmd) Usage() string {
	return `note [-force]

The note is shown once per day unless -force is given.
`
}

func (c *noteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "show the note even if it was already shown today")
}

func (c *noteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.withApp(ctx, func(app *App) subcommands.ExitStatus {
		note, err := app.Notes.Today(ctx, c.force)
		if err != nil {
			return c.env.fail(err)
		}
		if note == nil {
			fmt.Fprintln(c.env.Out, "Today's note was already shown. Use -force to see it again.")
			return subcommands.ExitSuccess
		}
		if err := render(c.env.Out, noteMarkdown(note), c.env.Plain); err != nil {
			return c.env.fail(err)
		}
		return subcommands.ExitSuccess
	})
}

func noteMarkdown(n *model.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", n.Title)
	if !n.Posted.IsZero() {
		fmt.Fprintf(&b, "_%s_\n\n", n.Posted.Format(model.DateLayout))
	}
	if n.Excerpt != "" {
		fmt.Fprintf(&b, "%s...\n\n", n.Excerpt)
	}
	if n.URL != "" {
		fmt.Fprintf(&b, "[Read more](%s)\n", n.URL)
	}
	return b.String()
}

type serveCmd struct {
	env  *Env
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "Serve the JSON API." }
func (*serveCmd) Usage() string {
	return `serve [-addr host:port]
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", c.env.ListenAddr, "listen address")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return c.env.withApp(ctx, func(app *App) subcommands.ExitStatus {
		if err := serve(ctx, c.addr, app.API); err != nil {
			return c.env.fail(err)
		}
		return subcommands.ExitSuccess
	})
}

// serve runs an HTTP server until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Refreshes drive a browser through a login and can take a while.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
