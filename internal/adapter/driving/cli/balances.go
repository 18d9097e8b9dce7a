package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/subcommands"

	"github.com/shilph/art/internal/domain/model"
)

type balancesCmd struct {
	env  *Env
	user string
}

func (*balancesCmd) Name() string     { return "balances" }
func (*balancesCmd) Synopsis() string { return "Show a user's latest balances by category." }
func (*balancesCmd) Usage() string {
	return `balances -user <name>
`
}

func (c *balancesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "user whose balances to show")
}

func (c *balancesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		return c.env.usage("-user is required")
	}
	return c.env.withApp(ctx, func(app *App) subcommands.ExitStatus {
		groups, err := app.Accounts.LatestBalances(ctx, c.user)
		if err != nil {
			return c.env.fail(err)
		}
		if err := render(c.env.Out, balancesMarkdown(c.user, groups), c.env.Plain); err != nil {
			return c.env.fail(err)
		}
		return subcommands.ExitSuccess
	})
}

func balancesMarkdown(user string, groups []model.CategoryBalances) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", user)

	empty := true
	for _, g := range groups {
		if len(g.Rows) == 0 {
			continue
		}
		empty = false
		rows := make([][]string, 0, len(g.Rows))
		for _, r := range g.Rows {
			rows = append(rows, []string{
				r.Provider,
				r.Identity,
				formatPoints(r.Balance),
				r.ExpireDisplay(),
				r.Updated.Format(model.DateLayout),
			})
		}
		fmt.Fprintf(&b, "## %s\n\n", g.Category)
		b.WriteString(table([]string{"Provider", "Account", "Balance", "Expires", "Updated"}, "llrll", rows))
		b.WriteByte('\n')
	}
	if empty {
		b.WriteString("No balances recorded yet.\n")
	}
	return b.String()
}

type historyCmd struct {
	env      *Env
	user     string
	provider string
	identity string
	limit    int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "Show the balance history of one account." }
func (*historyCmd) Usage() string {
	return `history -user <name> -provider <provider> -id <identity> [-limit n]

Newest entries first. A limit of 0 uses the configured default.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "account owner")
	f.StringVar(&c.provider, "provider", "", "provider name")
	f.StringVar(&c.identity, "id", "", "account identity, the first enrollment field")
	f.IntVar(&c.limit, "limit", 0, "number of entries to show")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || c.provider == "" || c.identity == "" {
		return c.env.usage("-user, -provider and -id are required")
	}
	return c.env.withApp(ctx, func(app *App) subcommands.ExitStatus {
		account, err := app.Accounts.Account(ctx, c.user, c.provider, c.identity)
		if err != nil {
			return c.env.fail(err)
		}
		entries, err := app.Accounts.History(ctx, account.ID, c.limit)
		if err != nil {
			return c.env.fail(err)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "# %s: %s\n\n", account.Provider, account.Identity())
		if len(entries) == 0 {
			b.WriteString("No history recorded yet.\n")
		} else {
			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{e.Date.Format(model.DateLayout), formatPoints(e.Balance)}
			}
			b.WriteString(table([]string{"Date", "Balance"}, "lr", rows))
		}
		if err := render(c.env.Out, b.String(), c.env.Plain); err != nil {
			return c.env.fail(err)
		}
		return subcommands.ExitSuccess
	})
}

type refreshCmd struct {
	env      *Env
	user     string
	provider string
	identity string
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "Scrape fresh balances." }
func (*refreshCmd) Usage() string {
	return `refresh -user <name> [-provider <provider> -id <identity>]

Without -provider every account of the user is refreshed in turn.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "account owner")
	f.StringVar(&c.provider, "provider", "", "refresh only this provider")
	f.StringVar(&c.identity, "id", "", "account identity, required with -provider")
}

func (c *refreshCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		return c.env.usage("-user is required")
	}
	if (c.provider == "") != (c.identity == "") {
		return c.env.usage("-provider and -id go together")
	}

	return c.env.withApp(ctx, func(app *App) subcommands.ExitStatus {
		if c.provider != "" {
			account, err := app.Accounts.Account(ctx, c.user, c.provider, c.identity)
			if err != nil {
				return c.env.fail(err)
			}
			outcome, err := app.Refresher.Refresh(ctx, account.ID)
			printOutcome(c.env.Out, outcome)
			if err != nil {
				return subcommands.ExitFailure
			}
			return subcommands.ExitSuccess
		}

		report, err := app.Refresher.RefreshUser(ctx, c.user)
		if err != nil {
			return c.env.fail(err)
		}
		for _, o := range report.Outcomes {
			printOutcome(c.env.Out, o)
		}
		if failed := report.Failed(); failed > 0 {
			fmt.Fprintf(c.env.Err, "%d of %d accounts failed to refresh.\n", failed, len(report.Outcomes))
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	})
}

func printOutcome(w io.Writer, o model.RefreshOutcome) {
	if !o.OK() {
		fmt.Fprintf(w, "%s (%s): failed: %v\n", o.Provider, o.Identity, o.Err)
		return
	}
	expiry := model.NoExpiryDisplay
	if o.ExpireDate != nil {
		expiry = "expires " + o.ExpireDate.Format(model.DateLayout)
	}
	fmt.Fprintf(w, "%s (%s): %s, %s\n", o.Provider, o.Identity, formatPoints(o.Balance), expiry)
}
