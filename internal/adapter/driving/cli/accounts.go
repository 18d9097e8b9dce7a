package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
)

type usersCmd struct {
	env *Env
}

func (*usersCmd) Name() string     { return "users" }
func (*usersCmd) Synopsis() string { return "List users with enrolled accounts." }
func (*usersCmd) Usage() string {
	return `users
`
}
func (*usersCmd) SetFlags(*flag.FlagSet) {}

func (c *usersCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.withApp(ctx, func(app *App) subcommands.ExitStatus {
		users, err := app.Accounts.ListUsers(ctx)
		if err != nil {
			return c.env.fail(err)
		}
		if len(users) == 0 {
			fmt.Fprintln(c.env.Out, "No users yet. Add one with the enroll command.")
			return subcommands.ExitSuccess
		}
		for _, u := range users {
			fmt.Fprintln(c.env.Out, u)
		}
		return subcommands.ExitSuccess
	})
}

type enrollCmd struct {
	env      *Env
	user     string
	provider string
}

func (*enrollCmd) Name() string     { return "enroll" }
func (*enrollCmd) Synopsis() string { return "Enroll an account and fetch its first balance." }
func (*enrollCmd) Usage() string {
	return `enroll -user <name> -provider <provider> field=value...

Store the account's credentials encrypted and run a first refresh.
The providers command lists the fields each provider needs.
`
}

func (c *enrollCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "user the account belongs to")
	f.StringVar(&c.provider, "provider", "", "provider name, as listed by the providers command")
}

func (c *enrollCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || c.provider == "" {
		return c.env.usage("-user and -provider are required")
	}
	fields, err := parseAssignments(f.Args())
	if err != nil {
		return c.env.usage("%v", err)
	}
	def, err := c.env.Catalog.Get(c.provider)
	if err != nil {
		return c.env.usage("unknown provider %q", c.provider)
	}
	if len(fields) == 0 {
		return c.env.usage("%s needs %s", def.Name, strings.Join(def.FieldNames(), ", "))
	}

	return c.env.withApp(ctx, func(app *App) subcommands.ExitStatus {
		res, err := app.Accounts.Enroll(ctx, c.user, def.Name, fields)
		if err != nil {
			return c.env.fail(err)
		}
		fmt.Fprintf(c.env.Out, "Enrolled %s for %s (account %d).\n", def.Name, c.user, res.AccountID)
		printOutcome(c.env.Out, res.Refresh)
		return subcommands.ExitSuccess
	})
}

type removeUserCmd struct {
	env  *Env
	user string
	yes  bool
}

func (*removeUserCmd) Name() string     { return "remove-user" }
func (*removeUserCmd) Synopsis() string { return "Delete a user with all accounts and history." }
func (*removeUserCmd) Usage() string {
	return `remove-user -user <name> [-yes]
`
}

func (c *removeUserCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "user to remove")
	f.BoolVar(&c.yes, "yes", false, "skip the confirmation prompt")
}

func (c *removeUserCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		return c.env.usage("-user is required")
	}
	if !c.yes && !c.confirm() {
		fmt.Fprintln(c.env.Out, "Aborted.")
		return subcommands.ExitSuccess
	}

	return c.env.withApp(ctx, func(app *App) subcommands.ExitStatus {
		if err := app.Accounts.RemoveUser(ctx, c.user); err != nil {
			return c.env.fail(err)
		}
		fmt.Fprintf(c.env.Out, "Removed %s.\n", c.user)
		return subcommands.ExitSuccess
	})
}

func (c *removeUserCmd) confirm() bool {
	fmt.Fprintf(c.env.Out, "Remove %s with every account and balance history? [y/N] ", c.user)
	line, _ := bufio.NewReader(c.env.In).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// parseAssignments turns key=value arguments into a map. Values may contain
// '=' themselves.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("field %q given twice", key)
		}
		out[key] = value
	}
	return out, nil
}
