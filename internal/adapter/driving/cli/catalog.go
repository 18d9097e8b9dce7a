package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/subcommands"

	"github.com/shilph/art/internal/application"
)

type providersCmd struct {
	env *Env
}

func (*providersCmd) Name() string     { return "providers" }
func (*providersCmd) Synopsis() string { return "List the supported reward programs." }
func (*providersCmd) Usage() string {
	return `providers

List every supported provider by category with the fields enrollment asks for.
`
}
func (*providersCmd) SetFlags(*flag.FlagSet) {}

func (c *providersCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var b strings.Builder
	for _, category := range c.env.Catalog.Categories() {
		var rows [][]string
		for _, p := range c.env.Catalog.List() {
			if p.Category != category {
				continue
			}
			expiry := "-"
			if p.ExpireAfterMonths > 0 {
				expiry = strconv.Itoa(p.ExpireAfterMonths) + " months"
			}
			rows = append(rows, []string{p.Name, strings.Join(p.FieldNames(), ", "), expiry, p.Note})
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", category)
		b.WriteString(table([]string{"Provider", "Fields", "Expire After", "Note"}, "llll", rows))
		b.WriteByte('\n')
	}

	if err := render(c.env.Out, b.String(), c.env.Plain); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type aboutCmd struct {
	env *Env
}

func (*aboutCmd) Name() string     { return "about" }
func (*aboutCmd) Synopsis() string { return "Show the project page and latest release." }
func (*aboutCmd) Usage() string {
	return `about
`
}
func (*aboutCmd) SetFlags(*flag.FlagSet) {}

func (c *aboutCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	info := application.About(ctx, c.env.Releases)

	fmt.Fprintf(c.env.Out, "Automated Rewards Tracker\nProject: %s\n", info.ProjectURL)
	if info.Latest != nil {
		name := info.Latest.Tag
		if info.Latest.Name != "" && info.Latest.Name != name {
			name += " (" + info.Latest.Name + ")"
		}
		fmt.Fprintf(c.env.Out, "Latest release: %s\n", name)
		if info.Latest.URL != "" {
			fmt.Fprintf(c.env.Out, "Download: %s\n", info.Latest.URL)
		}
	}
	return subcommands.ExitSuccess
}
