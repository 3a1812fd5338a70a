package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/content-gateway/internal/git"
	"github.com/masmgr/content-gateway/internal/output"
)

// ChangesCmd returns the changes command.
func ChangesCmd() *cli.Command {
	flags := append(repoFlags(), scopeFlags()...)
	flags = append(flags, reportFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:     "from",
			Usage:    "Branch the changes are compared against, e.g. production",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "to",
			Usage: "Branch carrying the changes (default: the deployment's default branch)",
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"n"},
			Usage:   "Only print the newest N changes (0 prints all)",
		},
	)

	return &cli.Command{
		Name:   "changes",
		Usage:  "Print the commits a synchronize from one branch into another would apply",
		Flags:  flags,
		Action: changesAction,
	}
}

func changesAction(c *cli.Context) error {
	if top := c.Int("top"); top < 0 {
		return fmt.Errorf("--top must not be negative, got %d", top)
	}

	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	from, err := ctx.Resolve(c.String("from"))
	if err != nil {
		return err
	}
	to, err := ctx.Resolve(c.String("to"))
	if err != nil {
		return err
	}

	opts, scope, err := buildHistoryOptions(c.String("project"), c.String("type"), c.String("id"),
		c.StringSlice("include"), c.StringSlice("exclude"))
	if err != nil {
		return err
	}
	reader, err := git.NewHistoryReader(ctx.Repo, opts)
	if err != nil {
		return err
	}

	commits, err := reader.Changes(from, to)
	if err != nil {
		return fmt.Errorf("failed to compare %s with %s: %w", to.Branch, from.Branch, err)
	}

	return writeHistoryReport(c, &output.HistoryReport{
		RepoPath:    ctx.RepoPath,
		Branch:      to.Branch,
		Base:        from.Branch,
		Scope:       scope,
		GeneratedAt: time.Now(),
		Items:       commits,
	})
}
