package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/content-gateway/internal/codec"
	"github.com/masmgr/content-gateway/internal/content"
	"github.com/masmgr/content-gateway/internal/git"
	"github.com/masmgr/content-gateway/internal/output"
)

// HistoryCmd returns the history command.
func HistoryCmd() *cli.Command {
	flags := append(repoFlags(), scopeFlags()...)
	flags = append(flags, reportFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:    "branch",
			Aliases: []string{"b"},
			Usage:   "Branch to read (default: the deployment's default branch)",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Maximum number of commits (default: from config)",
		},
	)

	return &cli.Command{
		Name:    "history",
		Aliases: []string{"log"},
		Usage:   "Print the decoded commit history of a branch",
		Flags:   flags,
		Action:  historyAction,
	}
}

func historyAction(c *cli.Context) error {
	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	ref, err := ctx.Resolve(c.String("branch"))
	if err != nil {
		return err
	}

	limit := ctx.Config.History.DefaultLimit
	if c.IsSet("limit") {
		limit = c.Int("limit")
	}
	if limit < 1 {
		return fmt.Errorf("limit must be positive, got %d", limit)
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

	commits, more, err := git.Take(reader.History(ref), limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	return writeHistoryReport(c, &output.HistoryReport{
		RepoPath:    ctx.RepoPath,
		Branch:      ref.Branch,
		Scope:       scope,
		GeneratedAt: time.Now(),
		HasMore:     more,
		Items:       commits,
	})
}

// buildHistoryOptions turns scope flags into path globs. scope describes
// the selection for reports.
func buildHistoryOptions(projectID, objectType, objectID string, include, exclude []string) (git.HistoryOptions, string, error) {
	opts := git.HistoryOptions{Include: include, Exclude: exclude}

	if projectID == "" {
		if objectType != "" || objectID != "" {
			return opts, "", fmt.Errorf("--type and --id require --project")
		}
		return opts, "", nil
	}

	var t codec.ObjectType
	if objectType != "" {
		parsed, ok := codec.ParseObjectType(objectType)
		if !ok {
			return opts, "", fmt.Errorf("unknown object type %q", objectType)
		}
		t = parsed
	} else if objectID != "" {
		return opts, "", fmt.Errorf("--id requires --type")
	}

	pattern, err := content.ObjectPattern(projectID, t, objectID)
	if err != nil {
		return opts, "", err
	}
	opts.Include = append([]string{pattern}, include...)
	return opts, pattern, nil
}
