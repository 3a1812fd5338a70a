package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/content-gateway/internal/output"
)

// BranchesCmd returns the branches command.
func BranchesCmd() *cli.Command {
	return &cli.Command{
		Name:   "branches",
		Usage:  "List the recognized branches and the commits they point at",
		Flags:  append(repoFlags(), reportFlags()...),
		Action: branchesAction,
	}
}

func branchesAction(c *cli.Context) error {
	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	branches, err := ctx.Resolver.Branches(ctx.Repo)
	if err != nil {
		return fmt.Errorf("failed to list branches: %w", err)
	}

	return writeBranchReport(c, &output.BranchReport{
		RepoPath:    ctx.RepoPath,
		GeneratedAt: time.Now(),
		Branches:    branches,
	})
}
