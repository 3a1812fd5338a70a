package cmd

import (
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/content-gateway/config"
	"github.com/masmgr/content-gateway/internal/git"
)

// CommandContext holds common state for commands reading the content
// repository.
type CommandContext struct {
	Config   *config.Config
	RepoPath string
	Repo     *gogit.Repository
	Resolver *git.Resolver
}

// NewCommandContext loads configuration and opens the repository.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	repo, err := git.PathSource(cfg.Content.RepoPath).Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	return &CommandContext{
		Config:   cfg,
		RepoPath: cfg.Content.RepoPath,
		Repo:     repo,
		Resolver: git.NewResolver(cfg.Content.DefaultBranch, cfg.Content.Branches),
	}, nil
}

// Resolve resolves a branch name; empty selects the default branch.
func (ctx *CommandContext) Resolve(branch string) (git.Ref, error) {
	return ctx.Resolver.Resolve(ctx.Repo, branch)
}
