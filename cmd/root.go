package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/content-gateway/config"
	"github.com/masmgr/content-gateway/internal/output"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "contentgw",
		Usage:   "Local content gateway for git-backed content repositories",
		Version: "1.0.0",
		Commands: []*cli.Command{
			ServeCmd(),
			HistoryCmd(),
			ChangesCmd(),
			BranchesCmd(),
			ConfigCmd(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (JSON or YAML)",
			},
		},
	}
}

// Common flags shared across commands
func repoFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Path to the content repository",
		},
		&cli.StringFlag{
			Name:  "deployment",
			Usage: "Deployment mode selecting the recognized branches (local, public)",
		},
	}
}

// Flags of commands printing reports
func reportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, ndjson)",
			Value:   "console",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
	}
}

// Flags scoping history to a project, one of its objects, or path globs
func scopeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "project",
			Aliases: []string{"p"},
			Usage:   "Project id to scope history to",
		},
		&cli.StringFlag{
			Name:  "type",
			Usage: "Object type to scope history to (Project, Collection, Entry, Asset)",
		},
		&cli.StringFlag{
			Name:  "id",
			Usage: "Object id to scope history to; requires --type",
		},
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "Glob patterns to include (can be specified multiple times)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob patterns to exclude (can be specified multiple times)",
		},
	}
}

// loadConfig loads configuration from file or defaults, applies CLI
// overrides, and fills deployment defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("repo") {
		cfg.Content.RepoPath = c.String("repo")
	}
	if c.IsSet("deployment") {
		cfg.Server.Deployment = config.Deployment(c.String("deployment"))
		// Branch defaults follow the deployment given on the command line.
		cfg.Content.Branches = nil
		cfg.Content.DefaultBranch = ""
	}
	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("no-metrics") {
		cfg.Server.Metrics = !c.Bool("no-metrics")
	}

	cfg.ApplyDeployment()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OutputOptions creates OutputOptions from CLI flags.
func OutputOptions(c *cli.Context) output.OutputOptions {
	return output.OutputOptions{
		Format:     output.ParseFormat(c.String("format")),
		Top:        c.Int("top"),
		OutputPath: c.String("output"),
	}
}

// Run executes the CLI application.
func Run() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
