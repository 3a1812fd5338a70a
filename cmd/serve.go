package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/masmgr/content-gateway/internal/git"
	"github.com/masmgr/content-gateway/internal/logging"
	"github.com/masmgr/content-gateway/internal/server"
)

// ServeCmd returns the serve command.
func ServeCmd() *cli.Command {
	flags := append(repoFlags(),
		&cli.StringFlag{
			Name:  "host",
			Usage: "Interface to listen on",
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "Port to listen on",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error, none)",
		},
		&cli.BoolFlag{
			Name:  "no-metrics",
			Usage: "Disable the /metrics endpoint",
		},
	)

	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve content branches over a read-only HTTP API",
		Flags:  flags,
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Console)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	defer func() { _ = logger.Sync() }()

	source := git.PathSource(cfg.Content.RepoPath)
	// Fail before binding when the repository cannot be opened at all.
	if _, err := source.Open(); err != nil {
		return err
	}

	srv, err := server.New(*cfg, source, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	color.Green("Content gateway on http://%s", cfg.Server.Addr())
	fmt.Printf("Repository: %s\n", cfg.Content.RepoPath)
	fmt.Printf("Branches: %v (default %s)\n", cfg.Content.Branches, cfg.Content.DefaultBranch)
	fmt.Printf("API description: http://%s/doc, browse at http://%s/ui\n", cfg.Server.Addr(), cfg.Server.Addr())

	err = srv.ListenAndServe(ctx)
	var inUse *server.PortInUseError
	if errors.As(err, &inUse) {
		logger.Error("cannot bind", zap.String("addr", inUse.Addr), zap.Error(inUse.Err))
		return cli.Exit(color.RedString("port already in use: %s", inUse.Addr), 1)
	}
	return err
}
