package cmd

import (
	"fmt"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/masmgr/content-gateway/config"
)

// ConfigCmd returns the config command.
func ConfigCmd() *cli.Command {
	flags := append(repoFlags(),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Print format (json, yaml)",
			Value:   "yaml",
		},
		&cli.StringFlag{
			Name:    "write",
			Aliases: []string{"w"},
			Usage:   "Write the effective configuration to this file instead of printing it",
		},
	)

	return &cli.Command{
		Name:   "config",
		Usage:  "Print or write the effective configuration",
		Flags:  flags,
		Action: configAction,
	}
}

func configAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if path := c.String("write"); path != "" {
		if err := config.SaveConfig(cfg, path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		color.Green("Configuration written to %s", path)
		return nil
	}

	var data []byte
	switch c.String("format") {
	case "json":
		data, err = jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(cfg, "", "  ")
	case "yaml", "yml":
		data, err = yaml.Marshal(cfg)
	default:
		return fmt.Errorf("unknown format %q (expected json or yaml)", c.String("format"))
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s\n", data)
	return err
}
