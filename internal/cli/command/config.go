package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sessgauge/internal/cli/output"
	"github.com/yndnr/sessgauge/internal/infra/confloader"
	"github.com/yndnr/sessgauge/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Subcommands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Validate the configuration and print the effective values",
				Action: configCheck,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output format: yaml, json",
						Value:   string(output.FormatYAML),
					},
				},
			},
		},
	}
}

func configCheck(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"), output.FormatYAML)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		return fmt.Errorf("config check prints yaml or json")
	}

	cfg, _, err := loadConfig(c.String("config"), flagOverrides(c))
	if err != nil {
		return err
	}
	if err := output.Encode(c.App.Writer, format, config.Sanitize(cfg)); err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.ErrWriter, "configuration OK")
	return err
}

// loadConfig loads, normalizes and verifies the configuration.
func loadConfig(path string, overrides map[string]any) (*config.ServerConfig, *confloader.Loader, error) {
	var opts []confloader.Option
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	loader := confloader.NewLoader(opts...)
	if err := loader.LoadMap(overrides); err != nil {
		return nil, nil, err
	}

	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	config.Normalize(cfg)
	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, loader, nil
}
