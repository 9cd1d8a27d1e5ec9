package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sessgauge/internal/infra/buildinfo"
)

// App creates the CLI application. Without a command it runs the server.
func App() *cli.App {
	return &cli.App{
		Name:    "sessgauge-server",
		Usage:   "Embedded HTTP session server with session metrics",
		Version: buildinfo.Get().Version,
		Flags:   globalFlags(),
		Action:  runServe,
		Commands: []*cli.Command{
			ServeCommand(),
			ConfigCommand(),
			StatsCommand(),
			VersionCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML configuration file",
			EnvVars: []string{"SESSGAUGE_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Listen address, overrides server.addr",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: json, text",
		},
	}
}

// flagOverrides maps set global flags onto configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	keys := map[string]string{
		"addr":       "server.addr",
		"log-level":  "log.level",
		"log-format": "log.format",
	}
	out := make(map[string]any)
	for flag, key := range keys {
		if c.IsSet(flag) {
			out[key] = c.String(flag)
		}
	}
	return out
}

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(c *cli.Context) error {
			_, err := fmt.Fprintf(c.App.Writer, "sessgauge-server %s\n", buildinfo.String())
			return err
		},
	}
}
