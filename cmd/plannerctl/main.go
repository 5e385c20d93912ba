package main

import (
	"log"
	"os"

	"github.com/frostdev-ops/home-planner-go/pkg/version"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:    "plannerctl",
		Usage:   "maintenance tool for a home planner database",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				EnvVars: []string{"PLANNER_CONFIG"},
				Usage:   "configuration file, defaults to ./configs/config.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "warn",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "add the devices and floors of a YAML catalog",
				ArgsUsage: "<catalog.yaml>",
				Action:    importCommand,
			},
			{
				Name:  "export",
				Usage: "write the planner state as a compressed archive",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "archive path, - for stdout",
						Value:   "-",
					},
				},
				Action: exportCommand,
			},
			{
				Name:      "restore",
				Usage:     "replace the planner state with an archive or JSON snapshot",
				ArgsUsage: "<archive>",
				Action:    restoreCommand,
			},
			{
				Name:      "backup",
				Usage:     "create a backup in the configured backup directory",
				ArgsUsage: "[name]",
				Action:    backupCommand,
			},
			{
				Name:      "score",
				Usage:     "print the scores the devices of a catalog would get",
				ArgsUsage: "<catalog.yaml>",
				Action:    scoreCommand,
			},
			{
				Name:  "token",
				Usage: "issue a bearer token for the API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "subject",
						Value: "plannerctl",
					},
					&cli.DurationFlag{
						Name:  "expiry",
						Usage: "token lifetime, defaults to auth.token_expiry",
					},
				},
				Action: tokenCommand,
			},
			{
				Name:  "discover",
				Usage: "list planner servers advertised on the local network",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Value: defaultBrowseTimeout,
					},
				},
				Action: discoverCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
