// Package cli provides the command-line interface for browsing the hardware
// and firmware catalog and recording owned hardware.
// It supports YAML configuration files and falls back to defaults when none exists.
package cli

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/clean-dependency-project/peardb/internal/config"
)

// NewApp creates and configures the main CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:     "peardb",
		Usage:    "Browse the Apple hardware and firmware catalog and track owned devices",
		Version:  "1.0.0",
		Compiled: time.Now(),
		Authors: []*cli.Author{
			{
				Name:  "Clean Dependency Project",
				Email: "info@example.com",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultPath(),
				Usage:   "path to configuration file",
				EnvVars: []string{"PEARDB_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				EnvVars: []string{"PEARDB_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "log format (text, json)",
				EnvVars: []string{"PEARDB_LOG_FORMAT"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "overwrite an existing configuration file",
					},
				},
				Action: initCommand,
			},
			{
				Name:  "refresh",
				Usage: "Download the catalog if the local snapshot is stale",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "download even when the snapshot is fresh",
					},
				},
				Action: refreshCommand,
			},
			{
				Name:   "purge",
				Usage:  "Delete the local catalog snapshot",
				Action: purgeCommand,
			},
			{
				Name:  "status",
				Usage: "Show the state of the local catalog snapshot",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "upstream",
						Usage: "also check the catalog's source repository for new commits",
					},
					&cli.StringFlag{
						Name:    "github-token",
						Usage:   "GitHub token for the upstream check",
						EnvVars: []string{"GITHUB_TOKEN"},
					},
					outputFlag(),
				},
				Action: statusCommand,
			},
			{
				Name:  "devices",
				Usage: "List catalog devices",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "case-insensitive substring of the device name",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "only devices of this category (e.g., \"iPad Pro\")",
					},
					outputFlag(),
				},
				Action: devicesCommand,
			},
			{
				Name:      "device",
				Usage:     "Show one device by key or identifier",
				ArgsUsage: "<key>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "remote",
						Usage: "fetch the device document from the API instead of the snapshot",
					},
					outputFlag(),
				},
				Action: deviceCommand,
			},
			{
				Name:  "firmware",
				Usage: "List catalog firmware, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "case-insensitive substring of \"<os> <version>\"",
					},
					&cli.StringFlag{
						Name:  "os",
						Usage: "only firmware of this OS family (e.g., iOS)",
					},
					&cli.StringFlag{
						Name:  "device",
						Usage: "only firmware for this device key or identifier",
					},
					outputFlag(),
				},
				Action: firmwareCommand,
			},
			{
				Name:  "categories",
				Usage: "List device categories",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "common",
						Usage: "only the everyday categories",
					},
					outputFlag(),
				},
				Action: categoriesCommand,
			},
			hardwareCommand(),
		},
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Value:   "text",
		Usage:   "output format (text, json)",
	}
}
