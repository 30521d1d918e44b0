// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "Override the database path from config",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
			Value: "info",
		},
	}
}

// setupCommand initializes local state
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the default config.toml",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "migrations",
				Usage: "Show applied and pending migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SetupMigrations,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// feedCommand manages the stored feed
func feedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "Manage feed items",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Append a video to the feed",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Aliases:  []string{"u"},
						Usage:    "Video source URL",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "poster",
						Usage: "Poster image URL",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Display title",
					},
					&cli.StringFlag{
						Name:  "author",
						Usage: "Author handle",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.FeedAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List feed items in scroll order",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "author",
						Usage: "Only items by this author",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of items to return",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.FeedList,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Remove an item from the feed",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Feed item ID",
						Required: true,
					},
				},
				Action: r.FeedRemove,
			},
			{
				Name:  "import",
				Usage: "Append items from a JSON array file",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Action: r.FeedImport,
			},
			{
				Name:  "export",
				Usage: "Export the feed as csv, md, txt or json",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (csv, md, txt, json)",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (defaults to feed.<format>)",
					},
				},
				Action: r.FeedExport,
			},
		},
	}
}

// preloadCommand drives the preload window from the command line
func preloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "preload",
		Usage: "Run preload window passes against the stored feed",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run one pass at an index and print item status",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "index",
						Aliases: []string{"i"},
						Usage:   "Current feed position",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PreloadRun,
			},
			{
				Name:  "walk",
				Usage: "Scroll from one index to another, one pass per position",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "from",
						Usage: "Starting index",
					},
					&cli.IntFlag{
						Name:     "to",
						Usage:    "Final index",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "dwell",
						Usage: "Pause at each position, as a viewer would",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PreloadWalk,
			},
			{
				Name:  "history",
				Usage: "Show recorded preload outcomes",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of events",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "outcome",
						Usage: "Only events with this outcome (can_play_through, buffered, timeout, error)",
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "Only events for this source URL",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PreloadHistory,
			},
		},
	}
}

// serveCommand starts the status server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve window status over HTTP and websocket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand launches the interactive feed browser
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse the feed with live preload status",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/reelx-tui.log",
			},
		},
		Action: r.TUI,
	}
}
