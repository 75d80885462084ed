// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// apiCommand sends raw JSON-RPC requests
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct JSON-RPC calls to the myMPD API",
		Commands: []*cli.Command{
			{
				Name:  "call",
				Usage: "Call a method and print the reply envelope",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "method",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "params",
						Usage: "Method params as a JSON object",
						Value: "{}",
					},
					&cli.BoolFlag{
						Name:  "report-errors",
						Usage: "Report error envelopes as notifications",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
					&cli.StringFlag{
						Name:  "pin",
						Usage: "PIN used to open a session before the call",
					},
				},
				Action: r.APICall,
			},
			{
				Name:  "login",
				Usage: "Open a session with the PIN and validate it",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "pin",
						Usage: "PIN configured on the server",
					},
				},
				Action: r.APILogin,
			},
		},
	}
}

// routeCommand converts between screens and fragments
func routeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "route",
		Usage: "Encode, decode and list navigation fragments",
		Commands: []*cli.Command{
			{
				Name:  "encode",
				Usage: "Print the fragment for an app with optional overrides",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "app",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tab", Usage: "Tab name"},
					&cli.StringFlag{Name: "view", Usage: "View name"},
					&cli.IntFlag{Name: "page", Usage: "Zero based page", Value: -1},
					&cli.StringFlag{Name: "filter", Usage: "Filter tag"},
					&cli.StringFlag{Name: "sort", Usage: "Sort tag, prefix with - for descending"},
					&cli.StringFlag{Name: "tag", Usage: "Grouping tag"},
					&cli.StringFlag{Name: "search", Usage: "Search expression"},
				},
				Action: r.RouteEncode,
			},
			{
				Name:  "decode",
				Usage: "Validate a fragment and print the screen it resolves to",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "fragment",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RouteDecode,
			},
			{
				Name:  "list",
				Usage: "List every screen with its default fragment",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (txt, markdown, csv, json)",
						Value:   "txt",
					},
				},
				Action: r.RouteList,
			},
		},
	}
}

// playerCommand prints the player state
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "player",
		Usage: "Show the current player state",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (txt, markdown, csv, json)",
				Value:   "txt",
			},
		},
		Action: r.Player,
	}
}

// watchCommand streams push events
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Stream websocket push events until interrupted",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "kind",
				Usage: "Only print events of these kinds (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print each event as a JSON line",
			},
		},
		Action: r.Watch,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive client",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "fragment",
			},
		},
		Action: r.TUI,
	}
}

// notificationsCommand reads the persisted notification log
func notificationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "notifications",
		Aliases: []string{"notes"},
		Usage:   "Print persisted notification history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (txt, markdown, csv, json)",
				Value:   "txt",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "severity",
				Usage: "Only show entries with this severity",
			},
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Delete the history after printing it",
			},
		},
		Action: r.Notifications,
	}
}

// mockCommand runs the development backend
func mockCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "mock",
		Usage: "Run a mock myMPD server for development",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, defaults to the [mock] config section",
			},
			&cli.StringFlag{
				Name:  "pin",
				Usage: "Require this PIN for protected methods",
			},
			&cli.BoolFlag{
				Name:  "tick",
				Usage: "Advance playback once per second",
				Value: true,
			},
		},
		Action: r.Mock,
	}
}

// openCommand opens the myMPD web UI
func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "open",
		Usage: "Open the myMPD web interface in a browser",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "fragment",
			},
		},
		Action: r.Open,
	}
}
