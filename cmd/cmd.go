// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func formatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, markdown or csv",
			Value:   "text",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

// setupCommand writes a config file and initializes the profile store.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the local profile",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
			},
		},
		Action: r.Setup,
	}
}

// serveCommand runs the token exchange service.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the token exchange, refresh and logout service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to bind (default from config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (default from config)",
			},
		},
		Action: r.Serve,
	}
}

// loginCommand runs the authorization code + PKCE flow.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in with Spotify in the browser",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser redirect",
				Value: 5 * time.Minute,
			},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Sign out and forget the local session",
		Action: r.Logout,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show token service health and the local session",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "events",
				Usage: "Number of recent session events to show (sqlite profiles only)",
				Value: 5,
			},
		},
		Action: r.Status,
	}
}

func refreshCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "refresh",
		Usage:  "Exchange the refresh cookie for a new access token",
		Action: r.Refresh,
	}
}

func meCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "me",
		Usage:  "Show your Spotify profile",
		Flags:  formatFlags(),
		Action: r.Me,
	}
}

// topCommand lists top tracks or artists.
func topCommand(r *Runner) *cli.Command {
	flags := func() []cli.Flag {
		return append([]cli.Flag{
			&cli.StringFlag{
				Name:    "range",
				Aliases: []string{"r"},
				Usage:   "Time range: short (4 weeks), medium (6 months) or long (all time)",
				Value:   "medium",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of items (max 50)",
				Value:   20,
			},
		}, formatFlags()...)
	}

	return &cli.Command{
		Name:  "top",
		Usage: "Your most listened tracks and artists",
		Commands: []*cli.Command{
			{
				Name:   "tracks",
				Usage:  "List top tracks",
				Flags:  flags(),
				Action: r.TopTracks,
			},
			{
				Name:   "artists",
				Usage:  "List top artists",
				Flags:  flags(),
				Action: r.TopArtists,
			},
		},
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List your playlists",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of playlists to return",
				Value:   50,
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Index of the first playlist",
			},
		}, formatFlags()...),
		Action: r.Playlists,
	}
}

func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Show a track with its audio features and insights",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  formatFlags(),
		Action: r.Track,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search Spotify for tracks and artists",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum results per type",
				Value:   10,
			},
		}, formatFlags()...),
		Action: r.Search,
	}
}

func chartCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "Show the top five tracks for a period",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "period",
				Usage: "week, month, 6months or year",
				Value: "month",
			},
		}, formatFlags()...),
		Action: r.Chart,
	}
}

// tuiCommand returns the top-level TUI command for the interactive dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive stats dashboard",
		Action:  r.TUI,
	}
}
