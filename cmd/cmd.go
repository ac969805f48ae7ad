// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/songbook/internal/formatter"
	"github.com/urfave/cli/v3"
)

// songFlags are shared by "songs add" and "songs update".
func songFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Song title", Required: required},
		&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Artist name", Required: required},
		&cli.StringFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Genre name", Required: required},
		&cli.StringFlag{Name: "release-date", Aliases: []string{"d"}, Usage: "Release date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "lyrics", Usage: "Lyrics text"},
		&cli.StringFlag{Name: "lyrics-file", Usage: "Read lyrics from a file"},
		&cli.FloatFlag{Name: "rating", Aliases: []string{"r"}, Usage: "Rating from 0 to 10"},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and storage",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create the config file if missing and ensure the storage schema exists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// songsCommand handles catalog CRUD and bulk operations
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "songs",
		Aliases: []string{"song", "s"},
		Usage:   "Manage songs in the catalog",
		Commands: []*cli.Command{
			{
				Name:   "add",
				Usage:  "Add a song, creating its artist and genre on first use",
				Flags:  songFlags(true),
				Action: r.SongsAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List every song",
				Flags:   outputFlags(),
				Action:  r.SongsList,
			},
			{
				Name:      "show",
				Usage:     "Show one song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     outputFlags(),
				Action:    r.SongsShow,
			},
			{
				Name:      "update",
				Usage:     "Update a song; omitted flags keep their current values",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     songFlags(false),
				Action:    r.SongsUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SongsDelete,
			},
			{
				Name:  "export",
				Usage: "Export the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: " + strings.Join(formatter.Formats, ", "),
						Value:   formatter.FormatCSV,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: stdout)",
					},
				},
				Action: r.SongsExport,
			},
			{
				Name:  "import",
				Usage: "Import songs from a CSV file with title, artist, genre, release_date, lyrics, rating columns",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "CSV file to import",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers (default from config)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Maximum songs created per second (default from config)",
					},
				},
				Action: r.SongsImport,
			},
		},
	}
}

func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Count songs, artists and genres",
		Flags:  outputFlags(),
		Action: r.Stats,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the catalog over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default from config)"},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive catalog browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive song browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to log while the TUI owns the terminal",
				Value: "./tmp/songbook-tui.log",
			},
		},
		Action: r.TUI,
	}
}

func trendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "trend",
		Usage:     "Buy/sell/hold signal from a price history (oldest first)",
		ArgsUsage: "[PRICE...]",
		Flags: append([]cli.Flag{
			&cli.FloatFlag{Name: "current", Usage: "Current price", Required: true},
			&cli.StringFlag{Name: "ticker", Usage: "Read stored history for this ticker before any PRICE arguments"},
			&cli.BoolFlag{Name: "record", Usage: "Store --current in the ticker's history after analysis"},
			&cli.IntFlag{Name: "days", Value: 30, Usage: "How many days of stored history to read"},
		}, outputFlags()...),
		Action: r.Trend,
	}
}
