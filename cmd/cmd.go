// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags(prettyDefault bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: prettyDefault,
		},
	}
}

func transcodeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "format",
			Usage: "Transcode format requested from the server (\"raw\" for the original file)",
		},
		&cli.IntFlag{
			Name:  "max-bit-rate",
			Usage: "Bit rate cap in kbps requested from the server",
		},
	}
}

// setupCommand handles setup operations for configuration and the library cache.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example configuration file to the config path",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the library cache and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// pingCommand checks the server connection.
func pingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "ping",
		Usage:  "Check that the server is reachable and accepts the configured credentials",
		Flags:  jsonFlags(true),
		Action: r.Ping,
	}
}

// albumsCommand lists one page of albums.
func albumsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "albums",
		Usage: "List albums on the server",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "List ordering: random, newest, highest, frequent, recent, alphabeticalByName, alphabeticalByArtist, starred",
				Value:   "alphabeticalByName",
			},
			&cli.IntFlag{
				Name:    "size",
				Aliases: []string{"n"},
				Usage:   "Albums per page (1-500)",
				Value:   10,
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Albums to skip",
			},
			&cli.StringFlag{
				Name:  "folder",
				Usage: "Music folder ID",
			},
		}, jsonFlags(false)...),
		Action: r.Albums,
	}
}

// albumCommand shows an album and its tracks.
func albumCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "album",
		Usage:     "Show an album and its tracks",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags:     jsonFlags(true),
		Action:    r.Album,
	}
}

// songCommand shows a single song.
func songCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "song",
		Usage:     "Show a song",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags:     jsonFlags(true),
		Action:    r.Song,
	}
}

// streamCommand handles operations that read song audio.
func streamCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stream",
		Usage: "Read song audio from the server",
		Commands: []*cli.Command{
			{
				Name:      "download",
				Usage:     "Download songs by ID, or every song of an album",
				ArgsUsage: "[song-id...]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "album",
						Usage: "Download every song of this album",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: knuckles_download_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent downloads (max 8)",
						Value: 2,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Streams opened per second",
						Value: 2,
					},
					&cli.BoolFlag{
						Name:  "manifest",
						Usage: "Write a JSON manifest next to the songs",
					},
				}, transcodeFlags()...),
				Action: r.StreamDownload,
			},
			{
				Name:      "probe",
				Usage:     "Sniff a song's container format, fetching only the bytes needed",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     append(transcodeFlags(), jsonFlags(true)...),
				Action:    r.StreamProbe,
			},
		},
	}
}

// cacheCommand handles the local library cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Mirror album and song metadata into the local cache",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Fetch every album from the server and cache it",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Album list ordering used while paging",
						Value:   "alphabeticalByName",
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Albums per list request (max 500)",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Albums fetched at once (max 16)",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Stop after this many albums (0 for all)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Fetch and count without writing to the cache",
					},
				},
				Action: r.CacheSync,
			},
			{
				Name:  "list",
				Usage: "List cached albums",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of albums to list (0 for all)",
					},
				}, jsonFlags(false)...),
				Action: r.CacheList,
			},
			{
				Name:      "show",
				Usage:     "Show a cached album and its tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(true),
				Action:    r.CacheShow,
			},
		},
	}
}

// exportCommand writes album metadata to files.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export an album's metadata and tracks",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, yaml, csv, markdown, txt",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory",
				Value:   ".",
			},
			&cli.BoolFlag{
				Name:  "cached",
				Usage: "Read the album from the local cache instead of the server",
			},
		},
		Action: r.Export,
	}
}

// serveCommand runs the local HTTP relay.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the library and relay song audio over local HTTP",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default: server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (default: server.port)",
			},
		}, transcodeFlags()...),
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for browsing the library.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI to browse albums and download songs",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Album list ordering",
				Value:   "alphabeticalByName",
			},
			&cli.IntFlag{
				Name:    "size",
				Aliases: []string{"n"},
				Usage:   "Albums to list (max 500)",
				Value:   100,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory albums are downloaded into",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the TUI owns the terminal",
				Value: "./tmp/knuckles-tui.log",
			},
		}, transcodeFlags()...),
		Action: r.TUI,
	}
}
