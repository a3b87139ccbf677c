// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}
}

// libraryCommand handles track management
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Manage the track library",
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import local MP3 or WAV files into the library",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Playlist ID to append imported tracks to",
					},
				},
				Action: r.LibraryImport,
			},
			{
				Name:  "add",
				Usage: "Add a cloud or remote track",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Track title (defaults to the cloud file name)",
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "HTTP(S) URL of the audio",
					},
					&cli.StringFlag{
						Name:  "cloud",
						Usage: "Cloud drive file ID",
					},
					&cli.StringFlag{
						Name:  "composer",
						Usage: "Composer",
					},
					&cli.StringFlag{
						Name:  "album",
						Usage: "Album",
					},
					&cli.FloatFlag{
						Name:  "duration",
						Usage: "Duration in seconds",
					},
				},
				Action: r.LibraryAdd,
			},
			{
				Name:   "list",
				Usage:  "List library tracks",
				Flags:  outputFlags(),
				Action: r.LibraryList,
			},
			{
				Name:  "show",
				Usage: "Show one track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  outputFlags(),
				Action: r.LibraryShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a track and its stored audio",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.LibraryDelete,
			},
			{
				Name:  "export",
				Usage: "Export the library",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (json, yaml, csv, markdown, text)",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.LibraryExport,
			},
			{
				Name:  "restore",
				Usage: "Restore tracks, folders, playlists and presets from a JSON export",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.LibraryRestore,
			},
			{
				Name:  "cue",
				Usage: "Set a track's cue points",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.FloatSliceFlag{
						Name:  "at",
						Usage: "Cue point in seconds (repeatable)",
					},
				},
				Action: r.LibraryCue,
			},
			{
				Name:  "trim",
				Usage: "Set a track's trim window",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.FloatFlag{
						Name:  "start",
						Usage: "Start offset in seconds",
					},
					&cli.FloatFlag{
						Name:  "end",
						Usage: "End offset in seconds (0 plays to the end)",
					},
				},
				Action: r.LibraryTrim,
			},
			{
				Name:  "gain",
				Usage: "Set a track's stored volume",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.FloatFlag{
						Name:     "value",
						Usage:    "Volume between 0 and 1",
						Required: true,
					},
				},
				Action: r.LibraryGain,
			},
		},
	}
}

// playlistCommand handles playlist operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Manage playlists",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an empty playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:   "list",
				Usage:  "List playlists",
				Flags:  outputFlags(),
				Action: r.PlaylistList,
			},
			{
				Name:      "add",
				Usage:     "Append tracks to a playlist",
				ArgsUsage: "PLAYLIST_ID TRACK_ID...",
				Action:    r.PlaylistAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a track from a playlist",
				ArgsUsage: "PLAYLIST_ID TRACK_ID",
				Action:    r.PlaylistRemove,
			},
			{
				Name:  "delete",
				Usage: "Delete a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.PlaylistDelete,
			},
		},
	}
}

// folderCommand handles folder operations
func folderCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "folder",
		Usage: "Manage folders",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a folder",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "parent",
						Usage: "Parent folder ID",
					},
				},
				Action: r.FolderCreate,
			},
			{
				Name:   "list",
				Usage:  "Show the folder tree",
				Flags:  outputFlags(),
				Action: r.FolderList,
			},
			{
				Name:      "add",
				Usage:     "File tracks into a folder",
				ArgsUsage: "FOLDER_ID TRACK_ID...",
				Action:    r.FolderAdd,
			},
			{
				Name:  "delete",
				Usage: "Delete a folder",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.FolderDelete,
			},
		},
	}
}

// cloudCommand handles cloud drive operations
func cloudCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cloud",
		Usage: "Browse the cloud drive",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List audio files in a cloud folder",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "folder"},
				},
				Flags:  outputFlags(),
				Action: r.CloudList,
			},
			{
				Name:  "add",
				Usage: "Add every audio file in a cloud folder to the library",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "folder"},
				},
				Action: r.CloudAdd,
			},
		},
	}
}

func downloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent downloads (defaults to the config value)",
		},
		&cli.FloatFlag{
			Name:  "rate-limit",
			Usage: "Downloads started per second (defaults to the config value)",
		},
		&cli.StringFlag{
			Name:  "manifest",
			Usage: "Write a JSON manifest of the results to this path",
		},
	}
}

// offlineCommand handles offline copies
func offlineCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "offline",
		Usage: "Manage offline copies of cloud and remote tracks",
		Commands: []*cli.Command{
			{
				Name:      "download",
				Usage:     "Download offline copies of tracks",
				ArgsUsage: "[TRACK_ID...]",
				Flags: append(downloadFlags(), &cli.BoolFlag{
					Name:  "all",
					Usage: "Download every pending track",
				}),
				Action: r.OfflineDownload,
			},
			{
				Name:   "sync",
				Usage:  "Download every track without an offline copy",
				Flags:  downloadFlags(),
				Action: r.OfflineSync,
			},
			{
				Name:      "remove",
				Usage:     "Drop offline copies",
				ArgsUsage: "TRACK_ID...",
				Action:    r.OfflineRemove,
			},
			{
				Name:   "status",
				Usage:  "Show offline coverage and storage use",
				Flags:  outputFlags(),
				Action: r.OfflineStatus,
			},
		},
	}
}

// presetCommand handles effect presets
func presetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "preset",
		Usage: "Manage effect presets",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List presets",
				Flags:  outputFlags(),
				Action: r.PresetList,
			},
			{
				Name:  "save",
				Usage: "Save a preset (an existing name is overwritten)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "environment",
						Aliases: []string{"e"},
						Usage:   "Environment (none, small-room, cathedral, temple)",
					},
					&cli.FloatFlag{Name: "reverb-mix", Usage: "Reverb wet level (0-1)"},
					&cli.FloatFlag{Name: "reverb-decay", Usage: "Reverb decay in seconds"},
					&cli.FloatFlag{Name: "delay-mix", Usage: "Delay wet level (0-1)"},
					&cli.FloatFlag{Name: "delay-time", Usage: "Delay time in seconds"},
					&cli.FloatFlag{Name: "delay-feedback", Usage: "Delay feedback (0-0.95)"},
					&cli.FloatFlag{Name: "distortion", Usage: "Distortion amount (0-1)"},
					&cli.FloatFlag{Name: "bass-boost", Usage: "Bass boost in dB (0-12)"},
					&cli.BoolFlag{Name: "normalize", Usage: "Enable the compressor"},
				},
				Action: r.PresetSave,
			},
			{
				Name:  "delete",
				Usage: "Delete a preset",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.PresetDelete,
			},
		},
	}
}

func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "playlist",
			Usage: "Queue a playlist instead of the whole library",
		},
		&cli.StringFlag{
			Name:  "folder",
			Usage: "Queue a folder instead of the whole library",
		},
		&cli.StringFlag{
			Name:  "preset",
			Usage: "Preset ID to load at start",
		},
		&cli.BoolFlag{
			Name:  "offline",
			Usage: "Fail cloud tracks that have no offline copy instead of fetching them; URL tracks still stream",
		},
	}
}

// playCommand launches the interactive player
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "play",
		Usage:  "Launch the interactive player",
		Flags:  sessionFlags(),
		Action: r.Play,
	}
}

// serveCommand runs the HTTP control surface
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the player behind a local HTTP API",
		Flags: append(sessionFlags(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (defaults to the config value)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (defaults to the config value)",
			},
		),
		Action: r.Serve,
	}
}
