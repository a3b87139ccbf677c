package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tapedeck/internal/audio"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/player"
	"github.com/desertthunder/tapedeck/internal/server"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/desertthunder/tapedeck/internal/ui"
)

// Play launches the interactive player.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tapedeck-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine, err := r.startEngine(ctx, cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	p := tea.NewProgram(ui.NewModel(ctx, engine), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// Serve runs the engine behind the local HTTP control surface until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		r.config.Server.Port = port
	}

	engine, err := r.startEngine(ctx, cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	logger := shared.WithLogger(r.logger, "component", "server")
	go func() {
		for n := range engine.Notifications() {
			if n.Err != nil {
				logger.Warn("playback notification", "kind", n.Kind, "track", n.TrackID, "error", n.Err)
				continue
			}
			logger.Info("playback notification", "kind", n.Kind, "track", n.TrackID)
		}
	}()

	r.writePlain("Listening on %s:%d\n", r.config.Server.Host, r.config.Server.Port)
	return server.ListenAndServe(ctx, r.config.Server, server.NewPlayerRouter(engine, logger), logger)
}

// startEngine builds an engine on the system speaker, fills its queue and starts watching the config file.
func (r *Runner) startEngine(ctx context.Context, cmd *cli.Command) (*player.Engine, error) {
	engine, err := r.engine(ctx, audio.NewDevice(shared.WithLogger(r.logger, "component", "device")))
	if err != nil {
		return nil, err
	}

	if cmd.Bool("offline") {
		engine.SetOfflineMode(true)
	}
	if name := cmd.String("preset"); name != "" {
		if _, err := engine.LoadPreset(name); err != nil {
			engine.Close()
			return nil, err
		}
	}

	if err := engine.RefreshLibrary(ctx); err != nil {
		engine.Close()
		return nil, err
	}
	tracks, err := r.selection(cmd, engine.Library())
	if err != nil {
		engine.Close()
		return nil, err
	}
	engine.ReplaceQueue(tracks)

	if r.configPath != "" {
		go r.watchPlayback(ctx, engine)
	}

	return engine, nil
}

// playbackApplier takes reloaded playback settings.
type playbackApplier interface {
	ApplyConfig(shared.PlaybackConfig)
}

// watchPlayback hands playback settings from config file edits to target until ctx is done.
// Only the playback section is live; the runner's loaded config is left as it was at startup.
func (r *Runner) watchPlayback(ctx context.Context, target playbackApplier) {
	err := shared.WatchConfig(ctx, r.configPath, r.logger, func(cfg *shared.Config) {
		target.ApplyConfig(cfg.Playback)
	})
	if err != nil {
		r.logger.Warn("config watcher stopped", "path", r.configPath, "error", err)
	}
}

// selection picks the initial queue: a playlist, a folder, or the whole library.
func (r *Runner) selection(cmd *cli.Command, library []models.Track) ([]models.Track, error) {
	var ids []string
	switch {
	case cmd.String("playlist") != "":
		store, err := r.openStore()
		if err != nil {
			return nil, err
		}
		playlist, err := store.Playlists.Get(cmd.String("playlist"))
		if err != nil {
			return nil, err
		}
		ids = playlist.TrackIDs
	case cmd.String("folder") != "":
		store, err := r.openStore()
		if err != nil {
			return nil, err
		}
		folder, err := store.Folders.Get(cmd.String("folder"))
		if err != nil {
			return nil, err
		}
		ids = folder.TrackIDs
	default:
		return library, nil
	}

	byID := make(map[string]models.Track, len(library))
	for _, t := range library {
		byID[t.ID] = t
	}

	tracks := make([]models.Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			tracks = append(tracks, t)
		} else {
			r.logger.Warn("skipping missing track", "track", id)
		}
	}
	return tracks, nil
}
