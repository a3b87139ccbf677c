package main

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// PlaylistCreate creates an empty playlist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	playlist := models.NewPlaylist(name, cmd.String("description"))
	if err := store.SavePlaylist(playlist); err != nil {
		return err
	}
	r.writePlain("✓ Created playlist %s (%s)\n", playlist.Name, playlist.ID)
	return nil
}

// PlaylistList prints every playlist with its track count.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}

	playlists, err := store.GetPlaylists()
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
	for _, p := range playlists {
		r.writePlain("%s  %s (%d tracks)", p.ID, p.Name, len(p.TrackIDs))
		if p.Description != "" {
			r.writePlain(" - %s", p.Description)
		}
		r.writePlain("\n")
	}
	return nil
}

// PlaylistAdd appends tracks to a playlist, skipping ones already present.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("%w: playlist id and at least one track id are required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	playlist, err := store.Playlists.Get(args[0])
	if err != nil {
		return err
	}
	for _, id := range args[1:] {
		if _, err := store.GetTrack(id); err != nil {
			return err
		}
	}

	playlist.Add(args[1:]...)
	if err := store.SavePlaylist(playlist); err != nil {
		return err
	}
	r.writePlain("✓ %s now has %d tracks\n", playlist.Name, len(playlist.TrackIDs))
	return nil
}

// PlaylistRemove drops a track from a playlist.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 2 {
		return fmt.Errorf("%w: playlist id and track id are required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	playlist, err := store.Playlists.Get(args[0])
	if err != nil {
		return err
	}
	if !playlist.Remove(args[1]) {
		return fmt.Errorf("%w: %s is not in %s", shared.ErrTrackNotFound, args[1], playlist.Name)
	}
	if err := store.SavePlaylist(playlist); err != nil {
		return err
	}
	r.writePlain("✓ Removed %s from %s\n", args[1], playlist.Name)
	return nil
}

// PlaylistDelete deletes a playlist. Its tracks stay in the library.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}
	if err := store.DeletePlaylist(id); err != nil {
		return err
	}
	r.writePlain("✓ Deleted playlist %s\n", id)
	return nil
}

// FolderCreate creates a folder, optionally nested under --parent.
func (r *Runner) FolderCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: folder name is required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	folder := models.NewFolder(name, cmd.String("parent"))
	if err := store.SaveFolder(folder); err != nil {
		return err
	}
	r.writePlain("✓ Created folder %s (%s)\n", folder.Name, folder.ID)
	return nil
}

// FolderList prints the folder tree.
func (r *Runner) FolderList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}

	folders, err := store.GetFolders()
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(folders, cmd.Bool("pretty"))
	}

	children := make(map[string][]models.Folder)
	for _, f := range folders {
		children[f.ParentID] = append(children[f.ParentID], f)
	}

	var walk func(parent string, depth int)
	walk = func(parent string, depth int) {
		for _, f := range children[parent] {
			r.writePlain("%s%s  %s (%d tracks)\n", strings.Repeat("  ", depth), f.ID, f.Name, len(f.TrackIDs))
			walk(f.ID, depth+1)
		}
	}

	r.writePlainHeader(fmt.Sprintf("Folders (%d)", len(folders)))
	walk("", 0)
	return nil
}

// FolderAdd files tracks into a folder.
func (r *Runner) FolderAdd(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("%w: folder id and at least one track id are required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	folder, err := store.Folders.Get(args[0])
	if err != nil {
		return err
	}
	for _, id := range args[1:] {
		if _, err := store.GetTrack(id); err != nil {
			return err
		}
	}

	folder.Add(args[1:]...)
	if err := store.SaveFolder(folder); err != nil {
		return err
	}
	r.writePlain("✓ %s now has %d tracks\n", folder.Name, len(folder.TrackIDs))
	return nil
}

// FolderDelete deletes a folder.
func (r *Runner) FolderDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: folder id is required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}
	if err := store.DeleteFolder(id); err != nil {
		return err
	}
	r.writePlain("✓ Deleted folder %s\n", id)
	return nil
}

// CloudList prints the audio files in a cloud drive folder.
func (r *Runner) CloudList(ctx context.Context, cmd *cli.Command) error {
	svc := r.cloudService(ctx)
	if svc == nil {
		return fmt.Errorf("%w: set %s to a cloud access token", shared.ErrMissingCredentials, r.config.Cloud.TokenEnv)
	}

	files, err := svc.ListAudio(ctx, cloudFolder(cmd))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(files, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d audio files)", svc.Name(), len(files)))
	for _, f := range files {
		r.writePlain("%s  %s (%s)\n", f.ID, f.Name, f.MimeType)
	}
	return nil
}

// CloudAdd adds every audio file in a cloud drive folder to the library as a cloud track.
func (r *Runner) CloudAdd(ctx context.Context, cmd *cli.Command) error {
	svc := r.cloudService(ctx)
	if svc == nil {
		return fmt.Errorf("%w: set %s to a cloud access token", shared.ErrMissingCredentials, r.config.Cloud.TokenEnv)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	files, err := svc.ListAudio(ctx, cloudFolder(cmd))
	if err != nil {
		return err
	}

	for _, f := range files {
		title := strings.TrimSuffix(f.Name, path.Ext(f.Name))
		track := models.NewTrack(title, models.CloudRef{Provider: svc.Name(), FileID: f.ID})
		if err := store.SaveTrack(track); err != nil {
			return err
		}
		r.writePlain("✓ %s (%s)\n", track.Title, track.ID)
	}
	r.writePlainln("Added %d cloud tracks", len(files))
	return nil
}

func cloudFolder(cmd *cli.Command) string {
	if folder := cmd.StringArg("folder"); folder != "" {
		return folder
	}
	return "root"
}
