package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tapedeck/internal/audio"
	"github.com/desertthunder/tapedeck/internal/formatter"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/repositories"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// LibraryImport copies local audio files into the blob store and adds a track for each.
//
// Tags fill in title, composer, album and genre; the duration is measured from the audio.
func (r *Runner) LibraryImport(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one file path is required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	var playlist *models.Playlist
	if id := cmd.String("playlist"); id != "" {
		if playlist, err = store.Playlists.Get(id); err != nil {
			return err
		}
	}

	imported := 0
	for _, path := range paths {
		track, err := r.importFile(store, path)
		if err != nil {
			r.logger.Error("import failed", "path", path, "error", err)
			r.writePlain("✗ %s: %v\n", path, err)
			continue
		}
		imported++
		r.writePlain("✓ %s (%s, %s)\n", track.Title, track.ID, shared.FormatDuration(track.Duration))
		if playlist != nil {
			playlist.Add(track.ID)
		}
	}

	if playlist != nil && imported > 0 {
		if err := store.SavePlaylist(playlist); err != nil {
			return err
		}
	}

	r.writePlainln("Imported %d of %d files", imported, len(paths))
	if imported == 0 {
		return fmt.Errorf("%w: no files imported", shared.ErrInvalidInput)
	}
	return nil
}

func (r *Runner) importFile(store *repositories.Store, path string) (*models.Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	md, err := audio.Probe(data, path)
	if err != nil {
		return nil, err
	}

	blobID, err := store.PutBlob(data, md.MimeType)
	if err != nil {
		return nil, err
	}

	track := models.NewTrack(md.Title, models.LocalBlob{BlobID: blobID})
	track.Composer = md.Composer
	track.Album = md.Album
	track.Genre = md.Genre
	track.Duration = md.Duration

	if err := store.SaveTrack(track); err != nil {
		if derr := store.DeleteBlob(blobID); derr != nil {
			r.logger.Warn("failed to delete orphaned blob", "blob_id", blobID, "error", derr)
		}
		return nil, err
	}

	r.logger.Debug("imported track", "id", track.ID, "path", path, "blob_id", blobID)
	return track, nil
}

// LibraryAdd adds a track that streams from a URL or lives on the cloud drive.
func (r *Runner) LibraryAdd(ctx context.Context, cmd *cli.Command) error {
	title := cmd.String("title")
	rawURL := cmd.String("url")
	fileID := cmd.String("cloud")

	var src models.Source
	switch {
	case rawURL != "" && fileID != "":
		return fmt.Errorf("%w: cannot specify both --url and --cloud", shared.ErrInvalidArgument)
	case rawURL != "":
		src = models.RemoteURL{URL: rawURL}
	case fileID != "":
		src = models.CloudRef{Provider: r.config.Cloud.Provider, FileID: fileID}
		if title == "" {
			if svc := r.cloudService(ctx); svc != nil {
				meta, err := svc.Metadata(ctx, fileID)
				if err != nil {
					return fmt.Errorf("failed to read cloud metadata: %w", err)
				}
				title = meta.Name
			}
		}
	default:
		return fmt.Errorf("%w: either --url or --cloud must be provided", shared.ErrMissingArgument)
	}
	if title == "" {
		return fmt.Errorf("%w: --title is required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	track := models.NewTrack(title, src)
	track.Composer = cmd.String("composer")
	track.Album = cmd.String("album")
	track.Duration = cmd.Float("duration")

	if err := store.SaveTrack(track); err != nil {
		return err
	}
	r.writePlain("✓ Added %s (%s)\n", track.Title, track.ID)
	return nil
}

// LibraryList prints every track in library order.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}

	tracks, err := store.GetAllTracks()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Library (%d tracks)", len(tracks)))
	for i, t := range tracks {
		r.writePlain("%3d. %s  %s", i+1, t.ID, t.Title)
		if t.Composer != "" {
			r.writePlain(" - %s", t.Composer)
		}
		r.writePlain("  [%s, %s", shared.FormatDuration(t.Duration), sourceLabel(t.Source))
		if t.Offline {
			r.writePlain(", offline")
		}
		r.writePlain("]\n")
	}
	return nil
}

// LibraryShow prints one track in detail.
func (r *Runner) LibraryShow(ctx context.Context, cmd *cli.Command) error {
	track, err := r.track(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(track, true)
	}

	r.writePlainHeader(track.Title)
	r.writePlain("ID:       %s\n", track.ID)
	r.writePlain("Composer: %s\n", track.Composer)
	r.writePlain("Album:    %s\n", track.Album)
	r.writePlain("Genre:    %s\n", track.Genre)
	r.writePlain("Duration: %s\n", shared.FormatDuration(track.Duration))
	r.writePlain("Source:   %s %s\n", sourceLabel(track.Source), formatter.Location(track.Source))
	r.writePlain("Gain:     %.2f\n", track.Gain)
	r.writePlain("Offline:  %v\n", track.Offline)
	if len(track.CuePoints) > 0 {
		cues := make([]string, len(track.CuePoints))
		for i, c := range track.CuePoints {
			cues[i] = shared.FormatDuration(c)
		}
		r.writePlain("Cues:     %s\n", strings.Join(cues, ", "))
	}
	if track.Trim.Start > 0 || track.Trim.End > 0 {
		r.writePlain("Trim:     %s - %s\n", shared.FormatDuration(track.Trim.Start), shared.FormatDuration(track.EndTime()))
	}
	return nil
}

// LibraryDelete removes a track and the blobs it owns.
func (r *Runner) LibraryDelete(ctx context.Context, cmd *cli.Command) error {
	track, err := r.track(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	store, _ := r.openStore()

	if err := store.DeleteTrack(track.ID); err != nil {
		return err
	}

	owned := []string{track.OfflineBlobID}
	if src, ok := track.Source.(models.LocalBlob); ok {
		owned = append(owned, src.BlobID)
	}
	for _, id := range owned {
		if id == "" {
			continue
		}
		if err := store.DeleteBlob(id); err != nil && !errors.Is(err, shared.ErrBlobNotFound) {
			r.logger.Warn("failed to delete blob", "blob_id", id, "error", err)
		}
	}

	r.writePlain("✓ Deleted %s\n", track.Title)
	return nil
}

// LibraryExport writes the library, playlists, folders and presets to a file.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	export, err := r.libraryExport()
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(export, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("library exported", "path", path, "tracks", len(export.Tracks))
	r.writePlain("✓ Exported %d tracks to %s\n", len(export.Tracks), path)
	return nil
}

func (r *Runner) libraryExport() (*formatter.LibraryExport, error) {
	store, err := r.openStore()
	if err != nil {
		return nil, err
	}

	tracks, err := store.GetAllTracks()
	if err != nil {
		return nil, err
	}
	folders, err := store.GetFolders()
	if err != nil {
		return nil, err
	}
	playlists, err := store.GetPlaylists()
	if err != nil {
		return nil, err
	}
	presets, err := store.GetPresets()
	if err != nil {
		return nil, err
	}
	return formatter.NewLibraryExport(tracks, folders, playlists, presets), nil
}

// LibraryRestore loads a JSON export, inserting or updating every entity it contains.
//
// Audio bytes are not part of an export; local tracks need their blobs to be present.
func (r *Runner) LibraryRestore(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: export path is required", shared.ErrMissingArgument)
	}

	export, err := formatter.ReadExport(path)
	if err != nil {
		return err
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	for i := range export.Tracks {
		if err := store.SaveTrack(&export.Tracks[i]); err != nil {
			return err
		}
	}
	for i := range export.Folders {
		if err := store.SaveFolder(&export.Folders[i]); err != nil {
			return err
		}
	}
	for i := range export.Playlists {
		if err := store.SavePlaylist(&export.Playlists[i]); err != nil {
			return err
		}
	}
	for i := range export.Presets {
		if err := store.SavePreset(&export.Presets[i]); err != nil {
			return err
		}
	}

	r.writePlain("✓ Restored %d tracks, %d folders, %d playlists, %d presets\n",
		len(export.Tracks), len(export.Folders), len(export.Playlists), len(export.Presets))
	return nil
}

// LibraryCue replaces the cue points of a track.
func (r *Runner) LibraryCue(ctx context.Context, cmd *cli.Command) error {
	return r.updateTrack(cmd.StringArg("id"), func(t *models.Track) error {
		return t.SetCuePoints(cmd.FloatSlice("at"))
	})
}

// LibraryTrim sets the playable window of a track. An end of 0 plays to the end.
func (r *Runner) LibraryTrim(ctx context.Context, cmd *cli.Command) error {
	return r.updateTrack(cmd.StringArg("id"), func(t *models.Track) error {
		return t.SetTrim(cmd.Float("start"), cmd.Float("end"))
	})
}

// LibraryGain sets the per-track level used when no session override is active.
func (r *Runner) LibraryGain(ctx context.Context, cmd *cli.Command) error {
	return r.updateTrack(cmd.StringArg("id"), func(t *models.Track) error {
		v := cmd.Float("value")
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: gain must be within [0, 1]", shared.ErrInvalidArgument)
		}
		t.Gain = v
		return nil
	})
}

func (r *Runner) updateTrack(id string, fn func(*models.Track) error) error {
	track, err := r.track(id)
	if err != nil {
		return err
	}
	if err := fn(track); err != nil {
		return err
	}

	store, _ := r.openStore()
	if err := store.SaveTrack(track); err != nil {
		return err
	}
	r.writePlain("✓ Updated %s\n", track.Title)
	return nil
}

func (r *Runner) track(id string) (*models.Track, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: track id is required", shared.ErrMissingArgument)
	}
	store, err := r.openStore()
	if err != nil {
		return nil, err
	}
	return store.GetTrack(id)
}

func sourceLabel(src models.Source) string {
	if kind := models.KindOf(src); kind != models.SourceNone {
		return string(kind)
	}
	return "none"
}
