package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/desertthunder/tapedeck/internal/tasks"
)

// OfflineDownload stores offline copies of the given tracks, or of every pending track with --all.
func (r *Runner) OfflineDownload(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}

	var selected []models.Track
	if cmd.Bool("all") {
		all, err := store.GetAllTracks()
		if err != nil {
			return err
		}
		selected = tasks.Pending(all)
	} else {
		ids := cmd.Args().Slice()
		if len(ids) == 0 {
			return fmt.Errorf("%w: track ids or --all are required", shared.ErrMissingArgument)
		}
		for _, id := range ids {
			track, err := store.GetTrack(id)
			if err != nil {
				return err
			}
			selected = append(selected, *track)
		}
	}

	return r.bulkDownload(ctx, cmd, selected)
}

// OfflineSync downloads every cloud and remote track that has no offline copy yet.
func (r *Runner) OfflineSync(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}

	all, err := store.GetAllTracks()
	if err != nil {
		return err
	}
	return r.bulkDownload(ctx, cmd, tasks.Pending(all))
}

func (r *Runner) bulkDownload(ctx context.Context, cmd *cli.Command, tracks []models.Track) error {
	if len(tracks) == 0 {
		r.writePlain("Nothing to download\n")
		return nil
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	opts := tasks.BulkDownloadOpts{
		NumWorkers:   r.config.Offline.Workers,
		RateLimit:    r.config.Offline.RateLimit,
		ManifestPath: cmd.String("manifest"),
	}
	if n := cmd.Int("workers"); n > 0 {
		opts.NumWorkers = n
	}
	if rl := cmd.Float("rate-limit"); rl > 0 {
		opts.RateLimit = rl
	}

	r.logger.Info("starting offline download", "tracks", len(tracks), "workers", opts.NumWorkers)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.QueueDownloads:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.DownloadTrack, tasks.SkipTrack:
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			case tasks.WriteManifest:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := r.offlineManager(ctx, store).BulkDownload(ctx, progressCh, tracks, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Download Complete!")
	r.writePlain("Downloaded: %d\n", result.Downloaded)
	r.writePlain("Skipped: %d\n", result.Skipped)
	r.writePlain("Failed: %d\n", result.Failed)
	if result.Failed > 0 {
		r.writePlain("\nFailed tracks:\n")
		for _, res := range result.Results {
			if !res.Success && !res.Skipped {
				r.writePlain("  ✗ %s (%s): %s\n", res.Title, res.TrackID, res.Message)
			}
		}
	}
	if result.ManifestPath != "" {
		r.writePlain("\nManifest: %s\n", result.ManifestPath)
	}
	return nil
}

// OfflineRemove drops the offline copies of the given tracks.
func (r *Runner) OfflineRemove(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one track id is required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	manager := r.offlineManager(ctx, store)
	for _, id := range ids {
		track, err := store.GetTrack(id)
		if err != nil {
			return err
		}
		if err := manager.Remove(ctx, track); err != nil {
			return err
		}
		r.writePlain("✓ %s is online only\n", track.Title)
	}
	return nil
}

// OfflineStatus reports offline coverage and blob store usage.
func (r *Runner) OfflineStatus(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}

	all, err := store.GetAllTracks()
	if err != nil {
		return err
	}
	count, size, err := store.Blobs.Usage()
	if err != nil {
		return err
	}

	downloaded := 0
	for _, t := range all {
		if tasks.Downloaded(t) {
			downloaded++
		}
	}
	pending := tasks.Pending(all)

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"tracks":     len(all),
			"downloaded": downloaded,
			"pending":    len(pending),
			"blobs":      count,
			"bytes":      size,
		}, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Offline Status")
	r.writePlain("Tracks: %d\n", len(all))
	r.writePlain("Offline copies: %d\n", downloaded)
	r.writePlain("Pending: %d\n", len(pending))
	r.writePlain("Blobs: %d (%.1f MB)\n", count, float64(size)/(1<<20))
	for _, t := range pending {
		r.writePlain("  • %s (%s)\n", t.Title, t.ID)
	}
	return nil
}
