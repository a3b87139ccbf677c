// package tasks implements offline availability: downloading track sources into owned blobs and removing them again.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/services"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// SourceFetcher downloads the full bytes of a track's source. [services.Resolver] implements it.
type SourceFetcher interface {
	Fetch(ctx context.Context, track models.Track) ([]byte, string, error)
}

// TrackSaver persists track metadata.
type TrackSaver interface {
	SaveTrack(track *models.Track) error
}

// OfflineManager makes tracks available offline by copying their source into the blob store.
//
// The offline flag and the blob always agree: any failure after the blob is written deletes
// the blob and clears the flag, and a failed save on removal restores the flag.
type OfflineManager struct {
	fetcher SourceFetcher
	blobs   services.BlobStore
	tracks  TrackSaver
	logger  *log.Logger
}

// NewOfflineManager creates an OfflineManager.
func NewOfflineManager(fetcher SourceFetcher, blobs services.BlobStore, tracks TrackSaver, logger *log.Logger) *OfflineManager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &OfflineManager{fetcher: fetcher, blobs: blobs, tracks: tracks, logger: logger}
}

// Downloaded reports whether track already has an offline copy.
func Downloaded(track models.Track) bool {
	return track.Offline && track.OfflineBlobID != ""
}

// Downloadable reports whether track has a non-owned source that an offline copy would help.
func Downloadable(track models.Track) bool {
	switch track.Source.(type) {
	case models.CloudRef, models.RemoteURL:
		return !Downloaded(track)
	default:
		return false
	}
}

// Pending filters tracks down to those [Downloadable].
func Pending(tracks []models.Track) []models.Track {
	out := []models.Track{}
	for _, t := range tracks {
		if Downloadable(t) {
			out = append(out, t)
		}
	}
	return out
}

// Download fetches track's source into an owned blob and marks the track offline.
// A track that is already offline is left alone and Download reports success.
func (m *OfflineManager) Download(ctx context.Context, track *models.Track) error {
	if track == nil {
		return fmt.Errorf("%w: track", shared.ErrMissingArgument)
	}
	if Downloaded(*track) {
		m.logger.Debug("track already offline", "track", track.ID)
		return nil
	}

	data, mimeType, err := m.fetcher.Fetch(ctx, *track)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	blobID, err := m.blobs.PutBlob(data, mimeType)
	if err != nil {
		return err
	}

	track.Offline = true
	track.OfflineBlobID = blobID
	if err := m.tracks.SaveTrack(track); err != nil {
		track.Offline = false
		track.OfflineBlobID = ""
		if derr := m.blobs.DeleteBlob(blobID); derr != nil {
			m.logger.Warn("failed to delete blob after rollback", "blob", blobID, "err", derr)
		}
		return err
	}

	m.logger.Debug("track downloaded", "track", track.ID, "blob", blobID, "bytes", len(data))
	return nil
}

// Remove drops the offline copy of track. A track without one is left alone and Remove reports success.
func (m *OfflineManager) Remove(ctx context.Context, track *models.Track) error {
	if track == nil {
		return fmt.Errorf("%w: track", shared.ErrMissingArgument)
	}
	if !track.Offline {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	blobID := track.OfflineBlobID
	track.Offline = false
	track.OfflineBlobID = ""
	if err := m.tracks.SaveTrack(track); err != nil {
		track.Offline = true
		track.OfflineBlobID = blobID
		return err
	}

	if blobID != "" {
		if err := m.blobs.DeleteBlob(blobID); err != nil {
			m.logger.Warn("offline flag cleared but blob not deleted", "track", track.ID, "blob", blobID, "err", err)
		}
	}
	m.logger.Debug("offline copy removed", "track", track.ID)
	return nil
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
