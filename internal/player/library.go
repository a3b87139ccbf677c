package player

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// Queue returns a copy of the queued tracks.
func (e *Engine) Queue() []models.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Tracks()
}

// Enqueue appends tracks, keeping the cursor.
func (e *Engine) Enqueue(tracks ...models.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue.Append(tracks...)
}

// ReplaceQueue swaps the queue contents and resets the cursor. Playback is not interrupted;
// the next track played is the first of the new queue.
func (e *Engine) ReplaceQueue(tracks []models.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue.Replace(tracks)
	e.detached = e.active() && e.queue.Len() > 0
}

// active reports whether a track is loaded or being loaded.
func (e *Engine) active() bool {
	return e.current != nil || e.state == StateLoading
}

// Reorder moves a queued track. The cursor keeps pointing at the same entry.
func (e *Engine) Reorder(from, to int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Reorder(from, to)
}

// RemoveAt removes a queued track. Removing the current entry does not interrupt playback;
// the track that followed it plays next.
func (e *Engine) RemoveAt(i int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, currentChanged, ok := e.queue.Remove(i)
	if currentChanged && e.active() {
		// Removing the last entry leaves nothing after it, so advancing ends the queue.
		e.detached = i < e.queue.Len()
	}
	return ok
}

// SkipTo moves the cursor to i and plays that track. Out-of-range indexes are a no-op returning false.
func (e *Engine) SkipTo(ctx context.Context, i int) (bool, error) {
	e.mu.Lock()
	if !e.queue.SkipTo(i) {
		e.mu.Unlock()
		return false, nil
	}
	e.detached = false
	track, _ := e.queue.Current()
	e.mu.Unlock()
	return true, e.LoadAndPlay(ctx, track)
}

// Library returns a copy of the in-memory library.
func (e *Engine) Library() []models.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.library)
}

// RefreshLibrary reloads the library from the store. On failure the previous copy is kept.
func (e *Engine) RefreshLibrary(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tracks, err := e.store.GetAllTracks()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.library = tracks
	e.logger.Debug("library refreshed", "tracks", len(tracks))
	return nil
}

// SaveTrack validates and persists track, then updates the library, queue and current track.
// The in-memory copies change only after the store confirms the write.
func (e *Engine) SaveTrack(track models.Track) (*models.Track, error) {
	if track.ID != "" {
		if err := track.Validate(); err != nil {
			return nil, err
		}
	}
	if err := e.store.SaveTrack(&track); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if i := slices.IndexFunc(e.library, func(t models.Track) bool { return t.ID == track.ID }); i >= 0 {
		e.library[i] = track
	} else {
		e.library = append(e.library, track)
	}
	e.queue.Update(track)
	if e.current != nil && e.current.ID == track.ID {
		t := track
		e.current = &t
		e.applyVolume()
	}
	return &track, nil
}

// DeleteTrack removes a track from the store and the in-memory library. Queued copies stay queued.
func (e *Engine) DeleteTrack(id string) error {
	if id == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}
	if err := e.store.DeleteTrack(id); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.library = slices.DeleteFunc(e.library, func(t models.Track) bool { return t.ID == id })
	delete(e.trackVolumes, id)
	return nil
}
