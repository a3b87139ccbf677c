package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// Store is the persistence facade consumed by the playback engine, the source resolver and the offline manager.
//
// Every error it returns wraps [shared.ErrPersistence] alongside the underlying cause.
type Store struct {
	Tracks    *TrackRepository
	Folders   *FolderRepository
	Playlists *PlaylistRepository
	Presets   *PresetRepository
	Blobs     *BlobRepository
}

// NewStore wires every repository to db
func NewStore(db *sql.DB) *Store {
	return &Store{
		Tracks:    NewTrackRepository(db),
		Folders:   NewFolderRepository(db),
		Playlists: NewPlaylistRepository(db),
		Presets:   NewPresetRepository(db),
		Blobs:     NewBlobRepository(db),
	}
}

func persistence(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", shared.ErrPersistence, err)
}

// GetAllTracks returns every live track in library order
func (s *Store) GetAllTracks() ([]models.Track, error) {
	tracks, err := s.Tracks.List(nil)
	if err != nil {
		return nil, persistence(err)
	}
	return deref(tracks), nil
}

// GetTrack returns the track stored under id
func (s *Store) GetTrack(id string) (*models.Track, error) {
	track, err := s.Tracks.Get(id)
	return track, persistence(err)
}

// SaveTrack inserts or updates track
func (s *Store) SaveTrack(track *models.Track) error {
	return persistence(upsert[*models.Track](s.Tracks, track, s.Tracks.Exists))
}

// DeleteTrack soft-deletes the track stored under id
func (s *Store) DeleteTrack(id string) error {
	return persistence(s.Tracks.Delete(id))
}

func (s *Store) GetFolders() ([]models.Folder, error) {
	folders, err := s.Folders.List(nil)
	if err != nil {
		return nil, persistence(err)
	}
	return deref(folders), nil
}

func (s *Store) SaveFolder(folder *models.Folder) error {
	return persistence(upsert[*models.Folder](s.Folders, folder, func(id string) (bool, error) {
		_, err := s.Folders.Get(id)
		return found(err)
	}))
}

func (s *Store) DeleteFolder(id string) error {
	return persistence(s.Folders.Delete(id))
}

func (s *Store) GetPlaylists() ([]models.Playlist, error) {
	playlists, err := s.Playlists.List(nil)
	if err != nil {
		return nil, persistence(err)
	}
	return deref(playlists), nil
}

func (s *Store) SavePlaylist(playlist *models.Playlist) error {
	return persistence(upsert[*models.Playlist](s.Playlists, playlist, func(id string) (bool, error) {
		_, err := s.Playlists.Get(id)
		return found(err)
	}))
}

func (s *Store) DeletePlaylist(id string) error {
	return persistence(s.Playlists.Delete(id))
}

func (s *Store) GetPresets() ([]models.EffectPreset, error) {
	presets, err := s.Presets.List(nil)
	if err != nil {
		return nil, persistence(err)
	}
	return deref(presets), nil
}

// SavePreset inserts or updates preset. A new preset whose name is taken overwrites the existing one.
func (s *Store) SavePreset(preset *models.EffectPreset) error {
	if preset.ID == "" {
		existing, err := s.Presets.GetByName(preset.Name)
		switch {
		case err == nil:
			preset.ID = existing.ID
			preset.CreatedAt = existing.CreatedAt
		case !errors.Is(err, shared.ErrPresetNotFound):
			return persistence(err)
		}
	}
	return persistence(upsert[*models.EffectPreset](s.Presets, preset, func(id string) (bool, error) {
		_, err := s.Presets.Get(id)
		return found(err)
	}))
}

func (s *Store) DeletePreset(id string) error {
	return persistence(s.Presets.Delete(id))
}

// GetBlob returns the bytes and mime type stored under id
func (s *Store) GetBlob(id string) ([]byte, string, error) {
	blob, err := s.Blobs.Get(id)
	if err != nil {
		return nil, "", persistence(err)
	}
	return blob.Data, blob.MimeType, nil
}

// PutBlob stores data and returns its new id
func (s *Store) PutBlob(data []byte, mimeType string) (string, error) {
	id, err := s.Blobs.Put(data, mimeType)
	return id, persistence(err)
}

// DeleteBlob removes the blob stored under id
func (s *Store) DeleteBlob(id string) error {
	return persistence(s.Blobs.Delete(id))
}

// upsert creates m when it has no ID or is not yet stored, and updates it otherwise
func upsert[T models.Model](repo models.Repository[T], m T, exists func(string) (bool, error)) error {
	if m.Key() == "" {
		return repo.Create(m)
	}
	ok, err := exists(m.Key())
	if err != nil {
		return err
	}
	if ok {
		return repo.Update(m)
	}
	return repo.Create(m)
}

// found converts a Get error into an existence check; not-found sentinels report false.
func found(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, shared.ErrFolderNotFound),
		errors.Is(err, shared.ErrPlaylistNotFound),
		errors.Is(err, shared.ErrPresetNotFound):
		return false, nil
	default:
		return false, err
	}
}

func deref[T any](items []*T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = *item
	}
	return out
}
