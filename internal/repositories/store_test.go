package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

func TestStore(t *testing.T) {
	t.Run("SaveTrack upserts", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db)
		track := newTrack("Prelude", models.LocalBlob{BlobID: "b"})

		if err := store.SaveTrack(track); err != nil {
			t.Fatalf("failed to insert track: %v", err)
		}

		track.Genre = "Baroque"
		if err := store.SaveTrack(track); err != nil {
			t.Fatalf("failed to update track: %v", err)
		}

		tracks, err := store.GetAllTracks()
		if err != nil {
			t.Fatalf("failed to get tracks: %v", err)
		}
		if len(tracks) != 1 || tracks[0].Genre != "Baroque" {
			t.Errorf("expected one updated track, got %+v", tracks)
		}
	})

	t.Run("SaveTrack with preset ID inserts", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db)
		track := newTrack("Fugue", nil)
		track.ID = "imported-1"

		if err := store.SaveTrack(track); err != nil {
			t.Fatalf("failed to save track: %v", err)
		}
		if _, err := store.GetTrack("imported-1"); err != nil {
			t.Errorf("expected track under given id: %v", err)
		}
	})

	t.Run("Errors wrap persistence", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db)
		err := store.DeleteTrack("missing")
		if !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}

		bad := newTrack("", nil)
		if err := store.SaveTrack(bad); !errors.Is(err, shared.ErrPersistence) || !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected wrapped validation error, got %v", err)
		}
	})

	t.Run("SavePreset overwrites by name", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db)
		first := models.NewEffectPreset("Room", models.EffectParams{ReverbMix: 0.1}, models.EnvSmallRoom)
		if err := store.SavePreset(first); err != nil {
			t.Fatalf("failed to save preset: %v", err)
		}

		second := models.NewEffectPreset("Room", models.EffectParams{ReverbMix: 0.3}, models.EnvSmallRoom)
		if err := store.SavePreset(second); err != nil {
			t.Fatalf("failed to overwrite preset: %v", err)
		}

		presets, err := store.GetPresets()
		if err != nil {
			t.Fatalf("failed to get presets: %v", err)
		}
		if len(presets) != 1 || presets[0].Params.ReverbMix != 0.3 || presets[0].ID != first.ID {
			t.Errorf("expected single overwritten preset, got %+v", presets)
		}
	})

	t.Run("Folders and playlists", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db)
		folder := models.NewFolder("Inbox", "")
		if err := store.SaveFolder(folder); err != nil {
			t.Fatalf("failed to save folder: %v", err)
		}
		folder.TrackIDs = []string{"a"}
		if err := store.SaveFolder(folder); err != nil {
			t.Fatalf("failed to update folder: %v", err)
		}

		playlist := models.NewPlaylist("Daily", "")
		if err := store.SavePlaylist(playlist); err != nil {
			t.Fatalf("failed to save playlist: %v", err)
		}

		folders, err := store.GetFolders()
		if err != nil || len(folders) != 1 || len(folders[0].TrackIDs) != 1 {
			t.Errorf("unexpected folders %+v, err %v", folders, err)
		}

		if err := store.DeletePlaylist(playlist.ID); err != nil {
			t.Fatalf("failed to delete playlist: %v", err)
		}
		playlists, err := store.GetPlaylists()
		if err != nil || len(playlists) != 0 {
			t.Errorf("expected no playlists, got %+v, err %v", playlists, err)
		}
	})

	t.Run("Blobs", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewStore(db)
		id, err := store.PutBlob([]byte{1, 2, 3}, "audio/mpeg")
		if err != nil {
			t.Fatalf("failed to put blob: %v", err)
		}

		data, mime, err := store.GetBlob(id)
		if err != nil || len(data) != 3 || mime != "audio/mpeg" {
			t.Errorf("unexpected blob %v %q, err %v", data, mime, err)
		}

		if err := store.DeleteBlob(id); err != nil {
			t.Fatalf("failed to delete blob: %v", err)
		}
		if _, _, err := store.GetBlob(id); !errors.Is(err, shared.ErrBlobNotFound) {
			t.Errorf("expected ErrBlobNotFound, got %v", err)
		}
	})
}
