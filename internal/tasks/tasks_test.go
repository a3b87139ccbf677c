package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
	tu "github.com/desertthunder/tapedeck/internal/testing"
)

type mockFetcher struct {
	mu    sync.Mutex
	data  map[string][]byte
	errs  map[string]error
	calls int
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{data: map[string][]byte{}, errs: map[string]error{}}
}

func (f *mockFetcher) Fetch(_ context.Context, track models.Track) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[track.ID]; ok {
		return nil, "", err
	}
	return f.data[track.ID], "audio/mpeg", nil
}

func cloudTrack(id string) *models.Track {
	track := models.NewTrack(id, models.CloudRef{Provider: "drive", FileID: "file-" + id})
	track.ID = id
	return track
}

func TestOfflineManager(t *testing.T) {
	ctx := context.Background()

	t.Run("Download", func(t *testing.T) {
		store := tu.NewMemoryStore()
		fetcher := newMockFetcher()
		fetcher.data["a"] = []byte("bytes")
		m := NewOfflineManager(fetcher, store, store, nil)

		track := cloudTrack("a")
		if err := m.Download(ctx, track); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !track.Offline || track.OfflineBlobID == "" {
			t.Fatalf("expected offline track, got %+v", track)
		}
		if !store.HasBlob(track.OfflineBlobID) {
			t.Error("expected blob to be stored")
		}
		saved, err := store.GetTrack("a")
		if err != nil || !saved.Offline {
			t.Errorf("expected saved offline track, got %+v %v", saved, err)
		}
	})

	t.Run("Download Already Offline Is No-op", func(t *testing.T) {
		store := tu.NewMemoryStore()
		fetcher := newMockFetcher()
		m := NewOfflineManager(fetcher, store, store, nil)

		track := cloudTrack("a")
		track.Offline = true
		track.OfflineBlobID = "blob-1"
		if err := m.Download(ctx, track); err != nil {
			t.Errorf("expected success, got %v", err)
		}
		if fetcher.calls != 0 || store.SaveCalls != 0 {
			t.Errorf("expected no work, got %d fetches %d saves", fetcher.calls, store.SaveCalls)
		}
	})

	t.Run("Download Fetch Failure", func(t *testing.T) {
		store := tu.NewMemoryStore()
		fetcher := newMockFetcher()
		fetcher.errs["a"] = shared.ErrAPIRequest
		m := NewOfflineManager(fetcher, store, store, nil)

		track := cloudTrack("a")
		if err := m.Download(ctx, track); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if track.Offline || store.BlobCount() != 0 {
			t.Error("expected no flag and no blob")
		}
	})

	t.Run("Download Blob Write Failure", func(t *testing.T) {
		store := tu.NewMemoryStore()
		store.PutBlobErr = errors.New("disk full")
		fetcher := newMockFetcher()
		m := NewOfflineManager(fetcher, store, store, nil)

		track := cloudTrack("a")
		if err := m.Download(ctx, track); !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
		if track.Offline {
			t.Error("expected flag cleared")
		}
	})

	t.Run("Download Save Failure Rolls Back", func(t *testing.T) {
		store := tu.NewMemoryStore()
		store.SaveErr = errors.New("locked")
		fetcher := newMockFetcher()
		fetcher.data["a"] = []byte("bytes")
		m := NewOfflineManager(fetcher, store, store, nil)

		track := cloudTrack("a")
		if err := m.Download(ctx, track); !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
		if track.Offline || track.OfflineBlobID != "" {
			t.Errorf("expected rollback, got %+v", track)
		}
		if store.BlobCount() != 0 || len(store.DeletedBlobs) != 1 {
			t.Errorf("expected written blob to be deleted, got %d blobs", store.BlobCount())
		}
	})

	t.Run("Remove", func(t *testing.T) {
		store := tu.NewMemoryStore()
		blobID, _ := store.PutBlob([]byte("bytes"), "audio/mpeg")
		m := NewOfflineManager(newMockFetcher(), store, store, nil)

		track := cloudTrack("a")
		track.Offline = true
		track.OfflineBlobID = blobID
		if err := m.Remove(ctx, track); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if track.Offline || store.HasBlob(blobID) {
			t.Error("expected flag and blob removed")
		}
	})

	t.Run("Remove Not Offline Is No-op", func(t *testing.T) {
		store := tu.NewMemoryStore()
		m := NewOfflineManager(newMockFetcher(), store, store, nil)
		if err := m.Remove(ctx, cloudTrack("a")); err != nil {
			t.Errorf("expected success, got %v", err)
		}
		if store.SaveCalls != 0 {
			t.Error("expected no save")
		}
	})

	t.Run("Remove Save Failure Restores Flag", func(t *testing.T) {
		store := tu.NewMemoryStore()
		blobID, _ := store.PutBlob([]byte("bytes"), "audio/mpeg")
		store.SaveErr = errors.New("locked")
		m := NewOfflineManager(newMockFetcher(), store, store, nil)

		track := cloudTrack("a")
		track.Offline = true
		track.OfflineBlobID = blobID
		if err := m.Remove(ctx, track); !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
		if !track.Offline || track.OfflineBlobID != blobID || !store.HasBlob(blobID) {
			t.Errorf("expected offline state restored, got %+v", track)
		}
	})

	t.Run("Remove Blob Failure Keeps Flag Cleared", func(t *testing.T) {
		store := tu.NewMemoryStore()
		blobID, _ := store.PutBlob([]byte("bytes"), "audio/mpeg")
		store.DeleteErr = errors.New("io")
		m := NewOfflineManager(newMockFetcher(), store, store, nil)

		track := cloudTrack("a")
		track.Offline = true
		track.OfflineBlobID = blobID
		if err := m.Remove(ctx, track); err != nil {
			t.Errorf("expected success, got %v", err)
		}
		if track.Offline {
			t.Error("expected flag cleared")
		}
	})

	t.Run("Nil Track", func(t *testing.T) {
		m := NewOfflineManager(newMockFetcher(), tu.NewMemoryStore(), tu.NewMemoryStore(), nil)
		if err := m.Download(ctx, nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestPending(t *testing.T) {
	local := models.NewTrack("local", models.LocalBlob{BlobID: "b"})
	remote := models.NewTrack("remote", models.RemoteURL{URL: "https://example.com/a.mp3"})
	offline := cloudTrack("offline")
	offline.Offline = true
	offline.OfflineBlobID = "b2"
	cloud := cloudTrack("cloud")

	pending := Pending([]models.Track{*local, *remote, *offline, *cloud})
	if len(pending) != 2 || pending[0].Title != "remote" || pending[1].ID != "cloud" {
		t.Errorf("expected remote and cloud pending, got %+v", pending)
	}
}

func TestBulkDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("Mixed Results", func(t *testing.T) {
		store := tu.NewMemoryStore()
		fetcher := newMockFetcher()
		fetcher.data["a"] = []byte("a")
		fetcher.data["b"] = []byte("b")
		fetcher.errs["c"] = shared.ErrAPIRequest
		m := NewOfflineManager(fetcher, store, store, nil)

		done := cloudTrack("d")
		done.Offline = true
		done.OfflineBlobID = "existing"
		tracks := []models.Track{*cloudTrack("a"), *cloudTrack("b"), *cloudTrack("c"), *done}

		manifest := filepath.Join(t.TempDir(), "manifest.json")
		progress := make(chan ProgressUpdate, 64)
		result, err := m.BulkDownload(ctx, progress, tracks, BulkDownloadOpts{NumWorkers: 2, RateLimit: 1000, ManifestPath: manifest})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.TotalTracks != 4 || result.Downloaded != 2 || result.Failed != 1 || result.Skipped != 1 {
			t.Errorf("unexpected counts %+v", result)
		}
		if len(result.Results) != 4 {
			t.Errorf("expected 4 results, got %d", len(result.Results))
		}
		if store.BlobCount() != 2 {
			t.Errorf("expected 2 blobs, got %d", store.BlobCount())
		}
		if result.ManifestPath != manifest {
			t.Errorf("expected manifest path, got %s", result.ManifestPath)
		}

		data, err := os.ReadFile(manifest)
		if err != nil {
			t.Fatalf("expected manifest, got %v", err)
		}
		var decoded BulkDownloadResult
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("expected valid JSON, got %v", err)
		}
		if decoded.Downloaded != 2 {
			t.Errorf("expected manifest downloaded=2, got %d", decoded.Downloaded)
		}

		close(progress)
		phases := map[Phase]int{}
		for u := range progress {
			phases[u.Phase]++
		}
		if phases[QueueDownloads] != 1 || phases[SkipTrack] != 1 || phases[WriteManifest] != 1 {
			t.Errorf("unexpected progress phases %v", phases)
		}
	})

	t.Run("Nil Progress Channel", func(t *testing.T) {
		store := tu.NewMemoryStore()
		fetcher := newMockFetcher()
		m := NewOfflineManager(fetcher, store, store, nil)

		result, err := m.BulkDownload(ctx, nil, []models.Track{*cloudTrack("a")}, BulkDownloadOpts{RateLimit: 1000})
		if err != nil || result.Downloaded != 1 {
			t.Errorf("expected one download, got %+v %v", result, err)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		store := tu.NewMemoryStore()
		m := NewOfflineManager(newMockFetcher(), store, store, nil)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		result, err := m.BulkDownload(cctx, nil, []models.Track{*cloudTrack("a"), *cloudTrack("b")}, BulkDownloadOpts{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result.Downloaded != 0 {
			t.Errorf("expected no downloads, got %d", result.Downloaded)
		}
	})

	t.Run("Phase Names", func(t *testing.T) {
		for _, p := range []Phase{QueueDownloads, DownloadTrack, SkipTrack, WriteManifest} {
			if p.String() == "" {
				t.Errorf("expected name for phase %d", p)
			}
		}
	})
}
