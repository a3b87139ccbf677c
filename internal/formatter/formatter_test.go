package formatter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
	th "github.com/desertthunder/tapedeck/internal/testing"
)

func testExport() *LibraryExport {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tracks := []models.Track{
		{
			ID:        "track1",
			Title:     "Clair de Lune",
			Composer:  "Debussy",
			Album:     "Suite bergamasque",
			Genre:     "Classical",
			BPM:       66,
			TonalKey:  "Db",
			Duration:  300,
			Source:    models.LocalBlob{BlobID: "blob-1"},
			CuePoints: []float64{12.5, 90},
			Trim:      models.Trim{Start: 2, End: 280},
			Gain:      0.8,
			CreatedAt: created,
			UpdatedAt: created,
		},
		{
			ID:            "track2",
			Title:         "Gymnopédie | No. 1",
			Composer:      "Satie",
			Duration:      185,
			Source:        models.CloudRef{Provider: "gdrive", FileID: "f1"},
			CuePoints:     []float64{},
			Offline:       true,
			OfflineBlobID: "offline-1",
			Gain:          1,
			CreatedAt:     created,
			UpdatedAt:     created,
		},
		{
			ID:        "track3",
			Title:     "Untitled",
			Duration:  42,
			CuePoints: []float64{},
			Gain:      1,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}
	playlists := []models.Playlist{{ID: "pl1", Name: "Evening", Description: "quiet pieces", TrackIDs: []string{"track1", "track2"}, CreatedAt: created, UpdatedAt: created}}
	folders := []models.Folder{{ID: "f1", Name: "Piano", TrackIDs: []string{"track1"}, CreatedAt: created, UpdatedAt: created}}
	presets := []models.EffectPreset{{ID: "p1", Name: "Hall", Params: models.EffectParams{ReverbMix: 0.4}, Environment: models.EnvCathedral, CreatedAt: created, UpdatedAt: created}}

	export := NewLibraryExport(tracks, folders, playlists, presets)
	export.ExportedAt = created
	return export
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport().Tracks)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Title,Composer,Album,Genre,BPM,Key,Duration,Source,Location,Offline") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "track1,Clair de Lune,Debussy,Suite bergamasque,Classical,66,Db,5:00,local,blob-1,false") {
			t.Errorf("CSV missing track1 row, got: %s", output)
		}
		if !strings.Contains(output, "cloud,gdrive:f1,true") {
			t.Errorf("CSV missing cloud location for track2")
		}
		if !strings.Contains(output, "none,,false") {
			t.Errorf("CSV should mark sourceless tracks as none")
		}

		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) != 4 {
			t.Errorf("Expected 4 lines (header + 3 tracks), got %d", len(lines))
		}
	})

	t.Run("ExportToCSV with no tracks", func(t *testing.T) {
		data, err := ExportToCSV(nil)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 1 {
			t.Errorf("Expected header only, got %d lines", len(lines))
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Library",
			"**Tracks**: 3",
			"**Playlists**: 1",
			"| # | Title | Composer | Duration | Source |",
			"| 1 | Clair de Lune | Debussy | 5:00 | local |",
			`Gymnopédie \| No. 1`,
			"- **Evening** (2 tracks): quiet pieces",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Tracks: 3") {
			t.Errorf("Text missing track count")
		}
		if !strings.Contains(output, "1. Debussy - Clair de Lune [5:00]") {
			t.Errorf("Text missing first track, got:\n%s", output)
		}
		if !strings.Contains(output, "3. Untitled [0:42]") {
			t.Errorf("Text should omit composer when empty, got:\n%s", output)
		}
	})

	t.Run("ExportToYAML", func(t *testing.T) {
		data, err := ExportToYAML(testExport())
		if err != nil {
			t.Fatalf("ExportToYAML failed: %v", err)
		}

		var doc struct {
			Tracks []struct {
				ID        string    `yaml:"id"`
				Source    string    `yaml:"source"`
				Location  string    `yaml:"location"`
				Duration  string    `yaml:"duration"`
				CuePoints []float64 `yaml:"cue_points"`
				Offline   bool      `yaml:"offline"`
			} `yaml:"tracks"`
			Presets []models.EffectPreset `yaml:"presets"`
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			t.Fatalf("YAML output does not parse: %v", err)
		}
		if len(doc.Tracks) != 3 {
			t.Fatalf("Expected 3 tracks, got %d", len(doc.Tracks))
		}
		first := doc.Tracks[0]
		if first.Source != "local" || first.Location != "blob-1" || first.Duration != "5:00" {
			t.Errorf("Unexpected first track record: %+v", first)
		}
		if len(first.CuePoints) != 2 || first.CuePoints[0] != 12.5 {
			t.Errorf("Expected cue points [12.5 90], got %v", first.CuePoints)
		}
		if !doc.Tracks[1].Offline {
			t.Errorf("Expected track2 to be offline")
		}
		if len(doc.Presets) != 1 || doc.Presets[0].Environment != models.EnvCathedral || doc.Presets[0].Params.ReverbMix != 0.4 {
			t.Errorf("Unexpected presets: %+v", doc.Presets)
		}
	})

	t.Run("Export unknown format", func(t *testing.T) {
		_, err := Export(testExport(), "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Extension", func(t *testing.T) {
		tests := []struct {
			format string
			want   string
		}{
			{"json", "json"},
			{"", "json"},
			{"yml", "yaml"},
			{"markdown", "md"},
			{"text", "txt"},
			{"csv", "csv"},
		}
		for _, tt := range tests {
			if got := Extension(tt.format); got != tt.want {
				t.Errorf("Extension(%q) = %q, want %q", tt.format, got, tt.want)
			}
		}
	})
}

func TestImportJSON(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		original := testExport()
		data, err := ExportToJSON(original)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		imported, err := ImportJSON(data)
		if err != nil {
			t.Fatalf("ImportJSON failed: %v", err)
		}

		if len(imported.Tracks) != len(original.Tracks) {
			t.Fatalf("Expected %d tracks, got %d", len(original.Tracks), len(imported.Tracks))
		}
		for i, got := range imported.Tracks {
			want := original.Tracks[i]
			if got.ID != want.ID || got.Title != want.Title || got.Gain != want.Gain || got.Trim != want.Trim {
				t.Errorf("track %d mismatch: got %+v, want %+v", i, got, want)
			}
			if models.KindOf(got.Source) != models.KindOf(want.Source) || Location(got.Source) != Location(want.Source) {
				t.Errorf("track %d source mismatch: got %v, want %v", i, got.Source, want.Source)
			}
			if got.Offline != want.Offline || got.OfflineBlobID != want.OfflineBlobID {
				t.Errorf("track %d offline mismatch", i)
			}
		}
		if imported.Tracks[2].Source != nil {
			t.Errorf("Expected nil source to survive, got %v", imported.Tracks[2].Source)
		}
		if len(imported.Playlists) != 1 || len(imported.Playlists[0].TrackIDs) != 2 {
			t.Errorf("Unexpected playlists: %+v", imported.Playlists)
		}
		if len(imported.Presets) != 1 || imported.Presets[0].Environment != models.EnvCathedral {
			t.Errorf("Unexpected presets: %+v", imported.Presets)
		}
		if !imported.ExportedAt.Equal(original.ExportedAt) {
			t.Errorf("ExportedAt mismatch: %v != %v", imported.ExportedAt, original.ExportedAt)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := ImportJSON([]byte("{not json"))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("InvalidTrack", func(t *testing.T) {
		_, err := ImportJSON([]byte(`{"tracks":[{"id":"t1","title":"","gain":1}]}`))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput for a track without a title, got %v", err)
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteExport", func(t *testing.T) {
		t.Run("WithCustomPath", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "library.json")

			got, err := WriteExport(testExport(), "json", path)
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if got != path {
				t.Errorf("Expected path %s, got %s", path, got)
			}
			th.AssertFileExists(t, path)

			imported, err := ReadExport(path)
			if err != nil {
				t.Fatalf("ReadExport failed: %v", err)
			}
			if len(imported.Tracks) != 3 {
				t.Errorf("Expected 3 tracks after reading back, got %d", len(imported.Tracks))
			}
		})

		t.Run("WithDefaultPath", func(t *testing.T) {
			t.Chdir(t.TempDir())

			got, err := WriteExport(testExport(), "csv", "")
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if !strings.HasPrefix(got, "library_export_") || !strings.HasSuffix(got, ".csv") {
				t.Errorf("Unexpected default path: %s", got)
			}
			th.AssertFileExists(t, got)
			if content := th.MustReadFile(t, got); !strings.HasPrefix(content, "ID,Title") {
				t.Errorf("Default export is not CSV: %s", content)
			}
		})

		t.Run("UnknownFormat", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "library.xml")
			if _, err := WriteExport(testExport(), "xml", path); err == nil {
				t.Error("Expected error for unknown format")
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Error("No file should be written for an unknown format")
			}
		})
	})

	t.Run("WriteManifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		manifest := map[string]any{"total_tracks": 2, "downloaded": 1}

		if err := WriteManifest(manifest, path); err != nil {
			t.Fatalf("WriteManifest failed: %v", err)
		}

		content := th.MustReadFile(t, path)
		if !strings.Contains(content, `"total_tracks": 2`) {
			t.Errorf("Manifest missing indented field, got: %s", content)
		}
	})

	t.Run("WriteManifest to missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "manifest.json")
		if err := WriteManifest(struct{}{}, path); err == nil {
			t.Error("Expected error writing into a missing directory")
		}
	})

	t.Run("ReadExport missing file", func(t *testing.T) {
		if _, err := ReadExport(filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Error("Expected error for missing file")
		}
	})
}
