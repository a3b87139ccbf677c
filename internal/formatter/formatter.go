// package formatter exports library data to various formats (JSON, YAML, CSV, Markdown, plain text) and imports JSON back
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// Formats lists the supported export formats.
var Formats = []string{"json", "yaml", "csv", "markdown", "txt"}

// LibraryExport is a snapshot of the library. Its JSON form round-trips losslessly.
type LibraryExport struct {
	ExportedAt time.Time             `json:"exported_at"`
	Tracks     []models.Track        `json:"tracks"`
	Folders    []models.Folder       `json:"folders"`
	Playlists  []models.Playlist     `json:"playlists"`
	Presets    []models.EffectPreset `json:"presets"`
}

// NewLibraryExport bundles the library into an export stamped with the current time.
func NewLibraryExport(tracks []models.Track, folders []models.Folder, playlists []models.Playlist, presets []models.EffectPreset) *LibraryExport {
	return &LibraryExport{
		ExportedAt: time.Now().UTC(),
		Tracks:     orEmpty(tracks),
		Folders:    orEmpty(folders),
		Playlists:  orEmpty(playlists),
		Presets:    orEmpty(presets),
	}
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// trackRecord is the flat, human-oriented form of a track used by YAML and CSV.
type trackRecord struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Composer  string    `yaml:"composer,omitempty"`
	Album     string    `yaml:"album,omitempty"`
	Genre     string    `yaml:"genre,omitempty"`
	BPM       float64   `yaml:"bpm,omitempty"`
	Key       string    `yaml:"key,omitempty"`
	Duration  string    `yaml:"duration"`
	Source    string    `yaml:"source"`
	Location  string    `yaml:"location,omitempty"`
	CuePoints []float64 `yaml:"cue_points,omitempty,flow"`
	Offline   bool      `yaml:"offline"`
	Gain      float64   `yaml:"gain"`
}

func toRecord(t models.Track) trackRecord {
	rec := trackRecord{
		ID:        t.ID,
		Title:     t.Title,
		Composer:  t.Composer,
		Album:     t.Album,
		Genre:     t.Genre,
		BPM:       t.BPM,
		Key:       t.TonalKey,
		Duration:  shared.FormatDuration(t.Duration),
		Source:    string(models.KindOf(t.Source)),
		Location:  Location(t.Source),
		CuePoints: t.CuePoints,
		Offline:   t.Offline,
		Gain:      t.Gain,
	}
	if rec.Source == "" {
		rec.Source = "none"
	}
	return rec
}

// Location describes where a source lives: a blob id, provider:file id, or URL.
func Location(src models.Source) string {
	switch s := src.(type) {
	case models.LocalBlob:
		return s.BlobID
	case models.CloudRef:
		return s.Provider + ":" + s.FileID
	case models.RemoteURL:
		return s.URL
	default:
		return ""
	}
}

// ExportToJSON encodes the export as indented JSON.
func ExportToJSON(export *LibraryExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// ImportJSON decodes an export produced by [ExportToJSON] and validates every entity.
func ImportJSON(data []byte) (*LibraryExport, error) {
	var export LibraryExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("%w: failed to parse library export: %v", shared.ErrInvalidInput, err)
	}
	for i := range export.Tracks {
		if err := export.Tracks[i].Validate(); err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
	}
	for i := range export.Playlists {
		if err := export.Playlists[i].Validate(); err != nil {
			return nil, fmt.Errorf("playlist %d: %w", i, err)
		}
	}
	for i := range export.Folders {
		if err := export.Folders[i].Validate(); err != nil {
			return nil, fmt.Errorf("folder %d: %w", i, err)
		}
	}
	for i := range export.Presets {
		if err := export.Presets[i].Validate(); err != nil {
			return nil, fmt.Errorf("preset %d: %w", i, err)
		}
	}
	return &export, nil
}

// ExportToYAML encodes the export as YAML with flattened track sources.
func ExportToYAML(export *LibraryExport) ([]byte, error) {
	records := make([]trackRecord, len(export.Tracks))
	for i, t := range export.Tracks {
		records[i] = toRecord(t)
	}

	doc := struct {
		ExportedAt time.Time             `yaml:"exported_at"`
		Tracks     []trackRecord         `yaml:"tracks"`
		Folders    []models.Folder       `yaml:"folders"`
		Playlists  []models.Playlist     `yaml:"playlists"`
		Presets    []models.EffectPreset `yaml:"presets"`
	}{export.ExportedAt, records, export.Folders, export.Playlists, export.Presets}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToCSV converts tracks to CSV with columns: ID, Title, Composer, Album, Genre, BPM, Key, Duration, Source, Location, Offline
func ExportToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Composer", "Album", "Genre", "BPM", "Key", "Duration", "Source", "Location", "Offline"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		rec := toRecord(track)
		record := []string{
			rec.ID,
			rec.Title,
			rec.Composer,
			rec.Album,
			rec.Genre,
			strconv.FormatFloat(rec.BPM, 'f', -1, 64),
			rec.Key,
			rec.Duration,
			rec.Source,
			rec.Location,
			strconv.FormatBool(rec.Offline),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts the export to a Markdown document with one table of tracks and a list of playlists
func ExportToMarkdown(export *LibraryExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Library\n\n")
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(export.Tracks)))
	buf.WriteString(fmt.Sprintf("**Playlists**: %d\n", len(export.Playlists)))
	buf.WriteString(fmt.Sprintf("**Presets**: %d\n\n", len(export.Presets)))

	buf.WriteString("## Tracks\n\n")
	buf.WriteString("| # | Title | Composer | Duration | Source |\n")
	buf.WriteString("|---|-------|----------|----------|--------|\n")
	for i, track := range export.Tracks {
		rec := toRecord(track)
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n", i+1, escapePipes(rec.Title), escapePipes(rec.Composer), rec.Duration, rec.Source))
	}

	if len(export.Playlists) > 0 {
		buf.WriteString("\n## Playlists\n\n")
		for _, pl := range export.Playlists {
			buf.WriteString(fmt.Sprintf("- **%s** (%d tracks)", pl.Name, len(pl.TrackIDs)))
			if pl.Description != "" {
				buf.WriteString(": " + pl.Description)
			}
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ExportToText converts the export to plain text, one track per line
func ExportToText(export *LibraryExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Tracks)))
	for i, track := range export.Tracks {
		line := track.Title
		if track.Composer != "" {
			line = track.Composer + " - " + track.Title
		}
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, line, shared.FormatDuration(track.Duration)))
	}

	return buf.Bytes(), nil
}

// Export renders the export in format.
func Export(export *LibraryExport, format string) ([]byte, error) {
	switch format {
	case "json", "":
		return ExportToJSON(export)
	case "yaml", "yml":
		return ExportToYAML(export)
	case "csv":
		return ExportToCSV(export.Tracks)
	case "markdown", "md":
		return ExportToMarkdown(export)
	case "txt", "text":
		return ExportToText(export)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// Extension returns the file extension for format.
func Extension(format string) string {
	switch format {
	case "yaml", "yml":
		return "yaml"
	case "markdown", "md":
		return "md"
	case "txt", "text":
		return "txt"
	case "csv":
		return "csv"
	default:
		return "json"
	}
}

// WriteExport renders the export in format and writes it to path.
//
// Defaults to library_export_{epoch}.{ext} in the working directory.
func WriteExport(export *LibraryExport, format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("library_export_%d.%s", time.Now().Unix(), Extension(format))
	}

	data, err := Export(export, format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// ReadExport reads and validates a JSON export from path.
func ReadExport(path string) (*LibraryExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}
	return ImportJSON(data)
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
