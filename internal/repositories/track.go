package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

const trackColumns = `id, title, composer, album, genre, bpm, musical_key, duration,
	source_kind, blob_id, cloud_provider, cloud_file_id, remote_url,
	cue_points, trim_start, trim_end, offline, offline_blob_id, gain, created_at, updated_at`

// TrackRepository implements models.Repository[*models.Track] for the library.
//
// Handles track CRUD with soft delete support. The [models.Source] union is flattened into
// a source_kind column plus one column per variant field.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.Track] with a sequence number, generating an ID when none is set.
func (r *TrackRepository) Create(track *models.Track) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if track.ID == "" {
		track.ID = shared.GenerateID()
	}
	if track.CreatedAt.IsZero() {
		track.CreatedAt = time.Now()
	}
	if track.UpdatedAt.IsZero() {
		track.UpdatedAt = track.CreatedAt
	}

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	cues, err := encodeFloats(track.CuePoints)
	if err != nil {
		return fmt.Errorf("failed to encode cue points: %w", err)
	}
	kind, blobID, provider, fileID, url := flattenSource(track.Source)

	query := `
		INSERT INTO tracks (id, sequence, title, composer, album, genre, bpm, musical_key, duration,
			source_kind, blob_id, cloud_provider, cloud_file_id, remote_url,
			cue_points, trim_start, trim_end, offline, offline_blob_id, gain, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		track.ID, sequence,
		track.Title, track.Composer, track.Album, track.Genre, track.BPM, track.TonalKey, track.Duration,
		kind, blobID, provider, fileID, url,
		cues, track.Trim.Start, track.Trim.End, track.Offline, track.OfflineBlobID, track.Gain,
		track.CreatedAt, track.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ? AND deleted_at IS NULL`

	track, err := r.scan(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	return track, err
}

// Exists reports whether a live track with id is stored.
func (r *TrackRepository) Exists(id string) (bool, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM tracks WHERE id = ? AND deleted_at IS NULL", id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check track: %w", err)
	}
	return n > 0, nil
}

// Update modifies an existing track in the database
func (r *TrackRepository) Update(track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	cues, err := encodeFloats(track.CuePoints)
	if err != nil {
		return fmt.Errorf("failed to encode cue points: %w", err)
	}
	kind, blobID, provider, fileID, url := flattenSource(track.Source)
	now := time.Now()

	query := `
		UPDATE tracks
		SET title = ?, composer = ?, album = ?, genre = ?, bpm = ?, musical_key = ?, duration = ?,
			source_kind = ?, blob_id = ?, cloud_provider = ?, cloud_file_id = ?, remote_url = ?,
			cue_points = ?, trim_start = ?, trim_end = ?, offline = ?, offline_blob_id = ?, gain = ?,
			updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Title, track.Composer, track.Album, track.Genre, track.BPM, track.TonalKey, track.Duration,
		kind, blobID, provider, fileID, url,
		cues, track.Trim.Start, track.Trim.End, track.Offline, track.OfflineBlobID, track.Gain,
		now, track.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.ID)
	}

	track.UpdatedAt = now
	return nil
}

// Delete soft-deletes a track by ID
func (r *TrackRepository) Delete(id string) error {
	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}

	return nil
}

// List retrieves all tracks matching the given criteria, excluding soft-deleted tracks.
//
// Supported criteria: "source_kind" (string), "offline" (bool), "genre" (string), "composer" (string).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE deleted_at IS NULL`
	args := []any{}

	if kind, ok := criteria["source_kind"].(string); ok && kind != "" {
		query += " AND source_kind = ?"
		args = append(args, kind)
	}

	if offline, ok := criteria["offline"].(bool); ok {
		query += " AND offline = ?"
		args = append(args, offline)
	}

	if genre, ok := criteria["genre"].(string); ok && genre != "" {
		query += " AND genre = ?"
		args = append(args, genre)
	}

	if composer, ok := criteria["composer"].(string); ok && composer != "" {
		query += " AND composer = ?"
		args = append(args, composer)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := []*models.Track{}
	for rows.Next() {
		track, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// scan reads one row selected with trackColumns into a [models.Track]
func (r *TrackRepository) scan(row scanner) (*models.Track, error) {
	var (
		track                              models.Track
		kind, blobID, provider, fileID, url string
		cues                               string
	)

	err := row.Scan(
		&track.ID, &track.Title, &track.Composer, &track.Album, &track.Genre, &track.BPM, &track.TonalKey, &track.Duration,
		&kind, &blobID, &provider, &fileID, &url,
		&cues, &track.Trim.Start, &track.Trim.End, &track.Offline, &track.OfflineBlobID, &track.Gain,
		&track.CreatedAt, &track.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	if track.CuePoints, err = decodeFloats(cues); err != nil {
		return nil, fmt.Errorf("failed to decode cue points for %s: %w", track.ID, err)
	}
	if track.Source, err = models.NewSource(models.SourceKind(kind), blobID, provider, fileID, url); err != nil {
		return nil, fmt.Errorf("failed to decode source for %s: %w", track.ID, err)
	}

	return &track, nil
}

func flattenSource(src models.Source) (kind models.SourceKind, blobID, provider, fileID, url string) {
	switch s := src.(type) {
	case models.LocalBlob:
		return models.SourceLocal, s.BlobID, "", "", ""
	case models.CloudRef:
		return models.SourceCloud, "", s.Provider, s.FileID, ""
	case models.RemoteURL:
		return models.SourceRemote, "", "", "", s.URL
	default:
		return models.SourceNone, "", "", "", ""
	}
}
