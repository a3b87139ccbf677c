package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// PlaylistRepository implements models.Repository[*models.Playlist].
//
// Playlist membership lives in playlist_tracks and is rewritten wholesale on every save.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist and its track list, generating an ID when none is set.
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if playlist.ID == "" {
		playlist.ID = shared.GenerateID()
	}
	if playlist.CreatedAt.IsZero() {
		playlist.CreatedAt = time.Now()
	}
	if playlist.UpdatedAt.IsZero() {
		playlist.UpdatedAt = playlist.CreatedAt
	}

	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO playlists (id, sequence, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.Exec(query, playlist.ID, sequence, playlist.Name, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	if err := replaceMembers(tx, "playlist_tracks", "playlist_id", playlist.ID, playlist.TrackIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// Get retrieves a playlist by ID with its ordered track ids, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM playlists
		WHERE id = ? AND deleted_at IS NULL
	`

	playlist, err := r.scan(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if playlist.TrackIDs, err = loadMembers(r.db, "playlist_tracks", "playlist_id", id); err != nil {
		return nil, err
	}
	return playlist, nil
}

// Update modifies an existing playlist and replaces its track list
func (r *PlaylistRepository) Update(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	query := `
		UPDATE playlists
		SET name = ?, description = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := tx.Exec(query, playlist.Name, playlist.Description, now, playlist.ID)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlist.ID)
	}

	if err := replaceMembers(tx, "playlist_tracks", "playlist_id", playlist.ID, playlist.TrackIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist: %w", err)
	}
	playlist.UpdatedAt = now
	return nil
}

// Delete soft-deletes a playlist by ID
func (r *PlaylistRepository) Delete(id string) error {
	query := `
		UPDATE playlists
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}

	return nil
}

// List retrieves all playlists, excluding soft-deleted playlists.
//
// Supported criteria: "name" (string, exact match) and "track_id" (string, playlists containing that track).
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.Playlist, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM playlists
		WHERE deleted_at IS NULL
	`
	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name = ?"
		args = append(args, name)
	}

	if trackID, ok := criteria["track_id"].(string); ok && trackID != "" {
		query += " AND id IN (SELECT playlist_id FROM playlist_tracks WHERE track_id = ?)"
		args = append(args, trackID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}

	playlists := []*models.Playlist{}
	for rows.Next() {
		playlist, err := r.scan(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	for _, p := range playlists {
		if p.TrackIDs, err = loadMembers(r.db, "playlist_tracks", "playlist_id", p.ID); err != nil {
			return nil, err
		}
	}

	return playlists, nil
}

// scan reads a playlist header row; track ids are loaded separately
func (r *PlaylistRepository) scan(row scanner) (*models.Playlist, error) {
	var p models.Playlist

	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	p.TrackIDs = []string{}
	return &p, nil
}
