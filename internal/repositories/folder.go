package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// FolderRepository implements models.Repository[*models.Folder].
type FolderRepository struct {
	db *sql.DB
}

// NewFolderRepository creates a new FolderRepository with the given database connection
func NewFolderRepository(db *sql.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// Create inserts a folder and its track list. A non-empty ParentID must name a live folder.
func (r *FolderRepository) Create(folder *models.Folder) error {
	if folder.ID == "" {
		folder.ID = shared.GenerateID()
	}
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = time.Now()
	}
	if folder.UpdatedAt.IsZero() {
		folder.UpdatedAt = folder.CreatedAt
	}

	if err := folder.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := r.checkParent(folder); err != nil {
		return err
	}

	sequence, err := NextSequence(r.db, "folders")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO folders (id, sequence, name, parent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.Exec(query, folder.ID, sequence, folder.Name, folder.ParentID, folder.CreatedAt, folder.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert folder: %w", err)
	}

	if err := replaceMembers(tx, "folder_tracks", "folder_id", folder.ID, folder.TrackIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// Get retrieves a folder by ID with its track ids
func (r *FolderRepository) Get(id string) (*models.Folder, error) {
	query := `
		SELECT id, name, parent_id, created_at, updated_at
		FROM folders
		WHERE id = ? AND deleted_at IS NULL
	`

	folder, err := r.scan(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrFolderNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if folder.TrackIDs, err = loadMembers(r.db, "folder_tracks", "folder_id", id); err != nil {
		return nil, err
	}
	return folder, nil
}

// Update renames or re-parents a folder and replaces its track list
func (r *FolderRepository) Update(folder *models.Folder) error {
	if err := folder.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := r.checkParent(folder); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.Exec(`
		UPDATE folders
		SET name = ?, parent_id = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, folder.Name, folder.ParentID, now, folder.ID)
	if err != nil {
		return fmt.Errorf("failed to update folder: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrFolderNotFound, folder.ID)
	}

	if err := replaceMembers(tx, "folder_tracks", "folder_id", folder.ID, folder.TrackIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit folder: %w", err)
	}
	folder.UpdatedAt = now
	return nil
}

// Delete soft-deletes a folder. Child folders are re-parented to the deleted folder's parent.
func (r *FolderRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var parentID string
	err = tx.QueryRow("SELECT parent_id FROM folders WHERE id = ? AND deleted_at IS NULL", id).Scan(&parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", shared.ErrFolderNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read folder: %w", err)
	}

	if _, err := tx.Exec("UPDATE folders SET deleted_at = ? WHERE id = ?", time.Now(), id); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	if _, err := tx.Exec("UPDATE folders SET parent_id = ? WHERE parent_id = ? AND deleted_at IS NULL", parentID, id); err != nil {
		return fmt.Errorf("failed to re-parent children: %w", err)
	}

	return tx.Commit()
}

// List retrieves folders. Supported criteria: "parent_id" (string, "" for top level when present).
func (r *FolderRepository) List(criteria map[string]any) ([]*models.Folder, error) {
	query := `
		SELECT id, name, parent_id, created_at, updated_at
		FROM folders
		WHERE deleted_at IS NULL
	`
	args := []any{}

	if parentID, ok := criteria["parent_id"].(string); ok {
		query += " AND parent_id = ?"
		args = append(args, parentID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}

	folders := []*models.Folder{}
	for rows.Next() {
		folder, err := r.scan(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	for _, f := range folders {
		if f.TrackIDs, err = loadMembers(r.db, "folder_tracks", "folder_id", f.ID); err != nil {
			return nil, err
		}
	}
	return folders, nil
}

func (r *FolderRepository) checkParent(folder *models.Folder) error {
	if folder.ParentID == "" {
		return nil
	}
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM folders WHERE id = ? AND deleted_at IS NULL", folder.ParentID).Scan(&n); err != nil {
		return fmt.Errorf("failed to check parent folder: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: parent %s", shared.ErrFolderNotFound, folder.ParentID)
	}
	return nil
}

func (r *FolderRepository) scan(row scanner) (*models.Folder, error) {
	var f models.Folder

	err := row.Scan(&f.ID, &f.Name, &f.ParentID, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan folder: %w", err)
	}

	f.TrackIDs = []string{}
	return &f, nil
}
