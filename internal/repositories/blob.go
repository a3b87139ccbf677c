package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tapedeck/internal/shared"
)

// Blob is a stored chunk of owned audio bytes.
type Blob struct {
	ID        string
	MimeType  string
	Data      []byte
	CreatedAt time.Time
}

// BlobRepository stores imported audio files and offline copies in the blobs table.
type BlobRepository struct {
	db *sql.DB
}

// NewBlobRepository creates a new BlobRepository with the given database connection
func NewBlobRepository(db *sql.DB) *BlobRepository {
	return &BlobRepository{db: db}
}

// Put stores data under a new id and returns it
func (r *BlobRepository) Put(data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty blob", shared.ErrInvalidInput)
	}

	id := shared.GenerateID()
	_, err := r.db.Exec(
		"INSERT INTO blobs (id, mime_type, size, data, created_at) VALUES (?, ?, ?, ?, ?)",
		id, mimeType, len(data), data, time.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert blob: %w", err)
	}
	return id, nil
}

// Get returns the blob stored under id
func (r *BlobRepository) Get(id string) (*Blob, error) {
	var b Blob
	err := r.db.QueryRow("SELECT id, mime_type, data, created_at FROM blobs WHERE id = ?", id).
		Scan(&b.ID, &b.MimeType, &b.Data, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrBlobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return &b, nil
}

// Delete removes the blob stored under id
func (r *BlobRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM blobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrBlobNotFound, id)
	}
	return nil
}

// Usage reports the number of stored blobs and their total size in bytes
func (r *BlobRepository) Usage() (count int, bytes int64, err error) {
	err = r.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(size), 0) FROM blobs").Scan(&count, &bytes)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read blob usage: %w", err)
	}
	return count, bytes, nil
}
