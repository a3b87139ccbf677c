// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type,
// handling CRUD operations, soft deletes, and sequence generation.
package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers provide stable library ordering (import order for tracks, creation order for playlists).
// They are NOT exposed in CLI output but used internally for sorting.
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// replaceMembers rewrites the ordered id list of a junction table inside tx.
func replaceMembers(tx *sql.Tx, table, ownerColumn, ownerID string, trackIDs []string) error {
	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, ownerColumn), ownerID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s, track_id, position) VALUES (?, ?, ?)", table, ownerColumn)
	for i, trackID := range trackIDs {
		if _, err := tx.Exec(insert, ownerID, trackID, i); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

// loadMembers reads the ordered id list of a junction table.
func loadMembers(db *sql.DB, table, ownerColumn, ownerID string) ([]string, error) {
	rows, err := db.Query(fmt.Sprintf("SELECT track_id FROM %s WHERE %s = ? ORDER BY position ASC", table, ownerColumn), ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func encodeFloats(values []float64) (string, error) {
	if values == nil {
		values = []float64{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeFloats(s string) ([]float64, error) {
	values := []float64{}
	if s == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, err
	}
	return values, nil
}
