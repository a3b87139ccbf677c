package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// PresetRepository implements models.Repository[*models.EffectPreset].
//
// Presets are hard deleted and their names are unique; parameters are stored as JSON.
type PresetRepository struct {
	db *sql.DB
}

// NewPresetRepository creates a new PresetRepository with the given database connection
func NewPresetRepository(db *sql.DB) *PresetRepository {
	return &PresetRepository{db: db}
}

// Create inserts a preset, generating an ID when none is set
func (r *PresetRepository) Create(preset *models.EffectPreset) error {
	sequence, err := NextSequence(r.db, "presets")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if preset.ID == "" {
		preset.ID = shared.GenerateID()
	}
	if preset.CreatedAt.IsZero() {
		preset.CreatedAt = time.Now()
	}
	if preset.UpdatedAt.IsZero() {
		preset.UpdatedAt = preset.CreatedAt
	}
	if err := preset.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	params, err := json.Marshal(preset.Params)
	if err != nil {
		return fmt.Errorf("failed to encode preset params: %w", err)
	}

	query := `
		INSERT INTO presets (id, sequence, name, environment, params, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, preset.ID, sequence, preset.Name, string(preset.Environment), string(params), preset.CreatedAt, preset.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("%w: preset %q already exists", shared.ErrInvalidInput, preset.Name)
		}
		return fmt.Errorf("failed to insert preset: %w", err)
	}

	return nil
}

// Get retrieves a preset by ID
func (r *PresetRepository) Get(id string) (*models.EffectPreset, error) {
	query := `SELECT id, name, environment, params, created_at, updated_at FROM presets WHERE id = ?`

	preset, err := r.scan(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPresetNotFound, id)
	}
	return preset, err
}

// GetByName retrieves a preset by its unique name
func (r *PresetRepository) GetByName(name string) (*models.EffectPreset, error) {
	query := `SELECT id, name, environment, params, created_at, updated_at FROM presets WHERE name = ?`

	preset, err := r.scan(r.db.QueryRow(query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPresetNotFound, name)
	}
	return preset, err
}

// Update overwrites a preset's name, environment and parameters
func (r *PresetRepository) Update(preset *models.EffectPreset) error {
	if err := preset.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	params, err := json.Marshal(preset.Params)
	if err != nil {
		return fmt.Errorf("failed to encode preset params: %w", err)
	}

	now := time.Now()
	result, err := r.db.Exec(`
		UPDATE presets
		SET name = ?, environment = ?, params = ?, updated_at = ?
		WHERE id = ?
	`, preset.Name, string(preset.Environment), string(params), now, preset.ID)
	if err != nil {
		return fmt.Errorf("failed to update preset: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPresetNotFound, preset.ID)
	}

	preset.UpdatedAt = now
	return nil
}

// Delete removes a preset by ID
func (r *PresetRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM presets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPresetNotFound, id)
	}
	return nil
}

// List retrieves all presets ordered by creation
func (r *PresetRepository) List(criteria map[string]any) ([]*models.EffectPreset, error) {
	query := `SELECT id, name, environment, params, created_at, updated_at FROM presets`
	args := []any{}

	if env, ok := criteria["environment"].(string); ok && env != "" {
		query += " WHERE environment = ?"
		args = append(args, env)
	}
	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query presets: %w", err)
	}
	defer rows.Close()

	presets := []*models.EffectPreset{}
	for rows.Next() {
		preset, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, preset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return presets, nil
}

func (r *PresetRepository) scan(row scanner) (*models.EffectPreset, error) {
	var (
		p      models.EffectPreset
		env    string
		params string
	)

	err := row.Scan(&p.ID, &p.Name, &env, &params, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan preset: %w", err)
	}

	p.Environment = models.Environment(env)
	if err := json.Unmarshal([]byte(params), &p.Params); err != nil {
		return nil, fmt.Errorf("failed to decode preset params: %w", err)
	}
	return &p, nil
}
