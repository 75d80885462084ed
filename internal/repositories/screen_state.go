package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/navigation"
	"github.com/desertthunder/mpdx/internal/shared"
)

const screenStateColumns = `id, sequence, screen_id, page, filter, sort, tag, search, scroll_pos, created_at, updated_at, deleted_at`

// ScreenStateRepository implements [models.Repository] for [models.ScreenState] persistence.
type ScreenStateRepository struct {
	db *sql.DB
}

// NewScreenStateRepository creates a new [ScreenStateRepository] with the given database connection
func NewScreenStateRepository(db *sql.DB) *ScreenStateRepository {
	return &ScreenStateRepository{db: db}
}

// Create inserts a new screen state with generated ID and sequence
func (r *ScreenStateRepository) Create(state *models.ScreenState) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "screen_states")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	state.SetID(shared.GenerateID())
	state.SetSequence(sequence)
	p := state.Params()

	query := `
		INSERT INTO screen_states (id, sequence, screen_id, page, filter, sort, tag, search, scroll_pos, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, state.ID(), sequence, state.ScreenID(),
		p.Page, p.Filter, p.Sort, p.Tag, p.Search, p.ScrollPos, state.CreatedAt(), state.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert screen state: %w", err)
	}
	return nil
}

// Get retrieves a screen state by ID, excluding soft-deleted rows
func (r *ScreenStateRepository) Get(id string) (*models.ScreenState, error) {
	row := r.db.QueryRow(`SELECT `+screenStateColumns+` FROM screen_states WHERE id = ? AND deleted_at IS NULL`, id)
	state, err := scanScreenState(row)
	if err != nil {
		return nil, notFound(err, "screen_states", id)
	}
	return state, nil
}

// GetByScreen retrieves the live state for a screen ID such as "BrowseDatabaseList".
func (r *ScreenStateRepository) GetByScreen(screenID string) (*models.ScreenState, error) {
	row := r.db.QueryRow(`SELECT `+screenStateColumns+` FROM screen_states WHERE screen_id = ? AND deleted_at IS NULL`, screenID)
	state, err := scanScreenState(row)
	if err != nil {
		return nil, notFound(err, "screen_states", screenID)
	}
	return state, nil
}

// Update modifies an existing screen state
func (r *ScreenStateRepository) Update(state *models.ScreenState) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	state.SetUpdatedAt(now)
	p := state.Params()

	query := `
		UPDATE screen_states
		SET page = ?, filter = ?, sort = ?, tag = ?, search = ?, scroll_pos = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query, p.Page, p.Filter, p.Sort, p.Tag, p.Search, p.ScrollPos, now, state.ID())
	if err != nil {
		return fmt.Errorf("failed to update screen state: %w", err)
	}
	return expectRow(result, "screen_states", state.ID())
}

// Save stores params for screenID, creating the row on first use.
func (r *ScreenStateRepository) Save(screenID string, params navigation.Params) (*models.ScreenState, error) {
	state, err := r.GetByScreen(screenID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if state == nil {
		state = models.NewScreenState(0, screenID, params)
		if err := r.Create(state); err != nil {
			return nil, err
		}
		return state, nil
	}

	state.SetParams(params)
	if err := r.Update(state); err != nil {
		return nil, err
	}
	return state, nil
}

// Delete soft-deletes a screen state by ID
func (r *ScreenStateRepository) Delete(id string) error {
	return softDelete(r.db, "screen_states", id)
}

// List retrieves live screen states. The "screen_id" criterion filters by screen.
func (r *ScreenStateRepository) List(criteria map[string]any) ([]*models.ScreenState, error) {
	query := `SELECT ` + screenStateColumns + ` FROM screen_states WHERE deleted_at IS NULL`
	args := []any{}

	if id, ok := criteria["screen_id"].(string); ok && id != "" {
		query += " AND screen_id = ?"
		args = append(args, id)
	}
	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query screen states: %w", err)
	}
	defer rows.Close()

	var states []*models.ScreenState
	for rows.Next() {
		state, err := scanScreenState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan screen state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return states, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanScreenState(s scanner) (*models.ScreenState, error) {
	var (
		id, screenID string
		sequence     int
		p            navigation.Params
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := s.Scan(&id, &sequence, &screenID, &p.Page, &p.Filter, &p.Sort, &p.Tag, &p.Search, &p.ScrollPos,
		&createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	state := models.NewScreenState(sequence, screenID, p)
	state.SetID(id)
	state.SetCreatedAt(createdAt)
	state.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		state.SetDeletedAt(&deletedAt.Time)
	}
	return state, nil
}
