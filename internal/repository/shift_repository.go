package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-ops-api/internal/models"
)

// ShiftRepository stores named shift windows.
type ShiftRepository struct {
	db *sqlx.DB
}

// NewShiftRepository constructs a ShiftRepository.
func NewShiftRepository(db *sqlx.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// List returns all shifts ordered by start time.
func (r *ShiftRepository) List(ctx context.Context) ([]models.Shift, error) {
	var shifts []models.Shift
	if err := r.db.SelectContext(ctx, &shifts, "SELECT id, name, start_time, end_time, created_at, updated_at FROM shifts ORDER BY start_time, name"); err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return shifts, nil
}

// FindByID returns a shift by id.
func (r *ShiftRepository) FindByID(ctx context.Context, id string) (*models.Shift, error) {
	var shift models.Shift
	if err := r.db.GetContext(ctx, &shift, "SELECT id, name, start_time, end_time, created_at, updated_at FROM shifts WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// Create inserts a shift.
func (r *ShiftRepository) Create(ctx context.Context, shift *models.Shift) error {
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	shift.CreatedAt = now
	shift.UpdatedAt = now
	const query = `INSERT INTO shifts (id, name, start_time, end_time, created_at, updated_at)
		VALUES (:id, :name, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, shift); err != nil {
		return fmt.Errorf("create shift: %w", err)
	}
	return nil
}

// Update modifies a shift.
func (r *ShiftRepository) Update(ctx context.Context, shift *models.Shift) error {
	shift.UpdatedAt = time.Now().UTC()
	const query = `UPDATE shifts SET name = :name, start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, shift); err != nil {
		return fmt.Errorf("update shift: %w", err)
	}
	return nil
}

// Delete removes a shift.
func (r *ShiftRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM shifts WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	return nil
}
