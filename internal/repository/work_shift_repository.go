package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-ops-api/internal/models"
)

const workShiftSelect = `SELECT ws.id, ws.teacher_id, ws.shift_id, ws.date, ws.status, ws.note, ws.created_at, ws.updated_at,
	s.name AS shift_name, s.start_time, s.end_time
	FROM work_shifts ws JOIN shifts s ON s.id = ws.shift_id`

// WorkShiftRepository stores teacher shift rosters.
type WorkShiftRepository struct {
	db *sqlx.DB
}

// NewWorkShiftRepository constructs a WorkShiftRepository.
func NewWorkShiftRepository(db *sqlx.DB) *WorkShiftRepository {
	return &WorkShiftRepository{db: db}
}

// List returns work shifts matching filter with their shift windows.
func (r *WorkShiftRepository) List(ctx context.Context, filter models.WorkShiftFilter) ([]models.WorkShift, int, error) {
	var w where
	if filter.TeacherID != "" {
		w.add("ws.teacher_id = ?", filter.TeacherID)
	}
	if filter.ShiftID != "" {
		w.add("ws.shift_id = ?", filter.ShiftID)
	}
	if filter.DateFrom != nil {
		w.add("ws.date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		w.add("ws.date <= ?", *filter.DateTo)
	}
	if filter.Status != "" {
		w.add("ws.status = ?", filter.Status)
	}
	cond := " WHERE 1=1" + w.sql()

	query := fmt.Sprintf("%s%s ORDER BY ws.date, s.start_time, ws.teacher_id %s", workShiftSelect, cond, limitOffset(filter.Page, filter.PageSize))
	var shifts []models.WorkShift
	if err := r.db.SelectContext(ctx, &shifts, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list work shifts: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM work_shifts ws"+cond, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count work shifts: %w", err)
	}
	return shifts, total, nil
}

// ListScheduledOn returns every scheduled work shift on date.
func (r *WorkShiftRepository) ListScheduledOn(ctx context.Context, date time.Time) ([]models.WorkShift, error) {
	var shifts []models.WorkShift
	query := workShiftSelect + " WHERE ws.date = $1 AND ws.status = $2 ORDER BY ws.teacher_id, s.start_time"
	if err := r.db.SelectContext(ctx, &shifts, query, date, models.WorkShiftScheduled); err != nil {
		return nil, fmt.Errorf("list work shifts on date: %w", err)
	}
	return shifts, nil
}

// ListByTeacherDate returns a teacher's work shifts on date.
func (r *WorkShiftRepository) ListByTeacherDate(ctx context.Context, teacherID string, date time.Time) ([]models.WorkShift, error) {
	var shifts []models.WorkShift
	query := workShiftSelect + " WHERE ws.teacher_id = $1 AND ws.date = $2 ORDER BY s.start_time"
	if err := r.db.SelectContext(ctx, &shifts, query, teacherID, date); err != nil {
		return nil, fmt.Errorf("list teacher work shifts: %w", err)
	}
	return shifts, nil
}

// FindByID returns a work shift by id.
func (r *WorkShiftRepository) FindByID(ctx context.Context, id string) (*models.WorkShift, error) {
	var shift models.WorkShift
	if err := r.db.GetContext(ctx, &shift, workShiftSelect+" WHERE ws.id = $1", id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// Create inserts a work shift. A duplicate (teacher, date, shift) surfaces as a unique violation.
func (r *WorkShiftRepository) Create(ctx context.Context, shift *models.WorkShift) error {
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	shift.CreatedAt = now
	shift.UpdatedAt = now
	if shift.Status == "" {
		shift.Status = models.WorkShiftScheduled
	}
	const query = `INSERT INTO work_shifts (id, teacher_id, shift_id, date, status, note, created_at, updated_at)
		VALUES (:id, :teacher_id, :shift_id, :date, :status, :note, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, shift); err != nil {
		return fmt.Errorf("create work shift: %w", err)
	}
	return nil
}

// CreateIgnoringDuplicates inserts shifts in one transaction and returns the
// ones that already existed instead of failing on them.
func (r *WorkShiftRepository) CreateIgnoringDuplicates(ctx context.Context, shifts []models.WorkShift) (created []models.WorkShift, duplicates []models.WorkShift, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin work shift bulk: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO work_shifts (id, teacher_id, shift_id, date, status, note, created_at, updated_at)
		VALUES (:id, :teacher_id, :shift_id, :date, :status, :note, :created_at, :updated_at)
		ON CONFLICT (teacher_id, date, shift_id) DO NOTHING`
	now := time.Now().UTC()
	for i := range shifts {
		shift := shifts[i]
		if shift.ID == "" {
			shift.ID = uuid.NewString()
		}
		if shift.Status == "" {
			shift.Status = models.WorkShiftScheduled
		}
		shift.CreatedAt = now
		shift.UpdatedAt = now
		res, execErr := tx.NamedExecContext(ctx, query, shift)
		if execErr != nil {
			err = fmt.Errorf("bulk create work shift: %w", execErr)
			return nil, nil, err
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			duplicates = append(duplicates, shift)
			continue
		}
		created = append(created, shift)
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit work shift bulk: %w", err)
	}
	return created, duplicates, nil
}

// Delete removes a work shift.
func (r *WorkShiftRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM work_shifts WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete work shift: %w", err)
	}
	return nil
}
