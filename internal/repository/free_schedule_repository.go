package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-ops-api/internal/models"
)

const freeScheduleColumns = "id, teacher_id, day_of_week, start_time, end_time, note, created_at, updated_at"

// FreeScheduleRepository stores teachers' weekly free windows.
type FreeScheduleRepository struct {
	db *sqlx.DB
}

// NewFreeScheduleRepository constructs a FreeScheduleRepository.
func NewFreeScheduleRepository(db *sqlx.DB) *FreeScheduleRepository {
	return &FreeScheduleRepository{db: db}
}

// List returns free schedules matching filter.
func (r *FreeScheduleRepository) List(ctx context.Context, filter models.FreeScheduleFilter) ([]models.FreeSchedule, int, error) {
	base := "FROM free_schedules WHERE 1=1"
	var w where
	if filter.TeacherID != "" {
		w.add("teacher_id = ?", filter.TeacherID)
	}
	if filter.DayOfWeek != "" {
		w.add("day_of_week = ?", filter.DayOfWeek)
	}
	base += w.sql()

	query := fmt.Sprintf("SELECT %s %s ORDER BY teacher_id, day_of_week, start_time %s", freeScheduleColumns, base, limitOffset(filter.Page, filter.PageSize))
	var schedules []models.FreeSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list free schedules: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count free schedules: %w", err)
	}
	return schedules, total, nil
}

// ListByDay returns every teacher's free windows on a weekday.
func (r *FreeScheduleRepository) ListByDay(ctx context.Context, dayOfWeek string) ([]models.FreeSchedule, error) {
	var schedules []models.FreeSchedule
	query := fmt.Sprintf("SELECT %s FROM free_schedules WHERE day_of_week = $1 ORDER BY teacher_id, start_time", freeScheduleColumns)
	if err := r.db.SelectContext(ctx, &schedules, query, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list free schedules by day: %w", err)
	}
	return schedules, nil
}

// ListByTeacherDay returns a teacher's free windows on a weekday.
func (r *FreeScheduleRepository) ListByTeacherDay(ctx context.Context, teacherID, dayOfWeek string) ([]models.FreeSchedule, error) {
	var schedules []models.FreeSchedule
	query := fmt.Sprintf("SELECT %s FROM free_schedules WHERE teacher_id = $1 AND day_of_week = $2 ORDER BY start_time", freeScheduleColumns)
	if err := r.db.SelectContext(ctx, &schedules, query, teacherID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list teacher free schedules: %w", err)
	}
	return schedules, nil
}

// FindByID returns a free schedule by id.
func (r *FreeScheduleRepository) FindByID(ctx context.Context, id string) (*models.FreeSchedule, error) {
	var schedule models.FreeSchedule
	if err := r.db.GetContext(ctx, &schedule, fmt.Sprintf("SELECT %s FROM free_schedules WHERE id = $1", freeScheduleColumns), id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Create inserts a free schedule.
func (r *FreeScheduleRepository) Create(ctx context.Context, schedule *models.FreeSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	const query = `INSERT INTO free_schedules (id, teacher_id, day_of_week, start_time, end_time, note, created_at, updated_at)
		VALUES (:id, :teacher_id, :day_of_week, :start_time, :end_time, :note, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create free schedule: %w", err)
	}
	return nil
}

// Delete removes a free schedule.
func (r *FreeScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM free_schedules WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete free schedule: %w", err)
	}
	return nil
}
