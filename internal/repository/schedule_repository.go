package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-ops-api/internal/models"
)

const scheduleColumns = "id, class_id, teacher_id, day_of_week, start_time, end_time, room, created_at, updated_at"

const classScheduleSelect = `SELECT s.id, s.class_id, s.teacher_id, s.day_of_week, s.start_time, s.end_time, s.room, s.created_at, s.updated_at,
	c.name AS class_name, c.status AS class_status, c.start_date AS class_start_date, c.end_date AS class_end_date
	FROM schedules s JOIN classes c ON c.id = s.class_id`

// ScheduleRepository manages fixed weekly class schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedules using the provided filters.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	base := "FROM schedules WHERE 1=1"
	var w where
	if filter.ClassID != "" {
		w.add("class_id = ?", filter.ClassID)
	}
	if filter.TeacherID != "" {
		w.add("teacher_id = ?", filter.TeacherID)
	}
	if filter.DayOfWeek != "" {
		w.add("day_of_week = ?", filter.DayOfWeek)
	}
	base += w.sql()

	order := orderBy(filter.SortBy, filter.SortOrder, map[string]string{
		"day_of_week": "day_of_week",
		"start_time":  "start_time",
		"created_at":  "created_at",
	}, "start_time", "ASC")

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s", scheduleColumns, base, order, limitOffset(filter.Page, filter.PageSize))
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}
	return schedules, total, nil
}

// FindByID returns a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, fmt.Sprintf("SELECT %s FROM schedules WHERE id = $1", scheduleColumns), id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListByTeacherDay returns a teacher's schedules on a weekday, joined with class state.
func (r *ScheduleRepository) ListByTeacherDay(ctx context.Context, teacherID, dayOfWeek string) ([]models.ClassSchedule, error) {
	var schedules []models.ClassSchedule
	query := classScheduleSelect + " WHERE s.teacher_id = $1 AND s.day_of_week = $2 ORDER BY s.start_time"
	if err := r.db.SelectContext(ctx, &schedules, query, teacherID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list teacher schedules: %w", err)
	}
	return schedules, nil
}

// ListBindingOn returns every schedule on date's weekday whose class is
// pending or active and whose term contains date.
func (r *ScheduleRepository) ListBindingOn(ctx context.Context, dayOfWeek string, date time.Time) ([]models.ClassSchedule, error) {
	var schedules []models.ClassSchedule
	query := classScheduleSelect + ` WHERE s.day_of_week = $1 AND c.status IN ('pending', 'active')
		AND c.start_date <= $2 AND c.end_date >= $2 ORDER BY s.teacher_id, s.start_time`
	if err := r.db.SelectContext(ctx, &schedules, query, dayOfWeek, date); err != nil {
		return nil, fmt.Errorf("list binding schedules: %w", err)
	}
	return schedules, nil
}

// Create inserts a schedule.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	const query = `INSERT INTO schedules (id, class_id, teacher_id, day_of_week, start_time, end_time, room, created_at, updated_at)
		VALUES (:id, :class_id, :teacher_id, :day_of_week, :start_time, :end_time, :room, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update modifies a schedule.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET class_id = :class_id, teacher_id = :teacher_id, day_of_week = :day_of_week, start_time = :start_time,
		end_time = :end_time, room = :room, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM schedules WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
