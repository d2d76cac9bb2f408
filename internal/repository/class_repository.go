package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-ops-api/internal/models"
)

const classDetailSelect = `SELECT c.id, c.name, c.subject_level_id, c.teacher_id, c.start_date, c.end_date, c.capacity, c.status, c.room,
	c.created_at, c.updated_at, t.full_name AS teacher_name, sl.code AS level_code, sl.name AS level_name
	FROM classes c
	LEFT JOIN teachers t ON t.id = c.teacher_id
	LEFT JOIN subject_levels sl ON sl.id = c.subject_level_id`

// ClassRepository manages persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes with populated teacher and level labels.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	var w where
	if filter.Status != "" {
		w.add("c.status = ?", filter.Status)
	}
	if filter.TeacherID != "" {
		w.add("c.teacher_id = ?", filter.TeacherID)
	}
	if filter.SubjectLevelID != "" {
		w.add("c.subject_level_id = ?", filter.SubjectLevelID)
	}
	if filter.Search != "" {
		w.add("(LOWER(c.name) LIKE ?)", "%"+strings.ToLower(filter.Search)+"%")
	}
	cond := " WHERE 1=1" + w.sql()

	order := orderBy(filter.SortBy, filter.SortOrder, map[string]string{
		"name":       "c.name",
		"start_date": "c.start_date",
		"end_date":   "c.end_date",
		"status":     "c.status",
		"created_at": "c.created_at",
	}, "c.created_at", "DESC")

	query := fmt.Sprintf("%s%s ORDER BY %s %s", classDetailSelect, cond, order, limitOffset(filter.Page, filter.PageSize))
	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM classes c"+cond, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID returns a class with populated labels.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	var class models.ClassDetail
	if err := r.db.GetContext(ctx, &class, classDetailSelect+" WHERE c.id = $1", id); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create inserts a class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, name, subject_level_id, teacher_id, start_date, end_date, capacity, status, room, created_at, updated_at)
		VALUES (:id, :name, :subject_level_id, :teacher_id, :start_date, :end_date, :capacity, :status, :room, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies a class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, subject_level_id = :subject_level_id, teacher_id = :teacher_id, start_date = :start_date,
		end_date = :end_date, capacity = :capacity, status = :status, room = :room, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Delete removes a class; its schedules cascade.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM classes WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}
