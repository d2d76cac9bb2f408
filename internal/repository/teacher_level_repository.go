package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-ops-api/internal/models"
)

// TeacherLevelRepository persists teacher qualifications per subject level.
type TeacherLevelRepository struct {
	db *sqlx.DB
}

// NewTeacherLevelRepository constructs a TeacherLevelRepository.
func NewTeacherLevelRepository(db *sqlx.DB) *TeacherLevelRepository {
	return &TeacherLevelRepository{db: db}
}

// ListByTeacher returns a teacher's levels with subject labels.
func (r *TeacherLevelRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherLevelDetail, error) {
	const query = `SELECT tl.id, tl.teacher_id, tl.subject_level_id, tl.experience_years, tl.certifications, tl.created_at,
		sl.code AS level_code, sl.name AS level_name, s.name AS subject_name
		FROM teacher_levels tl
		JOIN subject_levels sl ON sl.id = tl.subject_level_id
		JOIN subjects s ON s.id = sl.subject_id
		WHERE tl.teacher_id = $1
		ORDER BY s.name, sl.semester`
	var levels []models.TeacherLevelDetail
	if err := r.db.SelectContext(ctx, &levels, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher levels: %w", err)
	}
	return levels, nil
}

// ListByLevel returns every qualification for a subject level.
func (r *TeacherLevelRepository) ListByLevel(ctx context.Context, subjectLevelID string) ([]models.TeacherLevel, error) {
	const query = `SELECT id, teacher_id, subject_level_id, experience_years, certifications, created_at
		FROM teacher_levels WHERE subject_level_id = $1 ORDER BY teacher_id`
	var levels []models.TeacherLevel
	if err := r.db.SelectContext(ctx, &levels, query, subjectLevelID); err != nil {
		return nil, fmt.Errorf("list level teachers: %w", err)
	}
	return levels, nil
}

// Create links a teacher to a level.
func (r *TeacherLevelRepository) Create(ctx context.Context, level *models.TeacherLevel) error {
	if level.ID == "" {
		level.ID = uuid.NewString()
	}
	if level.CreatedAt.IsZero() {
		level.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_levels (id, teacher_id, subject_level_id, experience_years, certifications, created_at)
		VALUES (:id, :teacher_id, :subject_level_id, :experience_years, :certifications, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, level); err != nil {
		return fmt.Errorf("create teacher level: %w", err)
	}
	return nil
}

// Delete removes a teacher's qualification for a level. It reports whether a row was removed.
func (r *TeacherLevelRepository) Delete(ctx context.Context, teacherID, subjectLevelID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teacher_levels WHERE teacher_id = $1 AND subject_level_id = $2`, teacherID, subjectLevelID)
	if err != nil {
		return false, fmt.Errorf("delete teacher level: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete teacher level: %w", err)
	}
	return n > 0, nil
}
