package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-ops-api/internal/models"
)

const (
	subjectColumns = "id, code, name, description, active, created_at, updated_at"
	levelColumns   = "id, subject_id, semester, code, name, sessions_count, created_at, updated_at"
)

// SubjectRepository handles persistence for subjects and their levels.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects with total count.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	base := "FROM subjects WHERE 1=1"
	var w where
	if filter.Active != nil {
		w.add("active = ?", *filter.Active)
	}
	if filter.Search != "" {
		w.add("(LOWER(name) LIKE ? OR LOWER(code) LIKE ?)", "%"+strings.ToLower(filter.Search)+"%")
	}
	base += w.sql()

	order := orderBy(filter.SortBy, filter.SortOrder, map[string]string{
		"code":       "code",
		"name":       "name",
		"created_at": "created_at",
	}, "name", "ASC")

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s", subjectColumns, base, order, limitOffset(filter.Page, filter.PageSize))
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}
	return subjects, total, nil
}

// FindByID retrieves a subject by its id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, fmt.Sprintf("SELECT %s FROM subjects WHERE id = $1", subjectColumns), id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindByCode retrieves a subject by code, case-insensitively.
func (r *SubjectRepository) FindByCode(ctx context.Context, code string) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, fmt.Sprintf("SELECT %s FROM subjects WHERE UPPER(code) = UPPER($1)", subjectColumns), code); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ExistsByCode checks if another subject uses the code.
func (r *SubjectRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	query := "SELECT 1 FROM subjects WHERE UPPER(code) = UPPER($1)"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check subject code: %w", err)
	}
	return true, nil
}

// Create inserts a subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (id, code, name, description, active, created_at, updated_at)
		VALUES (:id, :code, :name, :description, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies a subject.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET code = :code, name = :name, description = :description, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// Delete removes a subject; its levels cascade.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM subjects WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}

// ListLevels returns a subject's levels ordered by semester.
func (r *SubjectRepository) ListLevels(ctx context.Context, subjectID string) ([]models.SubjectLevel, error) {
	var levels []models.SubjectLevel
	query := fmt.Sprintf("SELECT %s FROM subject_levels WHERE subject_id = $1 ORDER BY semester", levelColumns)
	if err := r.db.SelectContext(ctx, &levels, query, subjectID); err != nil {
		return nil, fmt.Errorf("list subject levels: %w", err)
	}
	return levels, nil
}

// FindLevelByID retrieves a subject level.
func (r *SubjectRepository) FindLevelByID(ctx context.Context, id string) (*models.SubjectLevel, error) {
	var level models.SubjectLevel
	if err := r.db.GetContext(ctx, &level, fmt.Sprintf("SELECT %s FROM subject_levels WHERE id = $1", levelColumns), id); err != nil {
		return nil, err
	}
	return &level, nil
}

// FindLevelByCode matches a level code exactly, ignoring case and surrounding spaces.
func (r *SubjectRepository) FindLevelByCode(ctx context.Context, code string) (*models.SubjectLevel, error) {
	var level models.SubjectLevel
	query := fmt.Sprintf("SELECT %s FROM subject_levels WHERE UPPER(TRIM(code)) = UPPER(TRIM($1)) ORDER BY created_at LIMIT 1", levelColumns)
	if err := r.db.GetContext(ctx, &level, query, code); err != nil {
		return nil, err
	}
	return &level, nil
}

// FindLevelBySubjectSemester resolves the level of a subject code at a semester.
func (r *SubjectRepository) FindLevelBySubjectSemester(ctx context.Context, subjectCode string, semester int) (*models.SubjectLevel, error) {
	const query = `SELECT sl.id, sl.subject_id, sl.semester, sl.code, sl.name, sl.sessions_count, sl.created_at, sl.updated_at
		FROM subject_levels sl JOIN subjects s ON s.id = sl.subject_id
		WHERE UPPER(s.code) = UPPER($1) AND sl.semester = $2`
	var level models.SubjectLevel
	if err := r.db.GetContext(ctx, &level, query, subjectCode, semester); err != nil {
		return nil, err
	}
	return &level, nil
}

// ExistsLevel checks whether a subject already has a level for semester.
func (r *SubjectRepository) ExistsLevel(ctx context.Context, subjectID string, semester int, excludeID string) (bool, error) {
	query := "SELECT 1 FROM subject_levels WHERE subject_id = $1 AND semester = $2"
	args := []interface{}{subjectID, semester}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check subject level: %w", err)
	}
	return true, nil
}

// CreateLevel inserts a subject level.
func (r *SubjectRepository) CreateLevel(ctx context.Context, level *models.SubjectLevel) error {
	if level.ID == "" {
		level.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	level.CreatedAt = now
	level.UpdatedAt = now
	const query = `INSERT INTO subject_levels (id, subject_id, semester, code, name, sessions_count, created_at, updated_at)
		VALUES (:id, :subject_id, :semester, :code, :name, :sessions_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, level); err != nil {
		return fmt.Errorf("create subject level: %w", err)
	}
	return nil
}

// UpdateLevel modifies a subject level.
func (r *SubjectRepository) UpdateLevel(ctx context.Context, level *models.SubjectLevel) error {
	level.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subject_levels SET semester = :semester, code = :code, name = :name, sessions_count = :sessions_count, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, level); err != nil {
		return fmt.Errorf("update subject level: %w", err)
	}
	return nil
}

// DeleteLevel removes a subject level.
func (r *SubjectRepository) DeleteLevel(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM subject_levels WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete subject level: %w", err)
	}
	return nil
}
