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

const makeupColumns = `id, kind, subject_level_id, class_id, class_name, teacher_id, scheduled_date, start_time, end_time, status,
	reason, requested_by, source, notes, assignment_history, created_at, updated_at`

const makeupDetailSelect = `SELECT m.id, m.kind, m.subject_level_id, m.class_id, m.class_name, m.teacher_id, m.scheduled_date, m.start_time,
	m.end_time, m.status, m.reason, m.requested_by, m.source, m.notes, m.assignment_history, m.created_at, m.updated_at,
	t.full_name AS teacher_name, sl.code AS level_code
	FROM makeup_classes m
	LEFT JOIN teachers t ON t.id = m.teacher_id
	LEFT JOIN subject_levels sl ON sl.id = m.subject_level_id`

// MakeupClassRepository persists offset, supplementary and test sessions.
type MakeupClassRepository struct {
	db *sqlx.DB
}

// NewMakeupClassRepository constructs a MakeupClassRepository.
func NewMakeupClassRepository(db *sqlx.DB) *MakeupClassRepository {
	return &MakeupClassRepository{db: db}
}

// List returns sessions with teacher and level labels.
func (r *MakeupClassRepository) List(ctx context.Context, filter models.MakeupClassFilter) ([]models.MakeupClassDetail, int, error) {
	var w where
	if filter.Kind != "" {
		w.add("m.kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		w.add("m.status = ?", filter.Status)
	}
	if filter.TeacherID != "" {
		w.add("m.teacher_id = ?", filter.TeacherID)
	}
	if filter.SubjectLevelID != "" {
		w.add("m.subject_level_id = ?", filter.SubjectLevelID)
	}
	if filter.DateFrom != nil {
		w.add("m.scheduled_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		w.add("m.scheduled_date <= ?", *filter.DateTo)
	}
	if filter.Search != "" {
		w.add("(LOWER(m.class_name) LIKE ? OR LOWER(COALESCE(m.requested_by, '')) LIKE ?)", "%"+strings.ToLower(filter.Search)+"%")
	}
	cond := " WHERE 1=1" + w.sql()

	order := orderBy(filter.SortBy, filter.SortOrder, map[string]string{
		"scheduled_date": "m.scheduled_date",
		"status":         "m.status",
		"class_name":     "m.class_name",
		"created_at":     "m.created_at",
	}, "m.scheduled_date", "ASC")

	query := fmt.Sprintf("%s%s ORDER BY %s, m.start_time ASC %s", makeupDetailSelect, cond, order, limitOffset(filter.Page, filter.PageSize))
	var sessions []models.MakeupClassDetail
	if err := r.db.SelectContext(ctx, &sessions, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list makeup classes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM makeup_classes m"+cond, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count makeup classes: %w", err)
	}
	return sessions, total, nil
}

// FindByID returns a session by id.
func (r *MakeupClassRepository) FindByID(ctx context.Context, id string) (*models.MakeupClass, error) {
	var session models.MakeupClass
	if err := r.db.GetContext(ctx, &session, fmt.Sprintf("SELECT %s FROM makeup_classes WHERE id = $1", makeupColumns), id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListPending returns pending sessions of a kind, optionally restricted to ids,
// in (date, start time, id) order.
func (r *MakeupClassRepository) ListPending(ctx context.Context, kind models.MakeupKind, ids []string) ([]models.MakeupClass, error) {
	query := fmt.Sprintf("SELECT %s FROM makeup_classes WHERE kind = ? AND status = ?", makeupColumns)
	args := []interface{}{kind, models.MakeupPending}
	if len(ids) > 0 {
		query += " AND id IN (?)"
		args = append(args, ids)
	}
	query += " ORDER BY scheduled_date, start_time, id"
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("build pending query: %w", err)
	}
	var sessions []models.MakeupClass
	if err := r.db.SelectContext(ctx, &sessions, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list pending makeup classes: %w", err)
	}
	return sessions, nil
}

// ListBookedBetween returns assigned or completed sessions of every kind dated within [from, to].
func (r *MakeupClassRepository) ListBookedBetween(ctx context.Context, from, to time.Time) ([]models.MakeupClass, error) {
	query := fmt.Sprintf(`SELECT %s FROM makeup_classes WHERE status IN ($1, $2) AND teacher_id IS NOT NULL
		AND scheduled_date >= $3 AND scheduled_date <= $4 ORDER BY scheduled_date, start_time`, makeupColumns)
	var sessions []models.MakeupClass
	if err := r.db.SelectContext(ctx, &sessions, query, models.MakeupAssigned, models.MakeupCompleted, from, to); err != nil {
		return nil, fmt.Errorf("list booked makeup classes: %w", err)
	}
	return sessions, nil
}

// ListByTeacherDate returns a teacher's booked sessions on a date.
func (r *MakeupClassRepository) ListByTeacherDate(ctx context.Context, teacherID string, date time.Time) ([]models.MakeupClass, error) {
	query := fmt.Sprintf(`SELECT %s FROM makeup_classes WHERE teacher_id = $1 AND scheduled_date = $2 AND status IN ($3, $4)
		ORDER BY start_time`, makeupColumns)
	var sessions []models.MakeupClass
	if err := r.db.SelectContext(ctx, &sessions, query, teacherID, date, models.MakeupAssigned, models.MakeupCompleted); err != nil {
		return nil, fmt.Errorf("list teacher makeup classes: %w", err)
	}
	return sessions, nil
}

// ListAssignedByTeacherBetween returns the sessions a teacher holds in assigned status dated within [from, to].
func (r *MakeupClassRepository) ListAssignedByTeacherBetween(ctx context.Context, teacherID string, from, to time.Time) ([]models.MakeupClass, error) {
	query := fmt.Sprintf(`SELECT %s FROM makeup_classes WHERE teacher_id = $1 AND status = $2
		AND scheduled_date >= $3 AND scheduled_date <= $4 ORDER BY scheduled_date, start_time`, makeupColumns)
	var sessions []models.MakeupClass
	if err := r.db.SelectContext(ctx, &sessions, query, teacherID, models.MakeupAssigned, from, to); err != nil {
		return nil, fmt.Errorf("list assigned makeup classes: %w", err)
	}
	return sessions, nil
}

// CountAssignedByTeacher returns how many sessions each teacher currently holds in assigned status.
func (r *MakeupClassRepository) CountAssignedByTeacher(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		TeacherID string `db:"teacher_id"`
		Count     int    `db:"count"`
	}
	const query = `SELECT teacher_id, COUNT(*) AS count FROM makeup_classes WHERE status = $1 AND teacher_id IS NOT NULL GROUP BY teacher_id`
	if err := r.db.SelectContext(ctx, &rows, query, models.MakeupAssigned); err != nil {
		return nil, fmt.Errorf("count assigned makeup classes: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.TeacherID] = row.Count
	}
	return counts, nil
}

// FindSameRequest returns live sessions of kind requested by email for the same
// class on the same date; callers check time overlap.
func (r *MakeupClassRepository) FindSameRequest(ctx context.Context, kind models.MakeupKind, email, className string, date time.Time) ([]models.MakeupClass, error) {
	query := fmt.Sprintf(`SELECT %s FROM makeup_classes WHERE kind = $1 AND LOWER(requested_by) = LOWER($2)
		AND UPPER(TRIM(class_name)) = UPPER(TRIM($3)) AND scheduled_date = $4 AND status <> $5`, makeupColumns)
	var sessions []models.MakeupClass
	if err := r.db.SelectContext(ctx, &sessions, query, kind, email, className, date, models.MakeupCancelled); err != nil {
		return nil, fmt.Errorf("find matching makeup classes: %w", err)
	}
	return sessions, nil
}

// Create inserts a session.
func (r *MakeupClassRepository) Create(ctx context.Context, session *models.MakeupClass) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	if len(session.AssignmentHistory) == 0 {
		session.AssignmentHistory = []byte("[]")
	}
	const query = `INSERT INTO makeup_classes (id, kind, subject_level_id, class_id, class_name, teacher_id, scheduled_date, start_time, end_time,
		status, reason, requested_by, source, notes, assignment_history, created_at, updated_at)
		VALUES (:id, :kind, :subject_level_id, :class_id, :class_name, :teacher_id, :scheduled_date, :start_time, :end_time,
		:status, :reason, :requested_by, :source, :notes, :assignment_history, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create makeup class: %w", err)
	}
	return nil
}

// UpdateDetails rewrites the descriptive fields of a session that is still open.
// It reports false when the session has since left pending/assigned.
func (r *MakeupClassRepository) UpdateDetails(ctx context.Context, session *models.MakeupClass) (bool, error) {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE makeup_classes SET subject_level_id = :subject_level_id, class_id = :class_id, class_name = :class_name,
		scheduled_date = :scheduled_date, start_time = :start_time, end_time = :end_time, reason = :reason, requested_by = :requested_by,
		notes = :notes, updated_at = :updated_at WHERE id = :id AND status IN ('pending', 'assigned')`
	res, err := r.db.NamedExecContext(ctx, query, session)
	if err != nil {
		return false, fmt.Errorf("update makeup class: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update makeup class: %w", err)
	}
	return n > 0, nil
}

// CompareAndSwap persists the session's teacher, status, history and notes only
// if the stored row still has expectedStatus and expectedTeacher. It reports
// whether the row was updated.
func (r *MakeupClassRepository) CompareAndSwap(ctx context.Context, session *models.MakeupClass, expectedStatus models.MakeupStatus, expectedTeacher *string) (bool, error) {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE makeup_classes SET teacher_id = $1, status = $2, assignment_history = $3, notes = $4, updated_at = $5
		WHERE id = $6 AND status = $7 AND teacher_id IS NOT DISTINCT FROM $8`
	res, err := r.db.ExecContext(ctx, query,
		session.TeacherID, session.Status, session.AssignmentHistory, session.Notes, session.UpdatedAt,
		session.ID, expectedStatus, expectedTeacher)
	if err != nil {
		return false, fmt.Errorf("update makeup class status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update makeup class status: %w", err)
	}
	return n > 0, nil
}

// Delete removes a session.
func (r *MakeupClassRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM makeup_classes WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete makeup class: %w", err)
	}
	return nil
}
