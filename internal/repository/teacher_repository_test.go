package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-ops-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var teacherRowColumns = []string{"id", "full_name", "email", "phone", "status", "qualifications", "max_offset_classes", "notes", "created_at", "updated_at"}

func TestTeacherRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows(teacherRowColumns).
		AddRow("t1", "Teacher A", "a@example.com", nil, "active", "{IELTS}", 3, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + teacherColumns + " FROM teachers WHERE 1=1 AND status = $1 ORDER BY full_name ASC LIMIT 10 OFFSET 10")).
		WithArgs(models.TeacherActive).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers WHERE 1=1 AND status = $1")).
		WithArgs(models.TeacherActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	list, total, err := repo.List(context.Background(), models.TeacherFilter{Status: models.TeacherActive, Page: 2, PageSize: 10, SortBy: "full_name", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"IELTS"}, []string(list[0].Qualifications))
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositorySearchBindsOnePlaceholder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LOWER(full_name) LIKE $1 OR LOWER(email) LIKE $1 OR LOWER(COALESCE(phone, '')) LIKE $1")).
		WithArgs("%lan%").
		WillReturnRows(sqlmock.NewRows(teacherRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers")).
		WithArgs("%lan%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.TeacherFilter{Search: "Lan"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreateAndDeactivate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("INSERT INTO teachers").
		WithArgs(sqlmock.AnyArg(), "Teacher A", "a@example.com", sqlmock.AnyArg(), models.TeacherActive, sqlmock.AnyArg(), 2, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	teacher := &models.Teacher{Email: "a@example.com", FullName: "Teacher A", Status: models.TeacherActive, MaxOffsetClasses: 2}
	require.NoError(t, repo.Create(context.Background(), teacher))
	assert.NotEmpty(t, teacher.ID)

	mock.ExpectExec("UPDATE teachers SET status = \\$2").
		WithArgs("id-1", models.TeacherInactive, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "id-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teachers WHERE LOWER(email) = LOWER($1) AND id <> $2 LIMIT 1")).
		WithArgs("a@example.com", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err := repo.ExistsByEmail(context.Background(), "a@example.com", "t1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListByIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE id IN (?, ?) ORDER BY id")).
		WithArgs("t1", "t2").
		WillReturnRows(sqlmock.NewRows(teacherRowColumns))

	_, err := repo.ListByIDs(context.Background(), []string{"t1", "t2"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
