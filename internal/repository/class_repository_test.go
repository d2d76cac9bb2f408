package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-ops-api/internal/models"
)

func TestClassRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	cols := []string{"id", "name", "subject_level_id", "teacher_id", "start_date", "end_date", "capacity", "status", "room", "created_at", "updated_at", "teacher_name", "level_code", "level_name"}
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND c.status = $1 AND c.teacher_id = $2 ORDER BY c.start_date ASC LIMIT 20 OFFSET 0")).
		WithArgs(models.ClassActive, "t1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("c1", "IELTS K12", "l1", "t1", now, now, 20, "active", nil, now, now, "Teacher A", "IELTS HP1", "IELTS 1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM classes c WHERE 1=1 AND c.status = $1 AND c.teacher_id = $2")).
		WithArgs(models.ClassActive, "t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	classes, total, err := repo.List(context.Background(), models.ClassFilter{Status: models.ClassActive, TeacherID: "t1", SortBy: "start_date", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "Teacher A", *classes[0].TeacherName)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("INSERT INTO classes").WillReturnResult(sqlmock.NewResult(1, 1))
	class := &models.Class{Name: "IELTS K12", SubjectLevelID: "l1", Capacity: 20, Status: models.ClassPending}
	require.NoError(t, repo.Create(context.Background(), class))
	assert.NotEmpty(t, class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
