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

func TestWorkShiftRepositoryBulkReportsDuplicates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWorkShiftRepository(db)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (teacher_id, date, shift_id) DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "t1", "morning", date, models.WorkShiftScheduled, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (teacher_id, date, shift_id) DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "t2", "morning", date, models.WorkShiftScheduled, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	created, dups, err := repo.CreateIgnoringDuplicates(context.Background(), []models.WorkShift{
		{TeacherID: "t1", ShiftID: "morning", Date: date},
		{TeacherID: "t2", ShiftID: "morning", Date: date},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Len(t, dups, 1)
	assert.Equal(t, "t2", dups[0].TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkShiftRepositoryBulkRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWorkShiftRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO work_shifts").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, _, err := repo.CreateIgnoringDuplicates(context.Background(), []models.WorkShift{{TeacherID: "t1", ShiftID: "s", Date: time.Now()}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFreeScheduleRepositoryListByDay(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFreeScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM free_schedules WHERE day_of_week = $1")).
		WithArgs("Chủ nhật").
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "day_of_week", "start_time", "end_time", "note", "created_at", "updated_at"}).
			AddRow("f1", "t1", "Chủ nhật", "08:00", "12:00", nil, time.Now(), time.Now()))

	list, err := repo.ListByDay(context.Background(), "Chủ nhật")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "08:00", list[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}
