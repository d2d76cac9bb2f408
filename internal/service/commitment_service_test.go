package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-ops-api/internal/models"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

type stubCommitmentWorkShifts struct{ items []models.WorkShift }

func (s stubCommitmentWorkShifts) ListByTeacherDate(ctx context.Context, teacherID string, date time.Time) ([]models.WorkShift, error) {
	return s.items, nil
}

type stubCommitmentSchedules struct{ items []models.ClassSchedule }

func (s stubCommitmentSchedules) ListByTeacherDay(ctx context.Context, teacherID, dayOfWeek string) ([]models.ClassSchedule, error) {
	return s.items, nil
}

type stubCommitmentMakeups struct{ items []models.MakeupClass }

func (s stubCommitmentMakeups) ListByTeacherDate(ctx context.Context, teacherID string, date time.Time) ([]models.MakeupClass, error) {
	return s.items, nil
}

func TestCommitmentServiceForDate(t *testing.T) {
	termStart := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	termEnd := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	schedules := stubCommitmentSchedules{items: []models.ClassSchedule{
		{Schedule: models.Schedule{ID: "sc1", TeacherID: "t1", DayOfWeek: timeslot.Monday, StartTime: "18:00", EndTime: "19:30"}, ClassStatus: models.ClassActive, StartDate: termStart, EndDate: termEnd},
		{Schedule: models.Schedule{ID: "sc2", TeacherID: "t1", DayOfWeek: timeslot.Monday, StartTime: "08:00", EndTime: "09:30"}, ClassStatus: models.ClassCompleted, StartDate: termStart, EndDate: termEnd},
		{Schedule: models.Schedule{ID: "sc3", TeacherID: "t1", DayOfWeek: timeslot.Monday, StartTime: "10:00", EndTime: "11:00"}, ClassStatus: models.ClassPending, StartDate: termEnd.AddDate(0, 1, 0), EndDate: termEnd.AddDate(0, 4, 0)},
	}}
	free := &mockFreeScheduleRepo{items: []models.FreeSchedule{
		{ID: "fs1", TeacherID: "t1", DayOfWeek: timeslot.Monday, StartTime: "17:00", EndTime: "22:00"},
		{ID: "fs2", TeacherID: "t1", DayOfWeek: timeslot.Friday, StartTime: "17:00", EndTime: "22:00"},
	}}
	svc := NewCommitmentService(
		&mockTeacherRepo{items: map[string]*models.Teacher{"t1": {ID: "t1"}}},
		stubCommitmentWorkShifts{items: []models.WorkShift{{ID: "ws1", TeacherID: "t1"}}},
		free,
		schedules,
		stubCommitmentMakeups{},
	)

	// 2025-03-10 is a Monday
	out, err := svc.ForDate(context.Background(), "t1", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, timeslot.Monday, out.DayOfWeek)
	assert.Equal(t, "2025-03-10", out.Date)
	assert.Len(t, out.WorkShifts, 1)
	require.Len(t, out.FreeSchedules, 1)
	assert.Equal(t, "fs1", out.FreeSchedules[0].ID)
	require.Len(t, out.Schedules, 1)
	assert.Equal(t, "sc1", out.Schedules[0].ID)
	assert.NotNil(t, out.MakeupClasses)
	assert.Empty(t, out.MakeupClasses)
}

func TestCommitmentServiceErrors(t *testing.T) {
	svc := NewCommitmentService(&mockTeacherRepo{}, stubCommitmentWorkShifts{}, &mockFreeScheduleRepo{}, stubCommitmentSchedules{}, stubCommitmentMakeups{})

	_, err := svc.ForDate(context.Background(), "t1", "10-03-2025")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.ForDate(context.Background(), "t1", "2025-03-10")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
