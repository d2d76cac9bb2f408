package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/models"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

type mockFreeScheduleRepo struct {
	items []models.FreeSchedule
}

func (m *mockFreeScheduleRepo) List(ctx context.Context, filter models.FreeScheduleFilter) ([]models.FreeSchedule, int, error) {
	return m.items, len(m.items), nil
}

func (m *mockFreeScheduleRepo) ListByTeacherDay(ctx context.Context, teacherID, dayOfWeek string) ([]models.FreeSchedule, error) {
	var out []models.FreeSchedule
	for _, fs := range m.items {
		if fs.TeacherID == teacherID && fs.DayOfWeek == dayOfWeek {
			out = append(out, fs)
		}
	}
	return out, nil
}

func (m *mockFreeScheduleRepo) FindByID(ctx context.Context, id string) (*models.FreeSchedule, error) {
	for _, fs := range m.items {
		if fs.ID == id {
			found := fs
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockFreeScheduleRepo) Create(ctx context.Context, schedule *models.FreeSchedule) error {
	schedule.ID = "fs-new"
	m.items = append(m.items, *schedule)
	return nil
}

func (m *mockFreeScheduleRepo) Delete(ctx context.Context, id string) error {
	for i, fs := range m.items {
		if fs.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			break
		}
	}
	return nil
}

func newTestFreeScheduleService(repo *mockFreeScheduleRepo) *FreeScheduleService {
	teachers := &mockTeacherRepo{items: map[string]*models.Teacher{"t1": {ID: "t1"}}}
	return NewFreeScheduleService(repo, teachers, nil, nil, zap.NewNop())
}

func TestFreeScheduleServiceCreate(t *testing.T) {
	repo := &mockFreeScheduleRepo{}
	svc := newTestFreeScheduleService(repo)

	fs, err := svc.Create(context.Background(), FreeScheduleRequest{TeacherID: "t1", DayOfWeek: timeslot.Tuesday, StartTime: "17:00", EndTime: "21:00"})
	require.NoError(t, err)
	assert.Equal(t, "fs-new", fs.ID)
	assert.Len(t, repo.items, 1)
}

func TestFreeScheduleServiceRejectsOverlap(t *testing.T) {
	repo := &mockFreeScheduleRepo{items: []models.FreeSchedule{{ID: "fs1", TeacherID: "t1", DayOfWeek: timeslot.Tuesday, StartTime: "17:00", EndTime: "19:00"}}}
	svc := newTestFreeScheduleService(repo)

	_, err := svc.Create(context.Background(), FreeScheduleRequest{TeacherID: "t1", DayOfWeek: timeslot.Tuesday, StartTime: "18:00", EndTime: "20:00"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	// adjacent slots do not overlap
	_, err = svc.Create(context.Background(), FreeScheduleRequest{TeacherID: "t1", DayOfWeek: timeslot.Tuesday, StartTime: "19:00", EndTime: "20:00"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), FreeScheduleRequest{TeacherID: "t1", DayOfWeek: timeslot.Wednesday, StartTime: "18:00", EndTime: "20:00"})
	require.NoError(t, err)
}

func TestFreeScheduleServiceValidation(t *testing.T) {
	svc := newTestFreeScheduleService(&mockFreeScheduleRepo{})

	cases := map[string]FreeScheduleRequest{
		"english weekday": {TeacherID: "t1", DayOfWeek: "monday", StartTime: "17:00", EndTime: "19:00"},
		"reversed":        {TeacherID: "t1", DayOfWeek: timeslot.Monday, StartTime: "19:00", EndTime: "17:00"},
		"bad time":        {TeacherID: "t1", DayOfWeek: timeslot.Monday, StartTime: "7pm", EndTime: "9pm"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), req)
			assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
		})
	}

	_, err := svc.Create(context.Background(), FreeScheduleRequest{TeacherID: "ghost", DayOfWeek: timeslot.Monday, StartTime: "17:00", EndTime: "19:00"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestFreeScheduleServiceDelete(t *testing.T) {
	repo := &mockFreeScheduleRepo{items: []models.FreeSchedule{{ID: "fs1", TeacherID: "t1"}}}
	svc := newTestFreeScheduleService(repo)

	require.NoError(t, svc.Delete(context.Background(), "fs1"))
	assert.Empty(t, repo.items)
	assert.True(t, appErrors.Is(svc.Delete(context.Background(), "fs1"), appErrors.ErrNotFound))
}
