package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"path"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/dto"
	"github.com/noah-isme/edu-ops-api/internal/models"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
	deletes []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deletes = append(m.deletes, pattern)
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

type mockWorkShiftRepo struct {
	items     map[string]*models.WorkShift
	existing  map[string]bool
	created   []models.WorkShift
	createErr error
}

func workShiftKey(ws models.WorkShift) string {
	return ws.TeacherID + "|" + ws.Date.Format("2006-01-02") + "|" + ws.ShiftID
}

func (m *mockWorkShiftRepo) List(ctx context.Context, filter models.WorkShiftFilter) ([]models.WorkShift, int, error) {
	return m.created, len(m.created), nil
}

func (m *mockWorkShiftRepo) FindByID(ctx context.Context, id string) (*models.WorkShift, error) {
	if ws, ok := m.items[id]; ok {
		cp := *ws
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockWorkShiftRepo) Create(ctx context.Context, shift *models.WorkShift) error {
	if m.createErr != nil {
		return m.createErr
	}
	shift.ID = "ws-1"
	m.created = append(m.created, *shift)
	return nil
}

func (m *mockWorkShiftRepo) CreateIgnoringDuplicates(ctx context.Context, shifts []models.WorkShift) ([]models.WorkShift, []models.WorkShift, error) {
	var created, dups []models.WorkShift
	for _, ws := range shifts {
		if m.existing[workShiftKey(ws)] {
			dups = append(dups, ws)
			continue
		}
		created = append(created, ws)
	}
	m.created = append(m.created, created...)
	return created, dups, nil
}

func (m *mockWorkShiftRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

type countingAvailability struct {
	calls    int
	lastDate time.Time
}

func (c *countingAvailability) AvailableTeachers(ctx context.Context, date time.Time, startTime, endTime, subjectLevelID string) ([]dto.AvailableTeacher, error) {
	c.calls++
	c.lastDate = date
	return []dto.AvailableTeacher{{TeacherID: "t1", FullName: "Lan", Capacity: 5}}, nil
}

func newTestWorkShiftService(repo *mockWorkShiftRepo, availability availabilityFinder, cache *CacheService) *WorkShiftService {
	shifts := &mockShiftRepo{items: map[string]*models.Shift{
		"s1": {ID: "s1", Name: "Morning", StartTime: "08:00", EndTime: "11:00"},
		"s2": {ID: "s2", Name: "Evening", StartTime: "18:00", EndTime: "21:00"},
	}}
	teachers := &mockTeacherRepo{items: map[string]*models.Teacher{"t1": {ID: "t1"}, "t2": {ID: "t2"}}}
	return NewWorkShiftService(repo, shifts, teachers, availability, cache, nil, zap.NewNop())
}

func TestWorkShiftServiceCreateCopiesShiftWindow(t *testing.T) {
	repo := &mockWorkShiftRepo{}
	cacheRepo := newMemoryCacheRepo()
	svc := newTestWorkShiftService(repo, nil, NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true))

	ws, err := svc.Create(context.Background(), WorkShiftRequest{TeacherID: "t1", ShiftID: "s2", Date: "2025-03-10"})
	require.NoError(t, err)
	assert.Equal(t, "Evening", ws.ShiftName)
	assert.Equal(t, "18:00", ws.StartTime)
	assert.Equal(t, models.WorkShiftScheduled, ws.Status)
	assert.Equal(t, []string{availabilityCachePattern}, cacheRepo.deletes)
}

func TestWorkShiftServiceCreateErrors(t *testing.T) {
	repo := &mockWorkShiftRepo{}
	svc := newTestWorkShiftService(repo, nil, nil)

	_, err := svc.Create(context.Background(), WorkShiftRequest{TeacherID: "t9", ShiftID: "s1", Date: "2025-03-10"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Create(context.Background(), WorkShiftRequest{TeacherID: "t1", ShiftID: "s1", Date: "10/03/2025"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	repo.createErr = &pq.Error{Code: "23505"}
	_, err = svc.Create(context.Background(), WorkShiftRequest{TeacherID: "t1", ShiftID: "s1", Date: "2025-03-10"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestWorkShiftServiceBulkReportsDuplicates(t *testing.T) {
	repo := &mockWorkShiftRepo{existing: map[string]bool{"t1|2025-03-10|s1": true}}
	svc := newTestWorkShiftService(repo, nil, nil)

	result, err := svc.Bulk(context.Background(), dto.BulkWorkShiftRequest{
		TeacherIDs: []string{"t1", "t2", "t1"},
		Dates:      []string{"2025-03-10", "2025-03-11"},
		ShiftIDs:   []string{"s1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Requested)
	assert.Equal(t, 3, result.Created)
	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, dto.BulkWorkShiftDuplicate{TeacherID: "t1", Date: "2025-03-10", ShiftID: "s1"}, result.Duplicates[0])
}

func TestWorkShiftServiceBulkValidatesReferences(t *testing.T) {
	svc := newTestWorkShiftService(&mockWorkShiftRepo{}, nil, nil)

	_, err := svc.Bulk(context.Background(), dto.BulkWorkShiftRequest{TeacherIDs: []string{"t1"}, Dates: []string{"2025-03-10"}, ShiftIDs: []string{"s9"}})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Bulk(context.Background(), dto.BulkWorkShiftRequest{TeacherIDs: []string{"t1"}, ShiftIDs: []string{"s1"}})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestWorkShiftServiceAvailabilityIsCached(t *testing.T) {
	finder := &countingAvailability{}
	cacheRepo := newMemoryCacheRepo()
	svc := newTestWorkShiftService(&mockWorkShiftRepo{}, finder, NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true))
	query := dto.AvailabilityQuery{Date: "2025-03-10", StartTime: "18:00", EndTime: "19:30"}

	first, hit, err := svc.Availability(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, hit)
	second, hit, err := svc.Availability(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, hit)

	assert.Equal(t, 1, finder.calls)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), finder.lastDate)
	assert.Equal(t, first.Teachers, second.Teachers)

	_, err = svc.Create(context.Background(), WorkShiftRequest{TeacherID: "t1", ShiftID: "s1", Date: "2025-03-10"})
	require.NoError(t, err)
	_, hit, err = svc.Availability(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, finder.calls)
}

func TestWorkShiftServiceAvailabilityRejectsBadWindow(t *testing.T) {
	svc := newTestWorkShiftService(&mockWorkShiftRepo{}, &countingAvailability{}, nil)
	_, _, err := svc.Availability(context.Background(), dto.AvailabilityQuery{Date: "2025-03-10", StartTime: "19:30", EndTime: "18:00"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
