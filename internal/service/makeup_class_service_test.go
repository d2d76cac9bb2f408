package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/dto"
	"github.com/noah-isme/edu-ops-api/internal/models"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/export"
	"github.com/noah-isme/edu-ops-api/pkg/jobs"
)

func (f *fakeMakeupStore) List(ctx context.Context, filter models.MakeupClassFilter) ([]models.MakeupClassDetail, int, error) {
	var out []models.MakeupClassDetail
	for _, s := range f.sessions {
		if filter.Kind != "" && s.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, models.MakeupClassDetail{MakeupClass: *s})
	}
	return out, len(out), nil
}

func (f *fakeMakeupStore) Create(ctx context.Context, session *models.MakeupClass) error {
	stored := *session
	f.sessions[session.ID] = &stored
	return nil
}

func (f *fakeMakeupStore) UpdateDetails(ctx context.Context, session *models.MakeupClass) (bool, error) {
	current, ok := f.sessions[session.ID]
	if !ok || current.Status.Terminal() {
		return false, nil
	}
	stored := *session
	f.sessions[session.ID] = &stored
	return true, nil
}

func (f *fakeMakeupStore) Delete(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

type stubAssigner struct {
	err   error
	calls int
}

func (s *stubAssigner) Assign(ctx context.Context, kind models.MakeupKind, id, teacherID string) (*models.MakeupClass, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.MakeupClass{ID: id, Kind: kind, TeacherID: &teacherID, Status: models.MakeupAssigned}, nil
}

func (s *stubAssigner) Recheck(ctx context.Context, session models.MakeupClass) (*models.CandidateReport, error) {
	return &models.CandidateReport{TeacherID: *session.TeacherID, Eligible: true}, nil
}

type recordingQueue struct {
	jobs []jobs.Job
}

func (q *recordingQueue) Enqueue(job jobs.Job) (bool, error) {
	q.jobs = append(q.jobs, job)
	return true, nil
}

type stubLevels struct{}

func (stubLevels) FindLevelByID(ctx context.Context, id string) (*models.SubjectLevel, error) {
	if id == "lvl-1" {
		return &models.SubjectLevel{ID: id, Code: "IELTS HP3"}, nil
	}
	return nil, sql.ErrNoRows
}

func newTestMakeupService(store *fakeMakeupStore, assigner teacherAssigner, queue JobEnqueuer, notes *mockNotificationRepo) *MakeupClassService {
	return NewMakeupClassService(store, stubLevels{}, assigner, MakeupClassServiceConfig{
		Queue:        queue,
		Notifier:     NewNotificationService(notes, nil, zap.NewNop()),
		AutoOnCreate: queue != nil,
		Logger:       zap.NewNop(),
	})
}

func validCreateRequest() dto.CreateMakeupClassRequest {
	return dto.CreateMakeupClassRequest{
		SubjectLevelID: "lvl-1",
		ClassName:      "IELTS HP3 - K12",
		Date:           "2025-03-10",
		StartTime:      "18:00",
		EndTime:        "19:30",
	}
}

func TestMakeupCreateOffsetNotifiesAndQueues(t *testing.T) {
	store := newFakeMakeupStore()
	notes := &mockNotificationRepo{}
	queue := &recordingQueue{}
	svc := newTestMakeupService(store, &stubAssigner{}, queue, notes)

	session, err := svc.Create(context.Background(), models.MakeupOffset, validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, models.MakeupPending, session.Status)
	assert.Equal(t, models.SourceManual, session.Source)
	assert.Contains(t, store.sessions, session.ID)

	require.Len(t, notes.created, 1)
	assert.Equal(t, models.NotificationOffsetPending, notes.created[0].Type)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, AutoAssignJobType, queue.jobs[0].Type)
	assert.Equal(t, AutoAssignJob{Kind: models.MakeupOffset, IDs: []string{session.ID}}, queue.jobs[0].Payload)
}

func TestMakeupCreateSupplementaryDoesNotNotify(t *testing.T) {
	store := newFakeMakeupStore()
	notes := &mockNotificationRepo{}
	svc := newTestMakeupService(store, &stubAssigner{}, nil, notes)

	_, err := svc.Create(context.Background(), models.MakeupSupplementary, validCreateRequest())
	require.NoError(t, err)
	assert.Empty(t, notes.created)
}

func TestMakeupCreateValidatesWindow(t *testing.T) {
	svc := newTestMakeupService(newFakeMakeupStore(), nil, nil, &mockNotificationRepo{})

	req := validCreateRequest()
	req.StartTime = "6pm"
	_, err := svc.Create(context.Background(), models.MakeupOffset, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	req = validCreateRequest()
	req.EndTime = "17:00"
	_, err = svc.Create(context.Background(), models.MakeupOffset, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	req = validCreateRequest()
	req.SubjectLevelID = "missing"
	_, err = svc.Create(context.Background(), models.MakeupOffset, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestMakeupCreateWithTeacherAssigns(t *testing.T) {
	store := newFakeMakeupStore()
	notes := &mockNotificationRepo{}
	assigner := &stubAssigner{}
	svc := newTestMakeupService(store, assigner, nil, notes)

	req := validCreateRequest()
	req.TeacherID = strPtr("t1")
	session, err := svc.Create(context.Background(), models.MakeupOffset, req)
	require.NoError(t, err)
	assert.Equal(t, 1, assigner.calls)
	assert.Equal(t, models.MakeupAssigned, session.Status)
	assert.Empty(t, notes.created)
}

func TestMakeupCreateKeepsPendingWhenTeacherRejected(t *testing.T) {
	store := newFakeMakeupStore()
	assigner := &stubAssigner{err: appErrors.Clone(appErrors.ErrConflict, "teacher cannot take this class")}
	svc := newTestMakeupService(store, assigner, nil, &mockNotificationRepo{})

	req := validCreateRequest()
	req.TeacherID = strPtr("t1")
	session, err := svc.Create(context.Background(), models.MakeupOffset, req)
	require.NoError(t, err)
	assert.Equal(t, models.MakeupPending, session.Status)
	assert.Nil(t, session.TeacherID)
}

func TestMakeupUpdateRejectsTerminal(t *testing.T) {
	s := pendingOffset("m1", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "18:00", "19:30")
	s.Status = models.MakeupCancelled
	svc := newTestMakeupService(newFakeMakeupStore(s), nil, nil, &mockNotificationRepo{})

	_, err := svc.Update(context.Background(), models.MakeupOffset, "m1", dto.UpdateMakeupClassRequest{
		SubjectLevelID: "lvl-1", ClassName: "IELTS HP3", Date: "2025-03-11", StartTime: "18:00", EndTime: "19:00",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
}

func TestMakeupUpdateRewritesDetails(t *testing.T) {
	s := pendingOffset("m1", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "18:00", "19:30")
	store := newFakeMakeupStore(s)
	svc := newTestMakeupService(store, nil, nil, &mockNotificationRepo{})

	updated, err := svc.Update(context.Background(), models.MakeupOffset, "m1", dto.UpdateMakeupClassRequest{
		SubjectLevelID: "lvl-1", ClassName: "IELTS HP3 - K13", Date: "2025-03-11", StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), updated.ScheduledDate)
	assert.Equal(t, "IELTS HP3 - K13", store.sessions["m1"].ClassName)
}

func assignedTo(s models.MakeupClass, teacherID string) models.MakeupClass {
	s.Status = models.MakeupAssigned
	s.TeacherID = strPtr(teacherID)
	return s
}

func TestMakeupUpdateRejectsMoveIntoTeacherConflict(t *testing.T) {
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	offset := assignedTo(pendingOffset("a", monday, "18:00", "19:30"), "t1")
	test := assignedTo(pendingOffset("b", monday, "09:00", "10:00"), "t1")
	test.Kind = models.MakeupTest
	f := newAssignmentFixture(t, offset, test)
	svc := newTestMakeupService(f.makeups, f.svc, nil, &mockNotificationRepo{})

	_, err := svc.Update(context.Background(), models.MakeupTest, "b", dto.UpdateMakeupClassRequest{
		SubjectLevelID: "lvl-1", ClassName: "IELTS HP3", Date: "2025-03-10", StartTime: "18:30", EndTime: "19:00",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, err.Error(), "overlaps")
	assert.Equal(t, "09:00", f.makeups.sessions["b"].StartTime)
}

func TestMakeupUpdateKeepsTeacherWhenMoveFits(t *testing.T) {
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	held := assignedTo(pendingOffset("a", monday, "17:00", "18:00"), "t1")
	sessions := []models.MakeupClass{held}
	// t1 sits exactly at the limit of five, counting the session being moved.
	for i, day := range []int{17, 18, 19, 20} {
		other := assignedTo(pendingOffset(fmt.Sprintf("o%d", i), time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC), "18:00", "19:00"), "t1")
		sessions = append(sessions, other)
	}
	f := newAssignmentFixture(t, sessions...)
	svc := newTestMakeupService(f.makeups, f.svc, nil, &mockNotificationRepo{})

	updated, err := svc.Update(context.Background(), models.MakeupOffset, "a", dto.UpdateMakeupClassRequest{
		SubjectLevelID: "lvl-1", ClassName: "IELTS HP3", Date: "2025-03-10", StartTime: "20:00", EndTime: "21:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MakeupAssigned, updated.Status)
	assert.Equal(t, "20:00", f.makeups.sessions["a"].StartTime)
	require.NotNil(t, f.makeups.sessions["a"].TeacherID)
	assert.Equal(t, "t1", *f.makeups.sessions["a"].TeacherID)
}

func TestMakeupUpdateRejectsMoveOutsideAvailability(t *testing.T) {
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newAssignmentFixture(t, assignedTo(pendingOffset("a", monday, "18:00", "19:30"), "t1"))
	svc := newTestMakeupService(f.makeups, f.svc, nil, &mockNotificationRepo{})

	_, err := svc.Update(context.Background(), models.MakeupOffset, "a", dto.UpdateMakeupClassRequest{
		SubjectLevelID: "lvl-1", ClassName: "IELTS HP3", Date: "2025-03-10", StartTime: "08:00", EndTime: "09:00",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestMakeupCompleteRequiresAssigned(t *testing.T) {
	s := pendingOffset("m1", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "18:00", "19:30")
	store := newFakeMakeupStore(s)
	svc := newTestMakeupService(store, nil, nil, &mockNotificationRepo{})

	_, err := svc.Complete(context.Background(), models.MakeupOffset, "m1")
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))

	store.sessions["m1"].Status = models.MakeupAssigned
	store.sessions["m1"].TeacherID = strPtr("t1")
	done, err := svc.Complete(context.Background(), models.MakeupOffset, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MakeupCompleted, done.Status)

	_, err = svc.Cancel(context.Background(), models.MakeupOffset, "m1", "")
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
}

func TestMakeupCancelReleasesTeacher(t *testing.T) {
	s := pendingOffset("m1", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "18:00", "19:30")
	s.Status = models.MakeupAssigned
	s.TeacherID = strPtr("t1")
	require.NoError(t, s.SetHistory([]models.AssignmentRecord{{TeacherID: "t1", AssignedAt: s.ScheduledDate, Method: models.AssignMethodAuto}}))
	store := newFakeMakeupStore(s)
	svc := newTestMakeupService(store, nil, nil, &mockNotificationRepo{})

	cancelled, err := svc.Cancel(context.Background(), models.MakeupOffset, "m1", "student withdrew")
	require.NoError(t, err)
	assert.Equal(t, models.MakeupCancelled, cancelled.Status)

	history, err := store.sessions["m1"].History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].ReleasedAt)
	assert.Equal(t, "student withdrew", history[0].ReleaseReason)
}

func TestMakeupGetKindMismatch(t *testing.T) {
	s := pendingOffset("m1", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "18:00", "19:30")
	svc := newTestMakeupService(newFakeMakeupStore(s), nil, nil, &mockNotificationRepo{})

	_, err := svc.Get(context.Background(), models.MakeupSupplementary, "m1")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestMakeupExportCSV(t *testing.T) {
	s := pendingOffset("m1", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "18:00", "19:30")
	svc := newTestMakeupService(newFakeMakeupStore(s), nil, nil, &mockNotificationRepo{})
	svc.now = func() time.Time { return time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC) }

	payload, format, filename, err := svc.Export(context.Background(), models.MakeupOffset, dto.MakeupClassQuery{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, export.FormatCSV, format)
	assert.Equal(t, "offset-classes-20250312.csv", filename)
	assert.True(t, bytes.Contains(payload, []byte("IELTS HP3")))
	assert.True(t, bytes.Contains(payload, []byte("10/03/2025")))
}

func TestMakeupExportRejectsUnknownFormat(t *testing.T) {
	svc := newTestMakeupService(newFakeMakeupStore(), nil, nil, &mockNotificationRepo{})
	_, _, _, err := svc.Export(context.Background(), models.MakeupOffset, dto.MakeupClassQuery{Format: "xlsx"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
