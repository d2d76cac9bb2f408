package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/dto"
	"github.com/noah-isme/edu-ops-api/internal/models"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/jobs"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

// AutoAssignJobType identifies queued auto-assign runs.
const AutoAssignJobType = "makeup.auto_assign"

// AutoAssignJob is the payload of an AutoAssignJobType job.
type AutoAssignJob struct {
	Kind models.MakeupKind
	IDs  []string
}

type assignmentMakeupRepository interface {
	FindByID(ctx context.Context, id string) (*models.MakeupClass, error)
	ListPending(ctx context.Context, kind models.MakeupKind, ids []string) ([]models.MakeupClass, error)
	ListBookedBetween(ctx context.Context, from, to time.Time) ([]models.MakeupClass, error)
	CountAssignedByTeacher(ctx context.Context) (map[string]int, error)
	CompareAndSwap(ctx context.Context, session *models.MakeupClass, expectedStatus models.MakeupStatus, expectedTeacher *string) (bool, error)
}

type assignmentTeacherRepository interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Teacher, error)
}

type assignmentLevelRepository interface {
	ListByLevel(ctx context.Context, subjectLevelID string) ([]models.TeacherLevel, error)
}

type assignmentWorkShiftRepository interface {
	ListScheduledOn(ctx context.Context, date time.Time) ([]models.WorkShift, error)
}

type assignmentFreeScheduleRepository interface {
	ListByDay(ctx context.Context, dayOfWeek string) ([]models.FreeSchedule, error)
}

type assignmentScheduleRepository interface {
	ListBindingOn(ctx context.Context, dayOfWeek string, date time.Time) ([]models.ClassSchedule, error)
}

// AssignmentRepositories groups the stores the assignment service reads from.
type AssignmentRepositories struct {
	Makeups       assignmentMakeupRepository
	Teachers      assignmentTeacherRepository
	Levels        assignmentLevelRepository
	WorkShifts    assignmentWorkShiftRepository
	FreeSchedules assignmentFreeScheduleRepository
	Schedules     assignmentScheduleRepository
}

// AssignmentService loads snapshots for the assignment engine and persists its decisions.
type AssignmentService struct {
	repos      AssignmentRepositories
	notifier   *NotificationService
	metrics    *MetricsService
	cache      *CacheService
	loadWindow time.Duration
	logger     *zap.Logger
	now        func() time.Time

	// mu serialises every run that writes assignments.
	mu sync.Mutex
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(repos AssignmentRepositories, notifier *NotificationService, metrics *MetricsService, cache *CacheService, loadWindow time.Duration, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loadWindow <= 0 {
		loadWindow = 30 * 24 * time.Hour
	}
	return &AssignmentService{repos: repos, notifier: notifier, metrics: metrics, cache: cache, loadWindow: loadWindow, logger: logger, now: time.Now}
}

// Candidates ranks teachers for a session. For an assigned session the
// ranking mirrors what a reallocation would consider.
func (s *AssignmentService) Candidates(ctx context.Context, kind models.MakeupKind, id string) ([]models.CandidateReport, error) {
	session, err := s.load(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.snapshot(ctx, []models.MakeupClass{*session}, nil, false)
	if err != nil {
		return nil, err
	}
	var exclude map[string]struct{}
	if session.Status == models.MakeupAssigned {
		exclude = triedTeachers(session)
	}
	return NewAssignmentEngine(snapshot).Evaluate(*session, exclude), nil
}

// Assign gives a pending session to teacherID after the same checks auto-assign applies.
func (s *AssignmentService) Assign(ctx context.Context, kind models.MakeupKind, id, teacherID string) (*models.MakeupClass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.MakeupPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot assign a %s class", session.Status))
	}
	snapshot, err := s.snapshot(ctx, []models.MakeupClass{*session}, []string{teacherID}, false)
	if err != nil {
		return nil, err
	}

	report := reportFor(NewAssignmentEngine(snapshot).Evaluate(*session, nil), teacherID)
	if report == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	if !report.Eligible {
		s.metrics.RecordAssignment(models.AssignMethodManual, false)
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher cannot take this class: "+strings.Join(report.Reasons, "; "))
	}
	if err := s.persist(ctx, session, report.TeacherID, report.FullName, models.AssignMethodManual, ""); err != nil {
		return nil, err
	}
	return session, nil
}

// Recheck evaluates the teacher holding session against the session's edited
// date, window and level. The session's own booking and its slot in the
// teacher's make-up limit are not counted against it.
func (s *AssignmentService) Recheck(ctx context.Context, session models.MakeupClass) (*models.CandidateReport, error) {
	if session.TeacherID == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "make-up class has no teacher")
	}
	teacherID := *session.TeacherID

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.snapshot(ctx, []models.MakeupClass{session}, []string{teacherID}, false)
	if err != nil {
		return nil, err
	}
	if session.Status == models.MakeupAssigned && snapshot.AssignedCounts[teacherID] > 0 {
		snapshot.AssignedCounts[teacherID]--
	}
	report := reportFor(NewAssignmentEngine(snapshot).Evaluate(session, nil), teacherID)
	if report == nil {
		return &models.CandidateReport{TeacherID: teacherID, Reasons: []string{"teacher not found"}}, nil
	}
	return report, nil
}

// AutoAssign staffs pending sessions of kind; ids restricts the run, empty means all.
func (s *AssignmentService) AutoAssign(ctx context.Context, kind models.MakeupKind, ids []string) (*models.AutoAssignResult, error) {
	return s.autoAssign(ctx, kind, ids, false)
}

// HandleJob runs a queued auto-assign job. Sessions left without a teacher raise a notification.
func (s *AssignmentService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(AutoAssignJob)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	result, err := s.autoAssign(ctx, payload.Kind, payload.IDs, true)
	if err != nil {
		return err
	}
	s.logger.Info("auto-assign job finished", zap.String("job_id", job.ID), zap.Int("assigned", result.Assigned), zap.Int("unassigned", result.Unassigned))
	return nil
}

func (s *AssignmentService) autoAssign(ctx context.Context, kind models.MakeupKind, ids []string, notifyFailures bool) (*models.AutoAssignResult, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown make-up class kind")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.repos.Makeups.ListPending(ctx, kind, uniqueStrings(ids))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load pending classes")
	}
	result := &models.AutoAssignResult{Requested: len(pending), Outcomes: []models.AssignmentOutcome{}}
	if len(pending) == 0 {
		return result, nil
	}

	snapshot, err := s.snapshot(ctx, pending, nil, false)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.MakeupClass, len(pending))
	for i := range pending {
		byID[pending[i].ID] = &pending[i]
	}

	for _, outcome := range NewAssignmentEngine(snapshot).AssignBatch(pending) {
		session := byID[outcome.MakeupClassID]
		if outcome.Assigned {
			if err := s.persist(ctx, session, outcome.TeacherID, outcome.TeacherName, models.AssignMethodAuto, ""); err != nil {
				s.logger.Warn("auto-assign could not persist", zap.String("makeup_class_id", session.ID), zap.Error(err))
				outcome.Assigned = false
				outcome.TeacherID, outcome.TeacherName = "", ""
				outcome.Reasons = []string{appErrors.FromError(err).Message}
			}
		} else {
			s.metrics.RecordAssignment(models.AssignMethodAuto, false)
		}
		if outcome.Assigned {
			result.Assigned++
		} else {
			result.Unassigned++
			if notifyFailures {
				s.notifier.Unassigned(ctx, session, strings.Join(outcome.Reasons, "; "))
			}
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, nil
}

// Reallocate moves an assigned session to a teacher who has not held it before.
// When nobody qualifies the session is left untouched.
func (s *AssignmentService) Reallocate(ctx context.Context, kind models.MakeupKind, id, reason string) (*models.MakeupClass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.MakeupAssigned {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot reallocate a %s class", session.Status))
	}
	snapshot, err := s.snapshot(ctx, []models.MakeupClass{*session}, nil, false)
	if err != nil {
		return nil, err
	}
	best, reports := NewAssignmentEngine(snapshot).Best(*session, triedTeachers(session))
	if best == nil {
		s.metrics.RecordAssignment(models.AssignMethodReallocate, false)
		msg := appErrors.ErrNoCandidate.Message
		if lines := summariseRejections(reports); len(lines) > 0 {
			msg += ": " + strings.Join(lines, " | ")
		}
		return nil, appErrors.Clone(appErrors.ErrNoCandidate, msg)
	}
	if strings.TrimSpace(reason) == "" {
		reason = "reallocated"
	}
	if err := s.persist(ctx, session, best.TeacherID, best.FullName, models.AssignMethodReallocate, reason); err != nil {
		return nil, err
	}
	return session, nil
}

// AvailableTeachers lists teachers free for a window, optionally restricted to
// those qualified for subjectLevelID.
func (s *AssignmentService) AvailableTeachers(ctx context.Context, date time.Time, startTime, endTime, subjectLevelID string) ([]dto.AvailableTeacher, error) {
	slot := models.MakeupClass{SubjectLevelID: subjectLevelID, ScheduledDate: date, StartTime: startTime, EndTime: endTime}
	snapshot, err := s.snapshot(ctx, []models.MakeupClass{slot}, nil, subjectLevelID == "")
	if err != nil {
		return nil, err
	}
	out := []dto.AvailableTeacher{}
	for _, r := range NewAssignmentEngine(snapshot).Evaluate(slot, nil) {
		if !r.Eligible {
			continue
		}
		out = append(out, dto.AvailableTeacher{TeacherID: r.TeacherID, FullName: r.FullName, Load: r.Load, Capacity: r.Capacity, ExperienceYears: r.ExperienceYears})
	}
	return out, nil
}

func (s *AssignmentService) load(ctx context.Context, kind models.MakeupKind, id string) (*models.MakeupClass, error) {
	session, err := s.repos.Makeups.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, kindLabel(kind)+" not found", "failed to load make-up class")
	}
	if session.Kind != kind {
		return nil, appErrors.Clone(appErrors.ErrNotFound, kindLabel(kind)+" not found")
	}
	return session, nil
}

// snapshot gathers everything the engine needs for sessions. extraTeachers are
// loaded even when they hold no level of the sessions; allActive loads every
// active teacher.
func (s *AssignmentService) snapshot(ctx context.Context, sessions []models.MakeupClass, extraTeachers []string, allActive bool) (AssignmentSnapshot, error) {
	snap := AssignmentSnapshot{LoadWindow: s.loadWindow}

	teacherIDs := append([]string{}, extraTeachers...)
	seenLevels := map[string]bool{}
	for _, session := range sessions {
		if session.SubjectLevelID == "" || seenLevels[session.SubjectLevelID] {
			continue
		}
		seenLevels[session.SubjectLevelID] = true
		levels, err := s.repos.Levels.ListByLevel(ctx, session.SubjectLevelID)
		if err != nil {
			return snap, appErrors.Internal(err, "failed to load teacher levels")
		}
		snap.Levels = append(snap.Levels, levels...)
		for _, lvl := range levels {
			teacherIDs = append(teacherIDs, lvl.TeacherID)
		}
	}

	var err error
	if allActive {
		snap.Teachers, err = s.repos.Teachers.ListActive(ctx)
	} else if ids := uniqueStrings(teacherIDs); len(ids) > 0 {
		snap.Teachers, err = s.repos.Teachers.ListByIDs(ctx, ids)
	}
	if err != nil {
		return snap, appErrors.Internal(err, "failed to load teachers")
	}
	if len(snap.Teachers) == 0 {
		return snap, nil
	}

	var minDate, maxDate time.Time
	seenDates := map[time.Time]bool{}
	seenDays := map[string]bool{}
	for _, session := range sessions {
		date := timeslot.DateOnly(session.ScheduledDate)
		if minDate.IsZero() || date.Before(minDate) {
			minDate = date
		}
		if date.After(maxDate) {
			maxDate = date
		}
		if seenDates[date] {
			continue
		}
		seenDates[date] = true
		day := timeslot.WeekdayOf(date)

		shifts, err := s.repos.WorkShifts.ListScheduledOn(ctx, date)
		if err != nil {
			return snap, appErrors.Internal(err, "failed to load work shifts")
		}
		snap.WorkShifts = append(snap.WorkShifts, shifts...)

		fixed, err := s.repos.Schedules.ListBindingOn(ctx, day, date)
		if err != nil {
			return snap, appErrors.Internal(err, "failed to load class schedules")
		}
		snap.Schedules = append(snap.Schedules, fixed...)

		if !seenDays[day] {
			seenDays[day] = true
			free, err := s.repos.FreeSchedules.ListByDay(ctx, day)
			if err != nil {
				return snap, appErrors.Internal(err, "failed to load free schedules")
			}
			snap.FreeSchedules = append(snap.FreeSchedules, free...)
		}
	}

	snap.Booked, err = s.repos.Makeups.ListBookedBetween(ctx, minDate.Add(-s.loadWindow), maxDate)
	if err != nil {
		return snap, appErrors.Internal(err, "failed to load booked classes")
	}
	snap.AssignedCounts, err = s.repos.Makeups.CountAssignedByTeacher(ctx)
	if err != nil {
		return snap, appErrors.Internal(err, "failed to count teacher assignments")
	}
	return snap, nil
}

// persist writes the assignment if the session is still in the state it was read in.
func (s *AssignmentService) persist(ctx context.Context, session *models.MakeupClass, teacherID, teacherName, method, releaseReason string) error {
	expectedStatus, expectedTeacher := session.Status, session.TeacherID
	now := s.now().UTC()

	history, err := session.History()
	if err != nil {
		return appErrors.Internal(err, "failed to read assignment history")
	}
	history = releaseOpen(history, releaseReason, now)
	history = append(history, models.AssignmentRecord{TeacherID: teacherID, AssignedAt: now, Method: method})

	next := *session
	if err := next.SetHistory(history); err != nil {
		return appErrors.Internal(err, "failed to write assignment history")
	}
	next.TeacherID = &teacherID
	next.Status = models.MakeupAssigned

	ok, err := s.repos.Makeups.CompareAndSwap(ctx, &next, expectedStatus, expectedTeacher)
	if err != nil {
		return appErrors.Internal(err, "failed to save assignment")
	}
	if !ok {
		s.metrics.RecordAssignment(method, false)
		return appErrors.Clone(appErrors.ErrConflict, "make-up class was changed by another request")
	}
	*session = next

	s.metrics.RecordAssignment(method, true)
	s.cache.InvalidateAvailability(ctx)
	s.notifier.Assigned(ctx, session, teacherName)
	s.logger.Info("make-up class assigned",
		zap.String("makeup_class_id", session.ID),
		zap.String("teacher_id", teacherID),
		zap.String("method", method),
	)
	return nil
}

// releaseOpen closes every history record that has no release time yet.
func reportFor(reports []models.CandidateReport, teacherID string) *models.CandidateReport {
	for i := range reports {
		if reports[i].TeacherID == teacherID {
			return &reports[i]
		}
	}
	return nil
}

func releaseOpen(history []models.AssignmentRecord, reason string, at time.Time) []models.AssignmentRecord {
	for i := range history {
		if history[i].ReleasedAt == nil {
			released := at
			history[i].ReleasedAt = &released
			history[i].ReleaseReason = reason
		}
	}
	return history
}

// triedTeachers returns the current teacher plus everyone in the history.
func triedTeachers(session *models.MakeupClass) map[string]struct{} {
	exclude := map[string]struct{}{}
	if session.TeacherID != nil {
		exclude[*session.TeacherID] = struct{}{}
	}
	history, _ := session.History()
	for _, rec := range history {
		exclude[rec.TeacherID] = struct{}{}
	}
	return exclude
}

func kindLabel(kind models.MakeupKind) string {
	switch kind {
	case models.MakeupSupplementary:
		return "supplementary class"
	case models.MakeupTest:
		return "test class"
	default:
		return "offset class"
	}
}
