package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/dto"
	"github.com/noah-isme/edu-ops-api/internal/models"
	"github.com/noah-isme/edu-ops-api/pkg/database"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/export"
	"github.com/noah-isme/edu-ops-api/pkg/jobs"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

const exportRowLimit = 5000

type makeupClassRepository interface {
	List(ctx context.Context, filter models.MakeupClassFilter) ([]models.MakeupClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.MakeupClass, error)
	Create(ctx context.Context, session *models.MakeupClass) error
	UpdateDetails(ctx context.Context, session *models.MakeupClass) (bool, error)
	CompareAndSwap(ctx context.Context, session *models.MakeupClass, expectedStatus models.MakeupStatus, expectedTeacher *string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type teacherAssigner interface {
	Assign(ctx context.Context, kind models.MakeupKind, id, teacherID string) (*models.MakeupClass, error)
	Recheck(ctx context.Context, session models.MakeupClass) (*models.CandidateReport, error)
}

// JobEnqueuer accepts background jobs.
type JobEnqueuer interface {
	Enqueue(job jobs.Job) (bool, error)
}

// MakeupClassService manages offset, supplementary and test sessions through their lifecycle.
type MakeupClassService struct {
	repo         makeupClassRepository
	levels       subjectLevelLookup
	assigner     teacherAssigner
	queue        JobEnqueuer
	notifier     *NotificationService
	cache        *CacheService
	renderer     *export.Renderer
	autoOnCreate bool
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// MakeupClassServiceConfig carries the optional collaborators of MakeupClassService.
type MakeupClassServiceConfig struct {
	Queue        JobEnqueuer
	Notifier     *NotificationService
	Cache        *CacheService
	Renderer     *export.Renderer
	AutoOnCreate bool
	Validator    *validator.Validate
	Logger       *zap.Logger
}

// NewMakeupClassService constructs a MakeupClassService.
func NewMakeupClassService(repo makeupClassRepository, levels subjectLevelLookup, assigner teacherAssigner, cfg MakeupClassServiceConfig) *MakeupClassService {
	if cfg.Validator == nil {
		cfg.Validator = timeslot.NewValidator()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Renderer == nil {
		cfg.Renderer = export.NewRenderer()
	}
	return &MakeupClassService{
		repo:         repo,
		levels:       levels,
		assigner:     assigner,
		queue:        cfg.Queue,
		notifier:     cfg.Notifier,
		cache:        cfg.Cache,
		renderer:     cfg.Renderer,
		autoOnCreate: cfg.AutoOnCreate,
		validator:    cfg.Validator,
		logger:       cfg.Logger,
		now:          time.Now,
	}
}

// List returns sessions of kind matching query.
func (s *MakeupClassService) List(ctx context.Context, kind models.MakeupKind, query dto.MakeupClassQuery) ([]models.MakeupClassDetail, *models.Pagination, error) {
	filter, err := s.filterFor(kind, query)
	if err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list make-up classes")
	}
	return items, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one session of kind.
func (s *MakeupClassService) Get(ctx context.Context, kind models.MakeupKind, id string) (*models.MakeupClass, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, kindLabel(kind)+" not found", "failed to load make-up class")
	}
	if session.Kind != kind {
		return nil, appErrors.Clone(appErrors.ErrNotFound, kindLabel(kind)+" not found")
	}
	return session, nil
}

// Create stores a pending session. A teacher named in the request is assigned
// through the regular checks; if they fail the session stays pending.
func (s *MakeupClassService) Create(ctx context.Context, kind models.MakeupKind, req dto.CreateMakeupClassRequest) (*models.MakeupClass, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown make-up class kind")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid make-up class payload")
	}
	date, err := s.checkWindow(ctx, req.SubjectLevelID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	session := &models.MakeupClass{
		ID:             uuid.NewString(),
		Kind:           kind,
		SubjectLevelID: req.SubjectLevelID,
		ClassID:        normalizeOptional(req.ClassID),
		ClassName:      strings.TrimSpace(req.ClassName),
		ScheduledDate:  date,
		StartTime:      timeslot.Normalize(req.StartTime),
		EndTime:        timeslot.Normalize(req.EndTime),
		Status:         models.MakeupPending,
		Reason:         normalizeOptional(req.Reason),
		RequestedBy:    normalizeOptional(req.RequestedBy),
		Source:         models.SourceManual,
		Notes:          normalizeOptional(req.Notes),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "class or subject level does not exist")
		}
		return nil, appErrors.Internal(err, "failed to create make-up class")
	}
	s.logger.Info("make-up class created", zap.String("makeup_class_id", session.ID), zap.String("kind", string(kind)))

	if teacherID := normalizeOptional(req.TeacherID); teacherID != nil && s.assigner != nil {
		assigned, err := s.assigner.Assign(ctx, kind, session.ID, *teacherID)
		if err == nil {
			return assigned, nil
		}
		s.logger.Warn("initial teacher rejected", zap.String("makeup_class_id", session.ID), zap.String("teacher_id", *teacherID), zap.Error(err))
	}

	s.Announce(ctx, session)
	return session, nil
}

// Announce raises the pending notification for offset sessions and queues an
// auto-assign run when enabled.
func (s *MakeupClassService) Announce(ctx context.Context, session *models.MakeupClass) {
	if session.Kind == models.MakeupOffset {
		s.notifier.OffsetPending(ctx, session)
	}
	if !s.autoOnCreate || s.queue == nil {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    AutoAssignJobType,
		Key:     AutoAssignJobType + ":" + session.ID,
		Payload: AutoAssignJob{Kind: session.Kind, IDs: []string{session.ID}},
	}
	if _, err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue auto-assign", zap.String("makeup_class_id", session.ID), zap.Error(err))
	}
}

// Update rewrites the descriptive fields of a pending or assigned session.
func (s *MakeupClassService) Update(ctx context.Context, kind models.MakeupKind, id string, req dto.UpdateMakeupClassRequest) (*models.MakeupClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid make-up class payload")
	}
	session, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot edit a %s class", session.Status))
	}
	date, err := s.checkWindow(ctx, req.SubjectLevelID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	moved := session.SubjectLevelID != req.SubjectLevelID ||
		!timeslot.SameDate(session.ScheduledDate, date) ||
		session.StartTime != timeslot.Normalize(req.StartTime) ||
		session.EndTime != timeslot.Normalize(req.EndTime)

	session.SubjectLevelID = req.SubjectLevelID
	session.ClassID = normalizeOptional(req.ClassID)
	session.ClassName = strings.TrimSpace(req.ClassName)
	session.ScheduledDate = date
	session.StartTime = timeslot.Normalize(req.StartTime)
	session.EndTime = timeslot.Normalize(req.EndTime)
	session.Reason = normalizeOptional(req.Reason)
	session.RequestedBy = normalizeOptional(req.RequestedBy)
	session.Notes = normalizeOptional(req.Notes)

	// An assigned teacher must still fit the moved session.
	if moved && session.Status == models.MakeupAssigned && session.TeacherID != nil && s.assigner != nil {
		report, err := s.assigner.Recheck(ctx, *session)
		if err != nil {
			return nil, err
		}
		if !report.Eligible {
			return nil, appErrors.Clone(appErrors.ErrConflict, "assigned teacher cannot take the edited class: "+strings.Join(report.Reasons, "; "))
		}
	}

	ok, err := s.repo.UpdateDetails(ctx, session)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "class or subject level does not exist")
		}
		return nil, appErrors.Internal(err, "failed to update make-up class")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "make-up class is no longer editable")
	}
	s.cache.InvalidateAvailability(ctx)
	return session, nil
}

// Delete removes a session of kind.
func (s *MakeupClassService) Delete(ctx context.Context, kind models.MakeupKind, id string) error {
	if _, err := s.Get(ctx, kind, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete make-up class")
	}
	s.cache.InvalidateAvailability(ctx)
	return nil
}

// Complete marks an assigned session as taught.
func (s *MakeupClassService) Complete(ctx context.Context, kind models.MakeupKind, id string) (*models.MakeupClass, error) {
	session, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.MakeupAssigned {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot complete a %s class", session.Status))
	}
	return s.transition(ctx, session, models.MakeupCompleted, "")
}

// Cancel withdraws a pending or assigned session and releases its teacher.
func (s *MakeupClassService) Cancel(ctx context.Context, kind models.MakeupKind, id, reason string) (*models.MakeupClass, error) {
	session, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot cancel a %s class", session.Status))
	}
	if strings.TrimSpace(reason) == "" {
		reason = "cancelled"
	}
	return s.transition(ctx, session, models.MakeupCancelled, strings.TrimSpace(reason))
}

// Export renders the filtered list of kind as CSV or PDF.
func (s *MakeupClassService) Export(ctx context.Context, kind models.MakeupKind, query dto.MakeupClassQuery) ([]byte, export.Format, string, error) {
	format, err := export.ParseFormat(query.Format)
	if err != nil {
		return nil, "", "", appErrors.Validation(err, "unsupported export format")
	}
	filter, err := s.filterFor(kind, query)
	if err != nil {
		return nil, "", "", err
	}
	filter.Page, filter.PageSize = 1, exportRowLimit
	items, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, "", "", appErrors.Internal(err, "failed to list make-up classes")
	}

	data := export.Dataset{
		Headers: []string{"Date", "Time", "Class", "Level", "Teacher", "Status", "Requested by", "Reason"},
		Widths:  []float64{1, 1, 1.6, 1, 1.4, 0.9, 1.6, 2},
	}
	for _, item := range items {
		data.Rows = append(data.Rows, map[string]string{
			"Date":         item.ScheduledDate.Format("02/01/2006"),
			"Time":         item.StartTime + "-" + item.EndTime,
			"Class":        item.ClassName,
			"Level":        stringValue(item.LevelCode),
			"Teacher":      stringValue(item.TeacherName),
			"Status":       string(item.Status),
			"Requested by": stringValue(item.RequestedBy),
			"Reason":       stringValue(item.Reason),
		})
	}

	title := strings.ToUpper(kindLabel(kind)[:1]) + kindLabel(kind)[1:] + "es"
	payload, err := s.renderer.Render(format, data, title)
	if err != nil {
		return nil, "", "", appErrors.Internal(err, "failed to render export")
	}
	filename := fmt.Sprintf("%s-classes-%s.%s", kind, s.now().Format("20060102"), format)
	return payload, format, filename, nil
}

func (s *MakeupClassService) transition(ctx context.Context, session *models.MakeupClass, to models.MakeupStatus, releaseReason string) (*models.MakeupClass, error) {
	expectedStatus, expectedTeacher := session.Status, session.TeacherID

	next := *session
	next.Status = to
	if to == models.MakeupCancelled && session.TeacherID != nil {
		history, err := session.History()
		if err != nil {
			return nil, appErrors.Internal(err, "failed to read assignment history")
		}
		if err := next.SetHistory(releaseOpen(history, releaseReason, s.now().UTC())); err != nil {
			return nil, appErrors.Internal(err, "failed to write assignment history")
		}
	}

	ok, err := s.repo.CompareAndSwap(ctx, &next, expectedStatus, expectedTeacher)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to update make-up class status")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "make-up class was changed by another request")
	}
	s.cache.InvalidateAvailability(ctx)
	s.logger.Info("make-up class status changed",
		zap.String("makeup_class_id", next.ID),
		zap.String("from", string(expectedStatus)),
		zap.String("to", string(to)),
	)
	return &next, nil
}

// checkWindow validates the level, date and time range shared by create and update.
func (s *MakeupClassService) checkWindow(ctx context.Context, levelID, rawDate, start, end string) (time.Time, error) {
	date, err := timeslot.ParseDate(rawDate)
	if err != nil {
		return time.Time{}, appErrors.Validation(err, err.Error())
	}
	if _, err := timeslot.ParseRange(start, end); err != nil {
		return time.Time{}, appErrors.Validation(err, "end time must be after start time")
	}
	if s.levels != nil {
		if _, err := s.levels.FindLevelByID(ctx, levelID); err != nil {
			return time.Time{}, lookupError(err, "subject level not found", "failed to load subject level")
		}
	}
	return date, nil
}

func (s *MakeupClassService) filterFor(kind models.MakeupKind, query dto.MakeupClassQuery) (models.MakeupClassFilter, error) {
	if err := s.validator.Struct(query); err != nil {
		return models.MakeupClassFilter{}, appErrors.Validation(err, "invalid query parameters")
	}
	filter := models.MakeupClassFilter{
		Kind:           kind,
		Status:         models.MakeupStatus(query.Status),
		TeacherID:      strings.TrimSpace(query.TeacherID),
		SubjectLevelID: strings.TrimSpace(query.SubjectLevelID),
		Search:         strings.TrimSpace(query.Search),
		SortBy:         query.SortBy,
		SortOrder:      query.SortOrder,
	}
	if query.DateFrom != "" {
		from, err := timeslot.ParseDate(query.DateFrom)
		if err != nil {
			return filter, appErrors.Validation(err, err.Error())
		}
		filter.DateFrom = &from
	}
	if query.DateTo != "" {
		to, err := timeslot.ParseDate(query.DateTo)
		if err != nil {
			return filter, appErrors.Validation(err, err.Error())
		}
		filter.DateTo = &to
	}
	filter.Page, filter.PageSize = models.NormalizePage(query.Page, query.Limit)
	return filter, nil
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
