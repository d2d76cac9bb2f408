package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/models"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	ListByTeacherDay(ctx context.Context, teacherID, dayOfWeek string) ([]models.ClassSchedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

type teacherBookings interface {
	ListAssignedByTeacherBetween(ctx context.Context, teacherID string, from, to time.Time) ([]models.MakeupClass, error)
}

type classLookup interface {
	FindByID(ctx context.Context, id string) (*models.ClassDetail, error)
}

// ScheduleRequest describes a fixed weekly slot. TeacherID defaults to the class teacher.
type ScheduleRequest struct {
	ClassID   string  `json:"class_id" validate:"required"`
	TeacherID string  `json:"teacher_id"`
	DayOfWeek string  `json:"day_of_week" validate:"required,weekday_vi"`
	StartTime string  `json:"start_time" validate:"required,hhmm"`
	EndTime   string  `json:"end_time" validate:"required,hhmm"`
	Room      *string `json:"room" validate:"omitempty,max=100"`
}

// ScheduleService coordinates scheduling logic.
type ScheduleService struct {
	repo      scheduleRepository
	classes   classLookup
	teachers  teacherLookup
	bookings  teacherBookings
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService instantiates ScheduleService. bookings may be nil, which
// skips the check against assigned make-up classes.
func NewScheduleService(repo scheduleRepository, classes classLookup, teachers teacherLookup, bookings teacherBookings, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = timeslot.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, classes: classes, teachers: teachers, bookings: bookings, cache: cache, validator: validate, logger: logger}
}

// List returns paginated schedules.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list schedules")
	}
	return items, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a schedule by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "schedule not found", "failed to load schedule")
	}
	return schedule, nil
}

// Create validates and stores a fixed slot.
func (s *ScheduleService) Create(ctx context.Context, req ScheduleRequest) (*models.Schedule, error) {
	schedule := &models.Schedule{}
	if err := s.apply(ctx, schedule, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Internal(err, "failed to create schedule")
	}
	s.cache.InvalidateAvailability(ctx)
	return schedule, nil
}

// Update modifies a fixed slot.
func (s *ScheduleService) Update(ctx context.Context, id string, req ScheduleRequest) (*models.Schedule, error) {
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, schedule, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, appErrors.Internal(err, "failed to update schedule")
	}
	s.cache.InvalidateAvailability(ctx)
	return schedule, nil
}

// Delete removes a fixed slot.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete schedule")
	}
	s.cache.InvalidateAvailability(ctx)
	return nil
}

func (s *ScheduleService) apply(ctx context.Context, schedule *models.Schedule, req ScheduleRequest) error {
	req.StartTime = timeslot.Normalize(req.StartTime)
	req.EndTime = timeslot.Normalize(req.EndTime)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid schedule payload")
	}
	window, err := timeslot.ParseRange(req.StartTime, req.EndTime)
	if err != nil {
		return appErrors.Validation(err, err.Error())
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		return lookupError(err, "class not found", "failed to load class")
	}
	teacherID := strings.TrimSpace(req.TeacherID)
	if teacherID == "" && class.TeacherID != nil {
		teacherID = *class.TeacherID
	}
	if teacherID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "teacher_id is required when the class has no teacher")
	}
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		return lookupError(err, "teacher not found", "failed to load teacher")
	}

	existing, err := s.repo.ListByTeacherDay(ctx, teacherID, req.DayOfWeek)
	if err != nil {
		return appErrors.Internal(err, "failed to check schedule conflicts")
	}
	for _, other := range existing {
		if other.ID == schedule.ID || other.ClassStatus == models.ClassCompleted {
			continue
		}
		// Classes whose terms never meet cannot clash.
		if other.EndDate.Before(class.StartDate) || class.EndDate.Before(other.StartDate) {
			continue
		}
		r, err := timeslot.ParseRange(other.StartTime, other.EndTime)
		if err != nil || !r.Overlaps(window) {
			continue
		}
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("teacher already teaches %s on %s %s", other.ClassName, other.DayOfWeek, r))
	}
	if err := s.checkBookings(ctx, teacherID, req.DayOfWeek, window, class); err != nil {
		return err
	}

	schedule.ClassID = req.ClassID
	schedule.TeacherID = teacherID
	schedule.DayOfWeek = req.DayOfWeek
	schedule.StartTime = req.StartTime
	schedule.EndTime = req.EndTime
	schedule.Room = normalizeOptional(req.Room)
	return nil
}

// checkBookings rejects a weekly slot that would land on a make-up class the
// teacher already holds during the class term.
func (s *ScheduleService) checkBookings(ctx context.Context, teacherID, day string, window timeslot.Range, class *models.ClassDetail) error {
	if s.bookings == nil {
		return nil
	}
	sessions, err := s.bookings.ListAssignedByTeacherBetween(ctx, teacherID, class.StartDate, class.EndDate)
	if err != nil {
		return appErrors.Internal(err, "failed to check make-up class conflicts")
	}
	for _, session := range sessions {
		if timeslot.WeekdayOf(session.ScheduledDate) != day {
			continue
		}
		r, err := timeslot.ParseRange(session.StartTime, session.EndTime)
		if err != nil || !r.Overlaps(window) {
			continue
		}
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("teacher holds %s class %s on %s %s",
			session.Kind, session.ClassName, session.ScheduledDate.Format(timeslot.DateLayout), r))
	}
	return nil
}
