package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/models"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

type freeScheduleRepository interface {
	List(ctx context.Context, filter models.FreeScheduleFilter) ([]models.FreeSchedule, int, error)
	ListByTeacherDay(ctx context.Context, teacherID, dayOfWeek string) ([]models.FreeSchedule, error)
	FindByID(ctx context.Context, id string) (*models.FreeSchedule, error)
	Create(ctx context.Context, schedule *models.FreeSchedule) error
	Delete(ctx context.Context, id string) error
}

// FreeScheduleRequest declares a weekly free slot.
type FreeScheduleRequest struct {
	TeacherID string  `json:"teacher_id" validate:"required"`
	DayOfWeek string  `json:"day_of_week" validate:"required,weekday_vi"`
	StartTime string  `json:"start_time" validate:"required,hhmm"`
	EndTime   string  `json:"end_time" validate:"required,hhmm"`
	Note      *string `json:"note" validate:"omitempty,max=500"`
}

// FreeScheduleService manages teachers' weekly free slots.
type FreeScheduleService struct {
	repo      freeScheduleRepository
	teachers  teacherLookup
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFreeScheduleService constructs a FreeScheduleService.
func NewFreeScheduleService(repo freeScheduleRepository, teachers teacherLookup, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *FreeScheduleService {
	if validate == nil {
		validate = timeslot.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FreeScheduleService{repo: repo, teachers: teachers, cache: cache, validator: validate, logger: logger}
}

// List returns paginated free slots.
func (s *FreeScheduleService) List(ctx context.Context, filter models.FreeScheduleFilter) ([]models.FreeSchedule, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list free schedules")
	}
	return items, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Create stores a free slot. Overlapping slots of the same teacher and day are rejected.
func (s *FreeScheduleService) Create(ctx context.Context, req FreeScheduleRequest) (*models.FreeSchedule, error) {
	req.StartTime = timeslot.Normalize(req.StartTime)
	req.EndTime = timeslot.Normalize(req.EndTime)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid free schedule payload")
	}
	window, err := timeslot.ParseRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		return nil, lookupError(err, "teacher not found", "failed to load teacher")
	}

	existing, err := s.repo.ListByTeacherDay(ctx, req.TeacherID, req.DayOfWeek)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check free schedules")
	}
	for _, other := range existing {
		if r, err := timeslot.ParseRange(other.StartTime, other.EndTime); err == nil && r.Overlaps(window) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("overlaps existing free slot %s on %s", r, other.DayOfWeek))
		}
	}

	schedule := &models.FreeSchedule{
		TeacherID: req.TeacherID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Note:      normalizeOptional(req.Note),
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Internal(err, "failed to create free schedule")
	}
	s.cache.InvalidateAvailability(ctx)
	return schedule, nil
}

// Delete removes a free slot.
func (s *FreeScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupError(err, "free schedule not found", "failed to load free schedule")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete free schedule")
	}
	s.cache.InvalidateAvailability(ctx)
	return nil
}
