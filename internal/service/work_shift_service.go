package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/dto"
	"github.com/noah-isme/edu-ops-api/internal/models"
	"github.com/noah-isme/edu-ops-api/pkg/database"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

const availabilityCacheTTL = 2 * time.Minute

type workShiftRepository interface {
	List(ctx context.Context, filter models.WorkShiftFilter) ([]models.WorkShift, int, error)
	FindByID(ctx context.Context, id string) (*models.WorkShift, error)
	Create(ctx context.Context, shift *models.WorkShift) error
	CreateIgnoringDuplicates(ctx context.Context, shifts []models.WorkShift) ([]models.WorkShift, []models.WorkShift, error)
	Delete(ctx context.Context, id string) error
}

type shiftLookup interface {
	FindByID(ctx context.Context, id string) (*models.Shift, error)
}

type availabilityFinder interface {
	AvailableTeachers(ctx context.Context, date time.Time, startTime, endTime, subjectLevelID string) ([]dto.AvailableTeacher, error)
}

// WorkShiftRequest rosters one teacher onto one shift on a date.
type WorkShiftRequest struct {
	TeacherID string  `json:"teacher_id" validate:"required"`
	ShiftID   string  `json:"shift_id" validate:"required"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	Note      *string `json:"note" validate:"omitempty,max=500"`
}

// WorkShiftService manages the teacher roster.
type WorkShiftService struct {
	repo         workShiftRepository
	shifts       shiftLookup
	teachers     teacherLookup
	availability availabilityFinder
	cache        *CacheService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewWorkShiftService constructs a WorkShiftService.
func NewWorkShiftService(repo workShiftRepository, shifts shiftLookup, teachers teacherLookup, availability availabilityFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *WorkShiftService {
	if validate == nil {
		validate = timeslot.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkShiftService{repo: repo, shifts: shifts, teachers: teachers, availability: availability, cache: cache, validator: validate, logger: logger}
}

// List returns paginated work shifts.
func (s *WorkShiftService) List(ctx context.Context, filter models.WorkShiftFilter) ([]models.WorkShift, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list work shifts")
	}
	return items, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Create rosters a single work shift.
func (s *WorkShiftService) Create(ctx context.Context, req WorkShiftRequest) (*models.WorkShift, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid work shift payload")
	}
	date, err := timeslot.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		return nil, lookupError(err, "teacher not found", "failed to load teacher")
	}
	shift, err := s.shifts.FindByID(ctx, req.ShiftID)
	if err != nil {
		return nil, lookupError(err, "shift not found", "failed to load shift")
	}

	ws := &models.WorkShift{
		TeacherID: req.TeacherID,
		ShiftID:   req.ShiftID,
		Date:      date,
		Status:    models.WorkShiftScheduled,
		Note:      normalizeOptional(req.Note),
		ShiftName: shift.Name,
		StartTime: shift.StartTime,
		EndTime:   shift.EndTime,
	}
	if err := s.repo.Create(ctx, ws); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "teacher is already rostered on this shift for that date")
		}
		return nil, appErrors.Internal(err, "failed to create work shift")
	}
	s.cache.InvalidateAvailability(ctx)
	return ws, nil
}

// Bulk rosters every teacher x date x shift combination. Existing
// combinations are reported as duplicates rather than failing the request.
func (s *WorkShiftService) Bulk(ctx context.Context, req dto.BulkWorkShiftRequest) (*dto.BulkWorkShiftResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid bulk work shift payload")
	}
	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range uniqueStrings(req.Dates) {
		d, err := timeslot.ParseDate(raw)
		if err != nil {
			return nil, appErrors.Validation(err, err.Error())
		}
		dates = append(dates, d)
	}
	teacherIDs := uniqueStrings(req.TeacherIDs)
	for _, id := range teacherIDs {
		if _, err := s.teachers.FindByID(ctx, id); err != nil {
			return nil, lookupError(err, fmt.Sprintf("teacher %s not found", id), "failed to load teacher")
		}
	}
	shiftIDs := uniqueStrings(req.ShiftIDs)
	for _, id := range shiftIDs {
		if _, err := s.shifts.FindByID(ctx, id); err != nil {
			return nil, lookupError(err, fmt.Sprintf("shift %s not found", id), "failed to load shift")
		}
	}

	note := normalizeOptional(req.Note)
	batch := make([]models.WorkShift, 0, len(teacherIDs)*len(dates)*len(shiftIDs))
	for _, teacherID := range teacherIDs {
		for _, date := range dates {
			for _, shiftID := range shiftIDs {
				batch = append(batch, models.WorkShift{TeacherID: teacherID, ShiftID: shiftID, Date: date, Status: models.WorkShiftScheduled, Note: note})
			}
		}
	}

	created, duplicates, err := s.repo.CreateIgnoringDuplicates(ctx, batch)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create work shifts")
	}
	result := &dto.BulkWorkShiftResult{Requested: len(batch), Created: len(created), Duplicates: make([]dto.BulkWorkShiftDuplicate, 0, len(duplicates))}
	for _, dup := range duplicates {
		result.Duplicates = append(result.Duplicates, dto.BulkWorkShiftDuplicate{TeacherID: dup.TeacherID, Date: dup.Date.Format(timeslot.DateLayout), ShiftID: dup.ShiftID})
	}
	if len(created) > 0 {
		s.cache.InvalidateAvailability(ctx)
	}
	s.logger.Info("bulk work shifts rostered", zap.Int("requested", result.Requested), zap.Int("created", result.Created), zap.Int("duplicates", len(result.Duplicates)))
	return result, nil
}

// Delete removes a work shift.
func (s *WorkShiftService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupError(err, "work shift not found", "failed to load work shift")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete work shift")
	}
	s.cache.InvalidateAvailability(ctx)
	return nil
}

// Availability lists teachers free for the window. The flag reports a cache hit.
func (s *WorkShiftService) Availability(ctx context.Context, query dto.AvailabilityQuery) (*dto.AvailabilityResponse, bool, error) {
	query.StartTime = timeslot.Normalize(query.StartTime)
	query.EndTime = timeslot.Normalize(query.EndTime)
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Validation(err, "invalid availability query")
	}
	date, err := timeslot.ParseDate(query.Date)
	if err != nil {
		return nil, false, appErrors.Validation(err, err.Error())
	}
	if _, err := timeslot.ParseRange(query.StartTime, query.EndTime); err != nil {
		return nil, false, appErrors.Validation(err, err.Error())
	}

	key := fmt.Sprintf("availability:%s:%s-%s:%s", query.Date, query.StartTime, query.EndTime, query.SubjectLevelID)
	var cached dto.AvailabilityResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	teachers, err := s.availability.AvailableTeachers(ctx, date, query.StartTime, query.EndTime, query.SubjectLevelID)
	if err != nil {
		return nil, false, err
	}
	resp := &dto.AvailabilityResponse{Date: query.Date, StartTime: query.StartTime, EndTime: query.EndTime, Teachers: teachers}
	_ = s.cache.Set(ctx, key, resp, availabilityCacheTTL)
	return resp, false, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
