package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/models"
	"github.com/noah-isme/edu-ops-api/pkg/database"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

type shiftRepository interface {
	List(ctx context.Context) ([]models.Shift, error)
	FindByID(ctx context.Context, id string) (*models.Shift, error)
	Create(ctx context.Context, shift *models.Shift) error
	Update(ctx context.Context, shift *models.Shift) error
	Delete(ctx context.Context, id string) error
}

// ShiftRequest defines a named daily window.
type ShiftRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
}

// ShiftService manages shift definitions.
type ShiftService struct {
	repo      shiftRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewShiftService constructs a ShiftService.
func NewShiftService(repo shiftRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ShiftService {
	if validate == nil {
		validate = timeslot.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShiftService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns every shift ordered by start time.
func (s *ShiftService) List(ctx context.Context) ([]models.Shift, error) {
	shifts, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list shifts")
	}
	return shifts, nil
}

// Create stores a new shift.
func (s *ShiftService) Create(ctx context.Context, req ShiftRequest) (*models.Shift, error) {
	shift := &models.Shift{}
	if err := s.apply(shift, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, shift); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "shift name already exists")
		}
		return nil, appErrors.Internal(err, "failed to create shift")
	}
	return shift, nil
}

// Update edits a shift. Rostered work shifts pick up the new window.
func (s *ShiftService) Update(ctx context.Context, id string, req ShiftRequest) (*models.Shift, error) {
	shift, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "shift not found", "failed to load shift")
	}
	if err := s.apply(shift, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, shift); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "shift name already exists")
		}
		return nil, appErrors.Internal(err, "failed to update shift")
	}
	s.cache.InvalidateAvailability(ctx)
	return shift, nil
}

// Delete removes a shift no work shift references.
func (s *ShiftService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupError(err, "shift not found", "failed to load shift")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "shift is used by work shifts")
		}
		return appErrors.Internal(err, "failed to delete shift")
	}
	return nil
}

func (s *ShiftService) apply(shift *models.Shift, req ShiftRequest) error {
	req.StartTime = timeslot.Normalize(req.StartTime)
	req.EndTime = timeslot.Normalize(req.EndTime)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid shift payload")
	}
	if _, err := timeslot.ParseRange(req.StartTime, req.EndTime); err != nil {
		return appErrors.Validation(err, err.Error())
	}
	shift.Name = strings.TrimSpace(req.Name)
	shift.StartTime = req.StartTime
	shift.EndTime = req.EndTime
	return nil
}
