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

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassDetail, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

type teacherLookup interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// ClassRequest captures the class payload for create and update.
type ClassRequest struct {
	Name           string  `json:"name" validate:"required,max=255"`
	SubjectLevelID string  `json:"subject_level_id" validate:"required"`
	TeacherID      *string `json:"teacher_id"`
	StartDate      string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	Capacity       int     `json:"capacity" validate:"required,min=1,max=1000"`
	Status         string  `json:"status" validate:"omitempty,oneof=pending active completed"`
	Room           *string `json:"room" validate:"omitempty,max=100"`
}

// ClassService coordinates class operations.
type ClassService struct {
	repo      classRepository
	levels    subjectLevelLookup
	teachers  teacherLookup
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, levels subjectLevelLookup, teachers teacherLookup, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, levels: levels, teachers: teachers, cache: cache, validator: validate, logger: logger}
}

// List returns paginated classes with teacher and level labels.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list classes")
	}
	return classes, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a class by id.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "class not found", "failed to load class")
	}
	return class, nil
}

// Create adds a new class.
func (s *ClassService) Create(ctx context.Context, req ClassRequest) (*models.ClassDetail, error) {
	class := &models.Class{Status: models.ClassPending}
	if err := s.apply(ctx, class, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Internal(err, "failed to create class")
	}
	return s.Get(ctx, class.ID)
}

// Update modifies an existing class.
func (s *ClassService) Update(ctx context.Context, id string, req ClassRequest) (*models.ClassDetail, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	class := current.Class
	if err := s.apply(ctx, &class, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &class); err != nil {
		return nil, appErrors.Internal(err, "failed to update class")
	}
	// Term and status changes decide whether fixed schedules still bind.
	s.cache.InvalidateAvailability(ctx)
	return s.Get(ctx, id)
}

// Delete removes a class and, through the schema, its fixed schedules.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "class is referenced by make-up classes")
		}
		return appErrors.Internal(err, "failed to delete class")
	}
	s.cache.InvalidateAvailability(ctx)
	return nil
}

func (s *ClassService) apply(ctx context.Context, class *models.Class, req ClassRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid class payload")
	}
	start, err := timeslot.ParseDate(req.StartDate)
	if err != nil {
		return appErrors.Validation(err, "invalid start_date")
	}
	end, err := timeslot.ParseDate(req.EndDate)
	if err != nil {
		return appErrors.Validation(err, "invalid end_date")
	}
	if end.Before(start) {
		return appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}
	if _, err := s.levels.FindLevelByID(ctx, req.SubjectLevelID); err != nil {
		return lookupError(err, "subject level not found", "failed to load subject level")
	}
	teacherID := normalizeOptional(req.TeacherID)
	if teacherID != nil {
		if _, err := s.teachers.FindByID(ctx, *teacherID); err != nil {
			return lookupError(err, "teacher not found", "failed to load teacher")
		}
	}

	class.Name = strings.TrimSpace(req.Name)
	class.SubjectLevelID = req.SubjectLevelID
	class.TeacherID = teacherID
	class.StartDate = start
	class.EndDate = end
	class.Capacity = req.Capacity
	class.Room = normalizeOptional(req.Room)
	if req.Status != "" {
		class.Status = models.ClassStatus(req.Status)
	}
	return nil
}
