package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/models"
	"github.com/noah-isme/edu-ops-api/pkg/database"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Deactivate(ctx context.Context, id string) error
}

type teacherLevelRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherLevelDetail, error)
	Create(ctx context.Context, level *models.TeacherLevel) error
	Delete(ctx context.Context, teacherID, subjectLevelID string) (bool, error)
}

type subjectLevelLookup interface {
	FindLevelByID(ctx context.Context, id string) (*models.SubjectLevel, error)
}

// CreateTeacherRequest represents payload for creating teachers.
type CreateTeacherRequest struct {
	FullName         string   `json:"full_name" validate:"required,max=255"`
	Email            string   `json:"email" validate:"required,email"`
	Phone            *string  `json:"phone" validate:"omitempty,max=50"`
	Status           string   `json:"status" validate:"omitempty,oneof=active inactive on_leave"`
	Qualifications   []string `json:"qualifications" validate:"omitempty,dive,max=255"`
	MaxOffsetClasses int      `json:"max_offset_classes" validate:"min=0"`
	Notes            *string  `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateTeacherRequest represents payload for updating teachers.
type UpdateTeacherRequest struct {
	FullName         string   `json:"full_name" validate:"required,max=255"`
	Email            string   `json:"email" validate:"required,email"`
	Phone            *string  `json:"phone" validate:"omitempty,max=50"`
	Status           string   `json:"status" validate:"required,oneof=active inactive on_leave"`
	Qualifications   []string `json:"qualifications" validate:"omitempty,dive,max=255"`
	MaxOffsetClasses int      `json:"max_offset_classes" validate:"min=0"`
	Notes            *string  `json:"notes" validate:"omitempty,max=2000"`
}

// AssignLevelRequest qualifies a teacher for a subject level.
type AssignLevelRequest struct {
	SubjectLevelID  string  `json:"subject_level_id" validate:"required"`
	ExperienceYears int     `json:"experience_years" validate:"min=0,max=60"`
	Certifications  *string `json:"certifications" validate:"omitempty,max=1000"`
}

// TeacherService orchestrates teacher operations.
type TeacherService struct {
	repo      teacherRepository
	levels    teacherLevelRepository
	subjects  subjectLevelLookup
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, levels teacherLevelRepository, subjects subjectLevelLookup, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, levels: levels, subjects: subjects, cache: cache, validator: validate, logger: logger}
}

// List returns teachers plus pagination data.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list teachers")
	}
	return teachers, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "teacher not found", "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a new teacher record.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid teacher payload")
	}
	email := normalizeEmail(req.Email)
	if err := s.ensureUniqueEmail(ctx, email, ""); err != nil {
		return nil, err
	}

	status := models.TeacherActive
	if req.Status != "" {
		status = models.TeacherStatus(req.Status)
	}
	teacher := &models.Teacher{
		FullName:         strings.TrimSpace(req.FullName),
		Email:            email,
		Phone:            normalizeOptional(req.Phone),
		Status:           status,
		Qualifications:   trimAll(req.Qualifications),
		MaxOffsetClasses: req.MaxOffsetClasses,
		Notes:            normalizeOptional(req.Notes),
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
		}
		return nil, appErrors.Internal(err, "failed to create teacher")
	}
	return teacher, nil
}

// Update modifies an existing teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid teacher payload")
	}
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	if err := s.ensureUniqueEmail(ctx, email, id); err != nil {
		return nil, err
	}

	teacher.FullName = strings.TrimSpace(req.FullName)
	teacher.Email = email
	teacher.Phone = normalizeOptional(req.Phone)
	teacher.Status = models.TeacherStatus(req.Status)
	teacher.Qualifications = trimAll(req.Qualifications)
	teacher.MaxOffsetClasses = req.MaxOffsetClasses
	teacher.Notes = normalizeOptional(req.Notes)

	if err := s.repo.Update(ctx, teacher); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
		}
		return nil, appErrors.Internal(err, "failed to update teacher")
	}
	s.cache.InvalidateAvailability(ctx)
	return teacher, nil
}

// Deactivate marks a teacher inactive.
func (s *TeacherService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to deactivate teacher")
	}
	s.cache.InvalidateAvailability(ctx)
	return nil
}

// ListLevels returns the levels a teacher is qualified for.
func (s *TeacherService) ListLevels(ctx context.Context, teacherID string) ([]models.TeacherLevelDetail, error) {
	if _, err := s.Get(ctx, teacherID); err != nil {
		return nil, err
	}
	levels, err := s.levels.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list teacher levels")
	}
	return levels, nil
}

// AssignLevel qualifies a teacher for a subject level.
func (s *TeacherService) AssignLevel(ctx context.Context, teacherID string, req AssignLevelRequest) (*models.TeacherLevel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid teacher level payload")
	}
	if _, err := s.Get(ctx, teacherID); err != nil {
		return nil, err
	}
	if _, err := s.subjects.FindLevelByID(ctx, req.SubjectLevelID); err != nil {
		return nil, lookupError(err, "subject level not found", "failed to load subject level")
	}

	level := &models.TeacherLevel{
		TeacherID:       teacherID,
		SubjectLevelID:  req.SubjectLevelID,
		ExperienceYears: req.ExperienceYears,
		Certifications:  normalizeOptional(req.Certifications),
	}
	if err := s.levels.Create(ctx, level); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already qualified for this level")
		}
		return nil, appErrors.Internal(err, "failed to assign teacher level")
	}
	s.cache.InvalidateAvailability(ctx)
	return level, nil
}

// RemoveLevel withdraws a teacher's qualification for a subject level.
func (s *TeacherService) RemoveLevel(ctx context.Context, teacherID, subjectLevelID string) error {
	removed, err := s.levels.Delete(ctx, teacherID, subjectLevelID)
	if err != nil {
		return appErrors.Internal(err, "failed to remove teacher level")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "teacher level not found")
	}
	s.cache.InvalidateAvailability(ctx)
	return nil
}

func (s *TeacherService) ensureUniqueEmail(ctx context.Context, email, excludeID string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check email uniqueness")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already used")
	}
	return nil
}

// lookupError maps sql.ErrNoRows to a 404 and anything else to a 500.
func lookupError(err error, notFound, failed string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, failed)
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
