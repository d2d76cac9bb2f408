package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/models"
	"github.com/noah-isme/edu-ops-api/pkg/database"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
)

// levelCodePattern matches "<SUBJECT CODE> HP<semester>", e.g. "IELTS HP3".
var levelCodePattern = regexp.MustCompile(`(?i)^(.+?)\s*HP\s*(\d+)$`)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
	ListLevels(ctx context.Context, subjectID string) ([]models.SubjectLevel, error)
	FindLevelByID(ctx context.Context, id string) (*models.SubjectLevel, error)
	FindLevelByCode(ctx context.Context, code string) (*models.SubjectLevel, error)
	FindLevelBySubjectSemester(ctx context.Context, subjectCode string, semester int) (*models.SubjectLevel, error)
	ExistsLevel(ctx context.Context, subjectID string, semester int, excludeID string) (bool, error)
	CreateLevel(ctx context.Context, level *models.SubjectLevel) error
	UpdateLevel(ctx context.Context, level *models.SubjectLevel) error
	DeleteLevel(ctx context.Context, id string) error
}

// CreateSubjectRequest captures fields for creating subjects. Code is derived from Name when empty.
type CreateSubjectRequest struct {
	Code        string  `json:"code" validate:"omitempty,max=50"`
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// UpdateSubjectRequest modifies subject fields.
type UpdateSubjectRequest struct {
	Code        string  `json:"code" validate:"required,max=50"`
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Active      *bool   `json:"active"`
}

// SubjectLevelRequest creates or updates a level of a subject.
type SubjectLevelRequest struct {
	Semester      int    `json:"semester" validate:"required,min=1,max=50"`
	Code          string `json:"code" validate:"omitempty,max=50"`
	Name          string `json:"name" validate:"omitempty,max=255"`
	SessionsCount int    `json:"sessions_count" validate:"min=0,max=500"`
}

// SubjectService handles subject domain workflows.
type SubjectService struct {
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated subjects.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list subjects")
	}
	return subjects, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns subject by identifier.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "subject not found", "failed to load subject")
	}
	return subject, nil
}

// Create adds a new subject ensuring code uniqueness.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid subject payload")
	}

	code := normalizeSubjectCode(req.Code)
	if code == "" {
		code = normalizeSubjectCode(slug.Make(req.Name))
	}
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject code could not be derived from name")
	}
	if err := s.ensureUniqueCode(ctx, code, ""); err != nil {
		return nil, err
	}

	subject := &models.Subject{
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Description: normalizeOptional(req.Description),
		Active:      true,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
		}
		return nil, appErrors.Internal(err, "failed to create subject")
	}
	return subject, nil
}

// Update modifies an existing subject.
func (s *SubjectService) Update(ctx context.Context, id string, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid subject payload")
	}
	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	code := normalizeSubjectCode(req.Code)
	if err := s.ensureUniqueCode(ctx, code, id); err != nil {
		return nil, err
	}

	subject.Code = code
	subject.Name = strings.TrimSpace(req.Name)
	subject.Description = normalizeOptional(req.Description)
	if req.Active != nil {
		subject.Active = *req.Active
	}
	if err := s.repo.Update(ctx, subject); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
		}
		return nil, appErrors.Internal(err, "failed to update subject")
	}
	return subject, nil
}

// Delete removes a subject that no class or session references.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "subject is still in use")
		}
		return appErrors.Internal(err, "failed to delete subject")
	}
	return nil
}

// ListLevels returns the levels of a subject.
func (s *SubjectService) ListLevels(ctx context.Context, subjectID string) ([]models.SubjectLevel, error) {
	if _, err := s.Get(ctx, subjectID); err != nil {
		return nil, err
	}
	levels, err := s.repo.ListLevels(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subject levels")
	}
	return levels, nil
}

// CreateLevel adds a level; (subject, semester) must be unique.
func (s *SubjectService) CreateLevel(ctx context.Context, subjectID string, req SubjectLevelRequest) (*models.SubjectLevel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid subject level payload")
	}
	subject, err := s.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueLevel(ctx, subjectID, req.Semester, ""); err != nil {
		return nil, err
	}

	level := &models.SubjectLevel{SubjectID: subjectID, Semester: req.Semester, SessionsCount: req.SessionsCount}
	applyLevelLabels(level, subject, req)
	if err := s.repo.CreateLevel(ctx, level); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, levelConflict(err)
		}
		return nil, appErrors.Internal(err, "failed to create subject level")
	}
	return level, nil
}

// UpdateLevel edits a level of subjectID.
func (s *SubjectService) UpdateLevel(ctx context.Context, subjectID, levelID string, req SubjectLevelRequest) (*models.SubjectLevel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid subject level payload")
	}
	subject, err := s.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	level, err := s.levelOf(ctx, subjectID, levelID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueLevel(ctx, subjectID, req.Semester, levelID); err != nil {
		return nil, err
	}

	level.Semester = req.Semester
	level.SessionsCount = req.SessionsCount
	applyLevelLabels(level, subject, req)
	if err := s.repo.UpdateLevel(ctx, level); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, levelConflict(err)
		}
		return nil, appErrors.Internal(err, "failed to update subject level")
	}
	return level, nil
}

// DeleteLevel removes a level of subjectID.
func (s *SubjectService) DeleteLevel(ctx context.Context, subjectID, levelID string) error {
	if _, err := s.levelOf(ctx, subjectID, levelID); err != nil {
		return err
	}
	if err := s.repo.DeleteLevel(ctx, levelID); err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "subject level is still in use")
		}
		return appErrors.Internal(err, "failed to delete subject level")
	}
	return nil
}

// ResolveLevel finds a level by its code. An exact case-insensitive match wins;
// otherwise "<SUBJECT CODE> HP<N>" is split into subject code and semester.
func (s *SubjectService) ResolveLevel(ctx context.Context, code string) (*models.SubjectLevel, error) {
	code = strings.Join(strings.Fields(code), " ")
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class name is empty")
	}
	level, err := s.repo.FindLevelByCode(ctx, code)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to look up subject level")
	}

	m := levelCodePattern.FindStringSubmatch(code)
	if m == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no subject level matches %q", code))
	}
	semester, _ := strconv.Atoi(m[2])
	level, err = s.repo.FindLevelBySubjectSemester(ctx, strings.TrimSpace(m[1]), semester)
	if err != nil {
		return nil, lookupError(err, fmt.Sprintf("no subject level matches %q", code), "failed to look up subject level")
	}
	return level, nil
}

func (s *SubjectService) levelOf(ctx context.Context, subjectID, levelID string) (*models.SubjectLevel, error) {
	level, err := s.repo.FindLevelByID(ctx, levelID)
	if err != nil {
		return nil, lookupError(err, "subject level not found", "failed to load subject level")
	}
	if level.SubjectID != subjectID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject level not found")
	}
	return level, nil
}

func (s *SubjectService) ensureUniqueCode(ctx context.Context, code, excludeID string) error {
	exists, err := s.repo.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check subject code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
	}
	return nil
}

func (s *SubjectService) ensureUniqueLevel(ctx context.Context, subjectID string, semester int, excludeID string) error {
	exists, err := s.repo.ExistsLevel(ctx, subjectID, semester, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check subject level")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "level already exists for this semester")
	}
	return nil
}

func applyLevelLabels(level *models.SubjectLevel, subject *models.Subject, req SubjectLevelRequest) {
	level.Code = strings.ToUpper(strings.Join(strings.Fields(req.Code), " "))
	if level.Code == "" {
		level.Code = fmt.Sprintf("%s HP%d", subject.Code, req.Semester)
	}
	level.Name = strings.TrimSpace(req.Name)
	if level.Name == "" {
		level.Name = fmt.Sprintf("%s - Semester %d", subject.Name, req.Semester)
	}
}

func normalizeSubjectCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.ReplaceAll(code, " ", "-")
}

// subjectLevelCodeIndex is the unique index on upper(code) in subject_levels.
const subjectLevelCodeIndex = "uq_subject_levels_code"

func levelConflict(err error) error {
	if database.ConstraintName(err) == subjectLevelCodeIndex {
		return appErrors.Clone(appErrors.ErrConflict, "level code already exists")
	}
	return appErrors.Clone(appErrors.ErrConflict, "level already exists for this semester")
}
