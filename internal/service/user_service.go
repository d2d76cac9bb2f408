package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edu-ops-api/internal/models"
	"github.com/noah-isme/edu-ops-api/pkg/database"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Email     string          `json:"email" validate:"required,email"`
	FullName  string          `json:"full_name" validate:"required,max=255"`
	Role      models.UserRole `json:"role" validate:"required,oneof=admin staff user"`
	TeacherID *string         `json:"teacher_id"`
	Active    *bool           `json:"active"`
	Password  string          `json:"password" validate:"required,min=6"`
}

// UpdateUserRequest payload for updating users.
type UpdateUserRequest struct {
	FullName  string          `json:"full_name" validate:"required,max=255"`
	Role      models.UserRole `json:"role" validate:"required,oneof=admin staff user"`
	TeacherID *string         `json:"teacher_id"`
	Active    *bool           `json:"active"`
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	teachers  teacherLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService. teachers may be nil to skip teacher link checks.
func NewUserService(repo userRepository, teachers teacherLookup, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	return users, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user not found", "failed to load user")
	}
	return user, nil
}

// Create adds a new user.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid create user payload")
	}
	teacherID, err := s.checkTeacher(ctx, req.TeacherID)
	if err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(req.Email),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		TeacherID:    teacherID,
		Active:       req.Active == nil || *req.Active,
		PasswordHash: string(passwordHash),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update modifies the user attributes.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid update payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	teacherID, err := s.checkTeacher(ctx, req.TeacherID)
	if err != nil {
		return nil, err
	}

	demoting := user.Role == models.RoleAdmin && user.Active && (req.Role != models.RoleAdmin || (req.Active != nil && !*req.Active))
	if demoting {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return nil, err
		}
	}

	user.FullName = strings.TrimSpace(req.FullName)
	user.Role = req.Role
	user.TeacherID = teacherID
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to update user")
	}
	return user, nil
}

// Delete deactivates a user. The last active admin cannot be removed.
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin && user.Active {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete user")
	}
	s.logger.Info("user deactivated", zap.String("user_id", id))
	return nil
}

func (s *UserService) ensureAnotherAdmin(ctx context.Context) error {
	admins, err := s.repo.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return appErrors.Internal(err, "failed to count admins")
	}
	if admins <= 1 {
		return appErrors.Clone(appErrors.ErrConflict, "cannot remove the last active admin")
	}
	return nil
}

func (s *UserService) checkTeacher(ctx context.Context, teacherID *string) (*string, error) {
	teacherID = normalizeOptional(teacherID)
	if teacherID == nil || s.teachers == nil {
		return teacherID, nil
	}
	if _, err := s.teachers.FindByID(ctx, *teacherID); err != nil {
		return nil, lookupError(err, "teacher not found", "failed to load teacher")
	}
	return teacherID, nil
}
