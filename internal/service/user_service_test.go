package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edu-ops-api/internal/models"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
)

type mockUserRepo struct {
	users      map[string]*models.User
	admins     int
	createErr  error
	lastFilter models.UserFilter
	deleted    []string
}

func newMockUserRepo(users ...models.User) *mockUserRepo {
	repo := &mockUserRepo{users: map[string]*models.User{}}
	for i := range users {
		u := users[i]
		repo.users[u.ID] = &u
		if u.Role == models.RoleAdmin && u.Active {
			repo.admins++
		}
	}
	return repo
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.lastFilter = filter
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserRepo) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	return m.admins, nil
}

func TestUserServiceList(t *testing.T) {
	repo := newMockUserRepo(models.User{ID: "1", Role: models.RoleStaff, Active: true})
	svc := NewUserService(repo, nil, nil, zap.NewNop())

	users, pagination, err := svc.List(context.Background(), models.UserFilter{PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 20, repo.lastFilter.PageSize)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 1, pagination.TotalPages)
}

func TestUserServiceCreate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil, zap.NewNop())

	user, err := svc.Create(context.Background(), CreateUserRequest{Email: "Staff@Example.com", FullName: " Hoa ", Role: models.RoleStaff, Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "staff@example.com", user.Email)
	assert.Equal(t, "Hoa", user.FullName)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))

	_, err = svc.Create(context.Background(), CreateUserRequest{Email: "x@example.com", FullName: "X", Role: "SUPERADMIN", Password: "secret1"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	repo.createErr = &pq.Error{Code: "23505"}
	svc := NewUserService(repo, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{Email: "a@example.com", FullName: "A", Role: models.RoleUser, Password: "secret1"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestUserServiceCreateChecksTeacherLink(t *testing.T) {
	teachers := &mockTeacherRepo{items: map[string]*models.Teacher{"t1": {ID: "t1"}}}
	svc := NewUserService(newMockUserRepo(), teachers, nil, zap.NewNop())

	missing := "t9"
	_, err := svc.Create(context.Background(), CreateUserRequest{Email: "a@example.com", FullName: "A", Role: models.RoleUser, Password: "secret1", TeacherID: &missing})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	known := "t1"
	user, err := svc.Create(context.Background(), CreateUserRequest{Email: "b@example.com", FullName: "B", Role: models.RoleUser, Password: "secret1", TeacherID: &known})
	require.NoError(t, err)
	require.NotNil(t, user.TeacherID)
	assert.Equal(t, "t1", *user.TeacherID)
}

func TestUserServiceUpdate(t *testing.T) {
	repo := newMockUserRepo(models.User{ID: "1", Role: models.RoleUser, Active: true, FullName: "Old"})
	svc := NewUserService(repo, nil, nil, zap.NewNop())

	inactive := false
	user, err := svc.Update(context.Background(), "1", UpdateUserRequest{FullName: "New", Role: models.RoleStaff, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "New", user.FullName)
	assert.Equal(t, models.RoleStaff, repo.users["1"].Role)
	assert.False(t, repo.users["1"].Active)

	_, err = svc.Update(context.Background(), "missing", UpdateUserRequest{FullName: "New", Role: models.RoleStaff})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestUserServiceKeepsLastAdmin(t *testing.T) {
	repo := newMockUserRepo(models.User{ID: "1", Role: models.RoleAdmin, Active: true})
	svc := NewUserService(repo, nil, nil, zap.NewNop())

	_, err := svc.Update(context.Background(), "1", UpdateUserRequest{FullName: "Admin", Role: models.RoleStaff})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	err = svc.Delete(context.Background(), "1")
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Empty(t, repo.deleted)

	repo.admins = 2
	require.NoError(t, svc.Delete(context.Background(), "1"))
	assert.Equal(t, []string{"1"}, repo.deleted)
}

func TestUserServiceDelete(t *testing.T) {
	repo := newMockUserRepo(models.User{ID: "1", Role: models.RoleStaff, Active: true})
	svc := NewUserService(repo, nil, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "1"))
	assert.True(t, appErrors.Is(svc.Delete(context.Background(), "2"), appErrors.ErrNotFound))
}
