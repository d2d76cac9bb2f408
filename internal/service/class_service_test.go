package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/models"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

type mockClassRepo struct {
	items map[string]*models.ClassDetail
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	var out []models.ClassDetail
	for _, c := range m.items {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	if c, ok := m.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	class.ID = "c-new"
	m.items[class.ID] = &models.ClassDetail{Class: *class}
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	m.items[class.ID] = &models.ClassDetail{Class: *class}
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func newTestClassService(repo *mockClassRepo) *ClassService {
	levels := &stubLevelLookup{levels: map[string]*models.SubjectLevel{"lvl-1": {ID: "lvl-1"}}}
	teachers := &stubTeacherLookup{teachers: map[string]*models.Teacher{"t1": {ID: "t1"}}}
	return NewClassService(repo, levels, teachers, nil, timeslot.NewValidator(), zap.NewNop())
}

func TestClassServiceCreate(t *testing.T) {
	repo := &mockClassRepo{items: map[string]*models.ClassDetail{}}
	svc := newTestClassService(repo)

	class, err := svc.Create(context.Background(), ClassRequest{
		Name:           "IELTS HP3 - K15",
		SubjectLevelID: "lvl-1",
		TeacherID:      strPtr("t1"),
		StartDate:      "2025-03-01",
		EndDate:        "2025-06-01",
		Capacity:       12,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ClassPending, class.Status)
	assert.Equal(t, "t1", *class.TeacherID)
}

func TestClassServiceCreateValidation(t *testing.T) {
	svc := newTestClassService(&mockClassRepo{items: map[string]*models.ClassDetail{}})

	cases := []ClassRequest{
		{Name: "A", SubjectLevelID: "lvl-1", StartDate: "2025-03-01", EndDate: "2025-02-01", Capacity: 10},
		{Name: "A", SubjectLevelID: "lvl-1", StartDate: "2025-03-01", EndDate: "2025-04-01", Capacity: 0},
		{Name: "A", SubjectLevelID: "lvl-1", StartDate: "01/03/2025", EndDate: "2025-04-01", Capacity: 5},
	}
	for _, req := range cases {
		_, err := svc.Create(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, 400, appErrors.FromError(err).Status)
	}
}

func TestClassServiceCreateUnknownReferences(t *testing.T) {
	svc := newTestClassService(&mockClassRepo{items: map[string]*models.ClassDetail{}})

	_, err := svc.Create(context.Background(), ClassRequest{Name: "A", SubjectLevelID: "missing", StartDate: "2025-03-01", EndDate: "2025-04-01", Capacity: 5})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Create(context.Background(), ClassRequest{Name: "A", SubjectLevelID: "lvl-1", TeacherID: strPtr("ghost"), StartDate: "2025-03-01", EndDate: "2025-04-01", Capacity: 5})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestClassServiceUpdateStatus(t *testing.T) {
	repo := &mockClassRepo{items: map[string]*models.ClassDetail{"c1": {Class: models.Class{ID: "c1", Status: models.ClassPending}}}}
	svc := newTestClassService(repo)

	class, err := svc.Update(context.Background(), "c1", ClassRequest{Name: "B", SubjectLevelID: "lvl-1", StartDate: "2025-03-01", EndDate: "2025-04-01", Capacity: 5, Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, models.ClassActive, class.Status)
}
