package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/models"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

type mockSubjectRepo struct {
	subjects map[string]*models.Subject
	levels   map[string]*models.SubjectLevel
	seq      int
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{subjects: map[string]*models.Subject{}, levels: map[string]*models.SubjectLevel{}}
}

func (m *mockSubjectRepo) nextID(prefix string) string {
	m.seq++
	return prefix + string(rune('0'+m.seq))
}

func (m *mockSubjectRepo) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	var out []models.Subject
	for _, s := range m.subjects {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	for id, s := range m.subjects {
		if strings.EqualFold(s.Code, code) && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = m.nextID("s")
	cp := *subject
	m.subjects[subject.ID] = &cp
	return nil
}

func (m *mockSubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	cp := *subject
	m.subjects[subject.ID] = &cp
	return nil
}

func (m *mockSubjectRepo) Delete(ctx context.Context, id string) error {
	delete(m.subjects, id)
	return nil
}

func (m *mockSubjectRepo) ListLevels(ctx context.Context, subjectID string) ([]models.SubjectLevel, error) {
	var out []models.SubjectLevel
	for _, l := range m.levels {
		if l.SubjectID == subjectID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockSubjectRepo) FindLevelByID(ctx context.Context, id string) (*models.SubjectLevel, error) {
	if l, ok := m.levels[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) FindLevelByCode(ctx context.Context, code string) (*models.SubjectLevel, error) {
	for _, l := range m.levels {
		if strings.EqualFold(l.Code, code) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) FindLevelBySubjectSemester(ctx context.Context, subjectCode string, semester int) (*models.SubjectLevel, error) {
	for _, l := range m.levels {
		s := m.subjects[l.SubjectID]
		if s != nil && strings.EqualFold(s.Code, subjectCode) && l.Semester == semester {
			cp := *l
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) ExistsLevel(ctx context.Context, subjectID string, semester int, excludeID string) (bool, error) {
	for id, l := range m.levels {
		if l.SubjectID == subjectID && l.Semester == semester && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubjectRepo) CreateLevel(ctx context.Context, level *models.SubjectLevel) error {
	level.ID = m.nextID("l")
	cp := *level
	m.levels[level.ID] = &cp
	return nil
}

func (m *mockSubjectRepo) UpdateLevel(ctx context.Context, level *models.SubjectLevel) error {
	cp := *level
	m.levels[level.ID] = &cp
	return nil
}

func (m *mockSubjectRepo) DeleteLevel(ctx context.Context, id string) error {
	delete(m.levels, id)
	return nil
}

func TestSubjectServiceCreateDerivesCode(t *testing.T) {
	repo := newMockSubjectRepo()
	svc := NewSubjectService(repo, timeslot.NewValidator(), zap.NewNop())

	subject, err := svc.Create(context.Background(), CreateSubjectRequest{Name: "Tiếng Anh Giao Tiếp"})
	require.NoError(t, err)
	assert.Equal(t, "TIENG-ANH-GIAO-TIEP", subject.Code)
	assert.True(t, subject.Active)

	_, err = svc.Create(context.Background(), CreateSubjectRequest{Code: "tieng-anh-giao-tiep", Name: "Dup"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestSubjectServiceLevelsDefaultCodeAndUniqueness(t *testing.T) {
	repo := newMockSubjectRepo()
	svc := NewSubjectService(repo, timeslot.NewValidator(), zap.NewNop())
	subject, err := svc.Create(context.Background(), CreateSubjectRequest{Code: "ielts", Name: "IELTS"})
	require.NoError(t, err)

	level, err := svc.CreateLevel(context.Background(), subject.ID, SubjectLevelRequest{Semester: 3, SessionsCount: 24})
	require.NoError(t, err)
	assert.Equal(t, "IELTS HP3", level.Code)
	assert.Equal(t, "IELTS - Semester 3", level.Name)

	_, err = svc.CreateLevel(context.Background(), subject.ID, SubjectLevelRequest{Semester: 3})
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)

	_, err = svc.CreateLevel(context.Background(), subject.ID, SubjectLevelRequest{Semester: 0})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSubjectServiceResolveLevel(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.subjects["s1"] = &models.Subject{ID: "s1", Code: "IELTS", Name: "IELTS"}
	repo.levels["l1"] = &models.SubjectLevel{ID: "l1", SubjectID: "s1", Semester: 3, Code: "IELTS SPECIAL"}
	repo.levels["l2"] = &models.SubjectLevel{ID: "l2", SubjectID: "s1", Semester: 4, Code: "IELTS HP4"}
	svc := NewSubjectService(repo, timeslot.NewValidator(), zap.NewNop())

	level, err := svc.ResolveLevel(context.Background(), "ielts  hp4")
	require.NoError(t, err)
	assert.Equal(t, "l2", level.ID)

	level, err = svc.ResolveLevel(context.Background(), "IELTS HP3")
	require.NoError(t, err)
	assert.Equal(t, "l1", level.ID, "falls back to subject code and semester")

	_, err = svc.ResolveLevel(context.Background(), "TOEIC HP1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.ResolveLevel(context.Background(), "random")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSubjectServiceDeleteLevelOfOtherSubject(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.subjects["s1"] = &models.Subject{ID: "s1", Code: "A"}
	repo.subjects["s2"] = &models.Subject{ID: "s2", Code: "B"}
	repo.levels["l1"] = &models.SubjectLevel{ID: "l1", SubjectID: "s1", Semester: 1}
	svc := NewSubjectService(repo, timeslot.NewValidator(), zap.NewNop())

	err := svc.DeleteLevel(context.Background(), "s2", "l1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	require.NoError(t, svc.DeleteLevel(context.Background(), "s1", "l1"))
}

func TestLevelConflictNamesViolatedIndex(t *testing.T) {
	err := levelConflict(&pq.Error{Code: "23505", Constraint: subjectLevelCodeIndex})
	assert.Equal(t, "level code already exists", appErrors.FromError(err).Message)

	err = levelConflict(&pq.Error{Code: "23505", Constraint: "uq_subject_levels_semester"})
	assert.Equal(t, "level already exists for this semester", appErrors.FromError(err).Message)
}
