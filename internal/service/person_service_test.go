package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academia-sys/academia-api/internal/models"
	appErrors "github.com/academia-sys/academia-api/pkg/errors"
)

type mockPersonRepo struct {
	people map[int64]*models.Person
	nextID int64
}

func newMockPersonRepo() *mockPersonRepo {
	return &mockPersonRepo{people: make(map[int64]*models.Person)}
}

func (m *mockPersonRepo) List(ctx context.Context, filter models.PersonFilter) ([]models.Person, int, error) {
	var result []models.Person
	for _, p := range m.people {
		if filter.Kind != "" && p.Kind != filter.Kind {
			continue
		}
		result = append(result, *p)
	}
	return result, len(result), nil
}

func (m *mockPersonRepo) FindByID(ctx context.Context, id int64) (*models.Person, error) {
	if p, ok := m.people[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPersonRepo) ExistsByDocument(ctx context.Context, documentID string, excludeID int64) (bool, error) {
	for _, p := range m.people {
		if p.DocumentID == documentID && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPersonRepo) Create(ctx context.Context, person *models.Person) error {
	m.nextID++
	person.ID = m.nextID
	m.people[person.ID] = person
	return nil
}

func (m *mockPersonRepo) Update(ctx context.Context, person *models.Person) error {
	m.people[person.ID] = person
	return nil
}

func (m *mockPersonRepo) SoftDelete(ctx context.Context, id int64) error {
	delete(m.people, id)
	return nil
}

func seedPerson(repo *mockPersonRepo, kind models.PersonKind, first, last, document string) *models.Person {
	person := &models.Person{Kind: kind, FirstName: first, LastName: last, DocumentID: document}
	_ = repo.Create(context.Background(), person)
	return person
}

func TestPersonServiceCreate(t *testing.T) {
	repo := newMockPersonRepo()
	svc := NewPersonService(repo, models.PersonKindStudent, validator.New(), zap.NewNop())

	person, err := svc.Create(context.Background(), CreatePersonRequest{
		FirstName:  "Ana",
		LastName:   "Gomez",
		DocumentID: "30111222",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PersonKindStudent, person.Kind)
	assert.NotZero(t, person.ID)
}

func TestPersonServiceCreateDuplicateDocument(t *testing.T) {
	repo := newMockPersonRepo()
	seedPerson(repo, models.PersonKindStudent, "Ana", "Gomez", "30111222")
	svc := NewPersonService(repo, models.PersonKindStudent, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreatePersonRequest{
		FirstName:  "Otra",
		LastName:   "Persona",
		DocumentID: "30111222",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPersonServiceGetWrongKindIsNotFound(t *testing.T) {
	repo := newMockPersonRepo()
	teacher := seedPerson(repo, models.PersonKindTeacher, "Laura", "Ruiz", "20333444")
	svc := NewPersonService(repo, models.PersonKindStudent, validator.New(), zap.NewNop())

	// A teacher ID queried through the student service must not leak.
	_, err := svc.Get(context.Background(), teacher.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPersonServiceListScopesKind(t *testing.T) {
	repo := newMockPersonRepo()
	seedPerson(repo, models.PersonKindStudent, "Ana", "Gomez", "1")
	seedPerson(repo, models.PersonKindTeacher, "Laura", "Ruiz", "2")
	seedPerson(repo, models.PersonKindStudent, "Pedro", "Diaz", "3")
	svc := NewPersonService(repo, models.PersonKindStudent, validator.New(), zap.NewNop())

	people, pagination, err := svc.List(context.Background(), models.PersonFilter{})
	require.NoError(t, err)
	assert.Len(t, people, 2)
	assert.Equal(t, 2, pagination.TotalCount)
	for _, p := range people {
		assert.Equal(t, models.PersonKindStudent, p.Kind)
	}
}

func TestPersonServiceUpdate(t *testing.T) {
	repo := newMockPersonRepo()
	student := seedPerson(repo, models.PersonKindStudent, "Ana", "Gomez", "30111222")
	svc := NewPersonService(repo, models.PersonKindStudent, validator.New(), zap.NewNop())

	updated, err := svc.Update(context.Background(), student.ID, UpdatePersonRequest{
		FirstName:  "Ana Maria",
		LastName:   "Gomez",
		DocumentID: "30111222",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.FirstName)
}

func TestPersonServiceDelete(t *testing.T) {
	repo := newMockPersonRepo()
	student := seedPerson(repo, models.PersonKindStudent, "Ana", "Gomez", "30111222")
	svc := NewPersonService(repo, models.PersonKindStudent, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), student.ID))

	err := svc.Delete(context.Background(), student.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
