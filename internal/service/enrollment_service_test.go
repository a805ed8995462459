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

type mockEnrollmentRepo struct {
	enrollments map[int64]*models.Enrollment
	nextID      int64
}

func newMockEnrollmentRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{enrollments: make(map[int64]*models.Enrollment)}
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var result []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if filter.StudentID != 0 && e.StudentID != filter.StudentID {
			continue
		}
		result = append(result, models.EnrollmentDetail{Enrollment: *e})
	}
	return result, len(result), nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id int64) (*models.EnrollmentDetail, error) {
	if e, ok := m.enrollments[id]; ok {
		return &models.EnrollmentDetail{Enrollment: *e}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Exists(ctx context.Context, studentID, subjectID int64) (bool, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.SubjectID == subjectID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	m.nextID++
	enrollment.ID = m.nextID
	m.enrollments[enrollment.ID] = enrollment
	return nil
}

func (m *mockEnrollmentRepo) SoftDelete(ctx context.Context, id int64) error {
	delete(m.enrollments, id)
	return nil
}

func TestEnrollmentServiceCreate(t *testing.T) {
	repo := newMockEnrollmentRepo()
	reports := &mockInvalidator{}
	svc := NewEnrollmentService(repo, reports, validator.New(), zap.NewNop())

	enrollment, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: 1, SubjectID: 5})
	require.NoError(t, err)
	assert.NotZero(t, enrollment.ID)
	assert.Equal(t, []int64{1}, reports.students)
	assert.Equal(t, []int64{5}, reports.subjects)
}

func TestEnrollmentServiceCreateDuplicate(t *testing.T) {
	repo := newMockEnrollmentRepo()
	svc := NewEnrollmentService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: 1, SubjectID: 5})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: 1, SubjectID: 5})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceWithdraw(t *testing.T) {
	repo := newMockEnrollmentRepo()
	reports := &mockInvalidator{}
	svc := NewEnrollmentService(repo, reports, validator.New(), zap.NewNop())

	enrollment, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: 1, SubjectID: 5})
	require.NoError(t, err)

	require.NoError(t, svc.Withdraw(context.Background(), enrollment.ID))
	assert.Empty(t, repo.enrollments)

	// Both caches invalidated on create and withdraw.
	assert.Equal(t, []int64{1, 1}, reports.students)
	assert.Equal(t, []int64{5, 5}, reports.subjects)
}

func TestEnrollmentServiceWithdrawUnknown(t *testing.T) {
	svc := NewEnrollmentService(newMockEnrollmentRepo(), nil, validator.New(), zap.NewNop())

	err := svc.Withdraw(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
