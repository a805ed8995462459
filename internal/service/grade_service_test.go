package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academia-sys/academia-api/internal/models"
	appErrors "github.com/academia-sys/academia-api/pkg/errors"
)

type mockGradeRepo struct {
	types   []models.GradeType
	entries map[string]models.GradeEntry
	nextID  int64
}

func (m *mockGradeRepo) ListTypes(ctx context.Context) ([]models.GradeType, error) {
	return m.types, nil
}

func (m *mockGradeRepo) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntryDetail, int, error) {
	var result []models.GradeEntryDetail
	for _, e := range m.entries {
		result = append(result, models.GradeEntryDetail{GradeEntry: e})
	}
	return result, len(result), nil
}

func (m *mockGradeRepo) Upsert(ctx context.Context, entry *models.GradeEntry) error {
	if m.entries == nil {
		m.entries = make(map[string]models.GradeEntry)
	}
	key := upsertKey(entry.StudentID, entry.SubjectID, entry.GradeTypeID)
	if existing, ok := m.entries[key]; ok {
		entry.ID = existing.ID
	} else {
		m.nextID++
		entry.ID = m.nextID
	}
	m.entries[key] = *entry
	return nil
}

func upsertKey(studentID, subjectID, typeID int64) string {
	return fmt.Sprintf("%d:%d:%d", studentID, subjectID, typeID)
}

type mockEnrollmentChecker struct {
	enrolled map[[2]int64]bool
}

func (m *mockEnrollmentChecker) Exists(ctx context.Context, studentID, subjectID int64) (bool, error) {
	return m.enrolled[[2]int64{studentID, subjectID}], nil
}

type mockAuditRepo struct {
	logs []models.AuditLog
}

func (m *mockAuditRepo) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	m.logs = append(m.logs, *entry)
	return nil
}

type mockInvalidator struct {
	students []int64
	subjects []int64
}

func (m *mockInvalidator) InvalidateStudent(ctx context.Context, studentID int64) {
	m.students = append(m.students, studentID)
}

func (m *mockInvalidator) InvalidateSubject(ctx context.Context, subjectID int64) {
	m.subjects = append(m.subjects, subjectID)
}

func defaultGradeConfig() GradeConfig {
	return GradeConfig{SystemActorID: 2, MinScore: 1.0, MaxScore: 10.0}
}

func ptrFloat(v float64) *float64 { return &v }

func ptrInt64(v int64) *int64 { return &v }

func TestGradeServiceUpsert(t *testing.T) {
	repo := &mockGradeRepo{}
	enrollments := &mockEnrollmentChecker{enrolled: map[[2]int64]bool{{1, 5}: true}}
	audits := &mockAuditRepo{}
	reports := &mockInvalidator{}
	svc := NewGradeService(repo, enrollments, audits, reports, validator.New(), zap.NewNop(), defaultGradeConfig())

	actor := &models.Principal{UserID: 9, Role: models.RoleTeacherApp, PersonID: ptrInt64(42)}
	entry, err := svc.Upsert(context.Background(), UpsertGradeRequest{
		StudentID:   1,
		SubjectID:   5,
		GradeTypeID: 3,
		Score:       ptrFloat(8.5),
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(42), entry.RecordedBy)
	assert.Equal(t, 8.5, entry.Score)

	require.Len(t, audits.logs, 1)
	assert.Equal(t, models.AuditActionGradeUpsert, audits.logs[0].Action)
	assert.Equal(t, []int64{1}, reports.students)
	assert.Equal(t, []int64{5}, reports.subjects)
}

func TestGradeServiceUpsertOverwrites(t *testing.T) {
	repo := &mockGradeRepo{}
	enrollments := &mockEnrollmentChecker{enrolled: map[[2]int64]bool{{1, 5}: true}}
	svc := NewGradeService(repo, enrollments, nil, nil, validator.New(), zap.NewNop(), defaultGradeConfig())

	first, err := svc.Upsert(context.Background(), UpsertGradeRequest{StudentID: 1, SubjectID: 5, GradeTypeID: 3, Score: ptrFloat(4.0)}, nil)
	require.NoError(t, err)
	second, err := svc.Upsert(context.Background(), UpsertGradeRequest{StudentID: 1, SubjectID: 5, GradeTypeID: 3, Score: ptrFloat(9.0)}, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, repo.entries, 1)
	for _, stored := range repo.entries {
		assert.Equal(t, 9.0, stored.Score)
	}
}

func TestGradeServiceUpsertSystemActorFallback(t *testing.T) {
	repo := &mockGradeRepo{}
	enrollments := &mockEnrollmentChecker{enrolled: map[[2]int64]bool{{1, 5}: true}}
	svc := NewGradeService(repo, enrollments, nil, nil, validator.New(), zap.NewNop(), defaultGradeConfig())

	// Admin account with no linked person record.
	actor := &models.Principal{UserID: 1, Role: models.RoleSystemAdmin}
	entry, err := svc.Upsert(context.Background(), UpsertGradeRequest{StudentID: 1, SubjectID: 5, GradeTypeID: 3, Score: ptrFloat(7.0)}, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), entry.RecordedBy)
}

func TestGradeServiceUpsertScoreBounds(t *testing.T) {
	repo := &mockGradeRepo{}
	enrollments := &mockEnrollmentChecker{enrolled: map[[2]int64]bool{{1, 5}: true}}
	svc := NewGradeService(repo, enrollments, nil, nil, validator.New(), zap.NewNop(), defaultGradeConfig())

	for _, score := range []float64{0.5, 10.5, -1} {
		_, err := svc.Upsert(context.Background(), UpsertGradeRequest{StudentID: 1, SubjectID: 5, GradeTypeID: 3, Score: ptrFloat(score)}, nil)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}

	for _, score := range []float64{1.0, 10.0} {
		_, err := svc.Upsert(context.Background(), UpsertGradeRequest{StudentID: 1, SubjectID: 5, GradeTypeID: 3, Score: ptrFloat(score)}, nil)
		require.NoError(t, err)
	}
}

func TestGradeServiceUpsertRequiresEnrollment(t *testing.T) {
	repo := &mockGradeRepo{}
	enrollments := &mockEnrollmentChecker{enrolled: map[[2]int64]bool{}}
	svc := NewGradeService(repo, enrollments, nil, nil, validator.New(), zap.NewNop(), defaultGradeConfig())

	_, err := svc.Upsert(context.Background(), UpsertGradeRequest{StudentID: 1, SubjectID: 5, GradeTypeID: 3, Score: ptrFloat(7.0)}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.entries)
}

func TestGradeServiceUpsertRejectsMissingFields(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, &mockEnrollmentChecker{}, nil, nil, validator.New(), zap.NewNop(), defaultGradeConfig())

	_, err := svc.Upsert(context.Background(), UpsertGradeRequest{StudentID: 1, SubjectID: 5}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceListTypes(t *testing.T) {
	repo := &mockGradeRepo{types: []models.GradeType{{ID: 1, Label: "Trabajo 1"}, {ID: 7, Label: "Definitiva"}}}
	svc := NewGradeService(repo, &mockEnrollmentChecker{}, nil, nil, validator.New(), zap.NewNop(), defaultGradeConfig())

	types, err := svc.ListTypes(context.Background())
	require.NoError(t, err)
	assert.Len(t, types, 2)
}
