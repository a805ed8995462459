package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academia-sys/academia-api/internal/models"
	appErrors "github.com/academia-sys/academia-api/pkg/errors"
)

type mockAttendanceRepo struct {
	types    map[int64]*models.AbsenceType
	recorded []models.Absence
	details  []models.AbsenceDetail
	nextID   int64
}

func (m *mockAttendanceRepo) ListTypes(ctx context.Context) ([]models.AbsenceType, error) {
	var result []models.AbsenceType
	for _, t := range m.types {
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockAttendanceRepo) FindTypeByID(ctx context.Context, id int64) (*models.AbsenceType, error) {
	if t, ok := m.types[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) Record(ctx context.Context, absence *models.Absence) error {
	m.nextID++
	absence.ID = m.nextID
	m.recorded = append(m.recorded, *absence)
	return nil
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceDetail, int, error) {
	return m.details, len(m.details), nil
}

func (m *mockAttendanceRepo) DetailsByStudent(ctx context.Context, studentID int64) ([]models.AbsenceDetail, error) {
	return m.details, nil
}

func absenceDetail(date string, description string, weight float64, justified bool) models.AbsenceDetail {
	parsed, _ := time.Parse("2006-01-02", date)
	return models.AbsenceDetail{
		Absence:         models.Absence{Date: parsed, Justified: justified},
		TypeDescription: description,
		TypeWeight:      weight,
	}
}

func TestAttendanceServiceRecord(t *testing.T) {
	repo := &mockAttendanceRepo{types: map[int64]*models.AbsenceType{1: {ID: 1, Description: "Full day", Weight: 1}}}
	audits := &mockAuditRepo{}
	svc := NewAttendanceService(repo, audits, validator.New(), zap.NewNop())

	actor := &models.Principal{UserID: 7, Role: models.RoleTeacherApp}
	absence, err := svc.Record(context.Background(), RecordAbsenceRequest{
		StudentID: 3,
		TypeID:    1,
		Date:      "2026-03-15",
		Justified: true,
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(3), absence.StudentID)
	assert.Equal(t, 2026, absence.Date.Year())

	require.Len(t, audits.logs, 1)
	assert.Equal(t, models.AuditActionAbsenceRecord, audits.logs[0].Action)
	require.NotNil(t, audits.logs[0].UserID)
	assert.Equal(t, int64(7), *audits.logs[0].UserID)
}

func TestAttendanceServiceRecordBadDate(t *testing.T) {
	repo := &mockAttendanceRepo{types: map[int64]*models.AbsenceType{1: {ID: 1, Weight: 1}}}
	svc := NewAttendanceService(repo, nil, validator.New(), zap.NewNop())

	for _, date := range []string{"15/03/2026", "2026-3-5x", "not-a-date"} {
		_, err := svc.Record(context.Background(), RecordAbsenceRequest{StudentID: 3, TypeID: 1, Date: date}, nil)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, repo.recorded)
}

func TestAttendanceServiceRecordUnknownType(t *testing.T) {
	repo := &mockAttendanceRepo{types: map[int64]*models.AbsenceType{}}
	svc := NewAttendanceService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Record(context.Background(), RecordAbsenceRequest{StudentID: 3, TypeID: 9, Date: "2026-03-15"}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceSummaryWeighting(t *testing.T) {
	repo := &mockAttendanceRepo{
		details: []models.AbsenceDetail{
			absenceDetail("2026-03-02", "Full day", 1.0, false),
			absenceDetail("2026-03-09", "Late arrival", 0.5, true),
			absenceDetail("2026-03-16", "Full day", 1.0, true),
		},
	}
	svc := NewAttendanceService(repo, nil, validator.New(), zap.NewNop())

	summary, err := svc.Summary(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2.5, summary.TotalDaysLost)
	assert.Equal(t, 1.5, summary.JustifiedDays)
	require.Len(t, summary.DetailedRecords, 3)
	assert.Equal(t, "2026-03-02", summary.DetailedRecords[0].Date)
	assert.Equal(t, "Late arrival", summary.DetailedRecords[1].Type)
	assert.Equal(t, 0.5, summary.DetailedRecords[1].Value)
}

func TestAttendanceServiceSummaryEmpty(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := NewAttendanceService(repo, nil, validator.New(), zap.NewNop())

	summary, err := svc.Summary(context.Background(), 3)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalDaysLost)
	assert.Zero(t, summary.JustifiedDays)
	assert.Empty(t, summary.DetailedRecords)
}
