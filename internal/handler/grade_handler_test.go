package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academia-sys/academia-api/internal/middleware"
	"github.com/academia-sys/academia-api/internal/models"
	"github.com/academia-sys/academia-api/internal/service"
)

type gradeRepoStub struct {
	types    []models.GradeType
	upserted []models.GradeEntry
}

func (m *gradeRepoStub) ListTypes(ctx context.Context) ([]models.GradeType, error) {
	return m.types, nil
}

func (m *gradeRepoStub) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntryDetail, int, error) {
	return nil, 0, nil
}

func (m *gradeRepoStub) Upsert(ctx context.Context, entry *models.GradeEntry) error {
	entry.ID = int64(len(m.upserted) + 1)
	m.upserted = append(m.upserted, *entry)
	return nil
}

type gradeAuditStub struct {
	logs []models.AuditLog
}

func (m *gradeAuditStub) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	m.logs = append(m.logs, *entry)
	return nil
}

type enrollmentStub struct {
	enrolled bool
}

func (m *enrollmentStub) Exists(ctx context.Context, studentID, subjectID int64) (bool, error) {
	return m.enrolled, nil
}

func newGradeHandlerUnderTest(repo *gradeRepoStub, enrolled bool) *GradeHandler {
	svc := service.NewGradeService(repo, &enrollmentStub{enrolled: enrolled}, nil, nil,
		validator.New(), zap.NewNop(), service.GradeConfig{SystemActorID: 2, MinScore: 1.0, MaxScore: 10.0})
	return NewGradeHandler(svc)
}

func TestGradeHandlerUpsert(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &gradeRepoStub{}
	handler := newGradeHandlerUnderTest(repo, true)

	score := 8.5
	payload, _ := json.Marshal(service.UpsertGradeRequest{StudentID: 1, SubjectID: 5, GradeTypeID: 3, Score: &score})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/grades", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.Principal{UserID: 9, Role: models.RoleTeacherApp, PersonID: ptrInt64Handler(42)})

	handler.Upsert(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.upserted, 1)
	assert.Equal(t, int64(42), repo.upserted[0].RecordedBy)
}

func TestGradeHandlerUpsertRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newGradeHandlerUnderTest(&gradeRepoStub{}, true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/grades", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Upsert(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGradeHandlerUpsertInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newGradeHandlerUnderTest(&gradeRepoStub{}, true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/grades", bytes.NewBufferString(`{"student_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.Principal{UserID: 9, Role: models.RoleTeacherApp})

	handler.Upsert(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGradeHandlerUpsertNotEnrolled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &gradeRepoStub{}
	handler := newGradeHandlerUnderTest(repo, false)

	score := 8.5
	payload, _ := json.Marshal(service.UpsertGradeRequest{StudentID: 1, SubjectID: 5, GradeTypeID: 3, Score: &score})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/grades", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.Principal{UserID: 9, Role: models.RoleTeacherApp})

	handler.Upsert(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.upserted)
}

func TestGradeHandlerUpsertAuditsOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &gradeRepoStub{}
	audits := &gradeAuditStub{}
	svc := service.NewGradeService(repo, &enrollmentStub{enrolled: true}, audits, nil,
		validator.New(), zap.NewNop(), service.GradeConfig{SystemActorID: 2, MinScore: 1.0, MaxScore: 10.0})
	handler := NewGradeHandler(svc)

	principal := &models.Principal{UserID: 9, Role: models.RoleTeacherApp, PersonID: ptrInt64Handler(42)}
	r := gin.New()
	r.POST("/grades", func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, principal)
	}, middleware.RBAC(string(models.RoleTeacherApp)), handler.Upsert)

	score := 8.5
	payload, _ := json.Marshal(service.UpsertGradeRequest{StudentID: 1, SubjectID: 5, GradeTypeID: 3, Score: &score})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/grades", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.upserted, 1)

	// The full route chain writes exactly one trail entry per upsert.
	require.Len(t, audits.logs, 1)
	assert.Equal(t, models.AuditActionGradeUpsert, audits.logs[0].Action)
	require.NotNil(t, audits.logs[0].UserID)
	assert.Equal(t, int64(9), *audits.logs[0].UserID)
}

func TestGradeHandlerListTypes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newGradeHandlerUnderTest(&gradeRepoStub{types: []models.GradeType{{ID: 1, Label: "Trabajo 1"}}}, true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/grades/types", nil)
	c.Request = req

	handler.ListTypes(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Trabajo 1")
}
