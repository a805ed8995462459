package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academia-sys/academia-api/internal/middleware"
	"github.com/academia-sys/academia-api/internal/models"
	"github.com/academia-sys/academia-api/internal/service"
)

type reportRepoStub struct {
	types        []models.GradeType
	studentCells []models.GradeCell
	subjectNames map[int64]string
	courseCells  []models.GradeCell
	studentNames map[int64]string
	belongs      bool
}

func (m *reportRepoStub) ListGradeTypes(ctx context.Context) ([]models.GradeType, error) {
	return m.types, nil
}

func (m *reportRepoStub) CellsByStudent(ctx context.Context, studentID int64) ([]models.GradeCell, error) {
	return m.studentCells, nil
}

func (m *reportRepoStub) SubjectNamesByStudent(ctx context.Context, studentID int64) (map[int64]string, error) {
	return m.subjectNames, nil
}

func (m *reportRepoStub) CellsByCourseSubject(ctx context.Context, courseID, subjectID int64) ([]models.GradeCell, error) {
	return m.courseCells, nil
}

func (m *reportRepoStub) StudentNamesBySubject(ctx context.Context, subjectID int64) (map[int64]string, error) {
	return m.studentNames, nil
}

func (m *reportRepoStub) SubjectBelongsToCourse(ctx context.Context, subjectID, courseID int64) (bool, error) {
	return m.belongs, nil
}

func newReportHandlerUnderTest(repo *reportRepoStub) *ReportHandler {
	svc := service.NewReportService(repo, nil, nil, zap.NewNop(), service.ReportConfig{FinalColumnID: 7, CacheTTL: time.Minute})
	return NewReportHandler(svc)
}

func ptrInt64Handler(v int64) *int64 { return &v }

func TestReportHandlerStudentReportWireFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandlerUnderTest(&reportRepoStub{
		types:        []models.GradeType{{ID: 1, Label: "Trabajo 1"}},
		subjectNames: map[int64]string{10: "Matematica"},
		studentCells: []models.GradeCell{{RowID: 10, GradeTypeID: 1, Score: 8.0}},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/reports/students/3/grades", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	c.Set(middleware.ContextUserKey, &models.Principal{UserID: 1, Role: models.RoleSystemAdmin})

	handler.StudentReport(c)
	require.Equal(t, http.StatusOK, w.Code)

	// The payload is the bare report, not the response envelope.
	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Contains(t, payload, "columnas")
	assert.Contains(t, payload, "filas")
	assert.Contains(t, payload, "dropped_rows")
	assert.NotContains(t, payload, "data")
}

func TestReportHandlerStudentReadsOwnReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandlerUnderTest(&reportRepoStub{
		types:        []models.GradeType{{ID: 1, Label: "Trabajo 1"}},
		subjectNames: map[int64]string{},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/reports/students/42/grades", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	c.Set(middleware.ContextUserKey, &models.Principal{UserID: 5, Role: models.RoleStudentApp, PersonID: ptrInt64Handler(42)})

	handler.StudentReport(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestReportHandlerStudentCannotReadOthers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandlerUnderTest(&reportRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/reports/students/43/grades", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "43"}}
	c.Set(middleware.ContextUserKey, &models.Principal{UserID: 5, Role: models.RoleStudentApp, PersonID: ptrInt64Handler(42)})

	handler.StudentReport(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestReportHandlerStudentReportRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandlerUnderTest(&reportRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/reports/students/3/grades", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	handler.StudentReport(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandlerCourseSubjectNotInCourse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandlerUnderTest(&reportRepoStub{belongs: false})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/reports/courses/1/subjects/2/grades", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "courseId", Value: "1"}, {Key: "subjectId", Value: "2"}}

	handler.CourseSubjectReport(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerExportSetsDisposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandlerUnderTest(&reportRepoStub{
		belongs:      true,
		types:        []models.GradeType{{ID: 1, Label: "T1"}},
		studentNames: map[int64]string{20: "Gomez, Ana"},
		courseCells:  []models.GradeCell{{RowID: 20, GradeTypeID: 1, Score: 8.0}},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/reports/courses/1/subjects/2/grades/export?format=csv", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "courseId", Value: "1"}, {Key: "subjectId", Value: "2"}}

	handler.ExportCourseSubjectReport(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "grades-course-1-subject-2.csv")
	assert.Contains(t, w.Body.String(), "Gomez, Ana")
}

func TestReportHandlerInvalidIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandlerUnderTest(&reportRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/reports/students/abc/grades", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.StudentReport(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
