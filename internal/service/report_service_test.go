package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academia-sys/academia-api/internal/models"
	appErrors "github.com/academia-sys/academia-api/pkg/errors"
)

type mockReportRepo struct {
	types        []models.GradeType
	studentCells []models.GradeCell
	subjectNames map[int64]string
	courseCells  []models.GradeCell
	studentNames map[int64]string
	belongs      bool
}

func (m *mockReportRepo) ListGradeTypes(ctx context.Context) ([]models.GradeType, error) {
	return m.types, nil
}

func (m *mockReportRepo) CellsByStudent(ctx context.Context, studentID int64) ([]models.GradeCell, error) {
	return m.studentCells, nil
}

func (m *mockReportRepo) SubjectNamesByStudent(ctx context.Context, studentID int64) (map[int64]string, error) {
	return m.subjectNames, nil
}

func (m *mockReportRepo) CellsByCourseSubject(ctx context.Context, courseID, subjectID int64) ([]models.GradeCell, error) {
	return m.courseCells, nil
}

func (m *mockReportRepo) StudentNamesBySubject(ctx context.Context, subjectID int64) (map[int64]string, error) {
	return m.studentNames, nil
}

func (m *mockReportRepo) SubjectBelongsToCourse(ctx context.Context, subjectID, courseID int64) (bool, error) {
	return m.belongs, nil
}

type mockReportCache struct {
	entries  map[string][]byte
	deleted  []string
	getCalls int
}

func (m *mockReportCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.getCalls++
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockReportCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mockReportCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	for key := range m.entries {
		delete(m.entries, key)
	}
	return nil
}

func defaultReportConfig() ReportConfig {
	return ReportConfig{FinalColumnID: 7, CacheTTL: time.Minute}
}

func scoreCell(rowID, typeID int64, score float64) models.GradeCell {
	return models.GradeCell{RowID: rowID, GradeTypeID: typeID, Score: score}
}

func TestReportServiceStudentReportShape(t *testing.T) {
	repo := &mockReportRepo{
		types: []models.GradeType{{ID: 1, Label: "Trabajo 1"}, {ID: 2, Label: "Trabajo 2"}, {ID: 7, Label: "Definitiva"}},
		subjectNames: map[int64]string{
			10: "Matematica",
			11: "Historia",
		},
		studentCells: []models.GradeCell{
			scoreCell(10, 1, 8.0),
			scoreCell(10, 2, 6.0),
		},
	}
	svc := NewReportService(repo, nil, nil, zap.NewNop(), defaultReportConfig())

	report, err := svc.StudentReport(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, report.Columns, 3)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, 0, report.DroppedRows)

	// Rows sorted by name: Historia before Matematica.
	assert.Equal(t, "Historia", report.Rows[0].FullName)
	assert.Equal(t, "Matematica", report.Rows[1].FullName)

	// Historia has no grades: every cell nil, no average.
	historia := report.Rows[0]
	require.Len(t, historia.Scores, 3)
	assert.Nil(t, historia.Scores[1])
	assert.Nil(t, historia.Average)
	assert.Nil(t, historia.Final)

	// Matematica: average of 8.0 and 6.0 is 7.0 and, with column 7 empty,
	// doubles as the final.
	matematica := report.Rows[1]
	require.NotNil(t, matematica.Average)
	assert.Equal(t, 7.0, *matematica.Average)
	require.NotNil(t, matematica.Final)
	assert.Equal(t, 7.0, *matematica.Final)
}

func TestReportServiceFinalColumnWins(t *testing.T) {
	repo := &mockReportRepo{
		types:        []models.GradeType{{ID: 1, Label: "Trabajo 1"}, {ID: 7, Label: "Definitiva"}},
		subjectNames: map[int64]string{10: "Matematica"},
		studentCells: []models.GradeCell{
			scoreCell(10, 1, 4.0),
			scoreCell(10, 7, 9.0),
		},
	}
	svc := NewReportService(repo, nil, nil, zap.NewNop(), defaultReportConfig())

	report, err := svc.StudentReport(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	require.NotNil(t, row.Average)
	assert.Equal(t, 6.5, *row.Average)
	require.NotNil(t, row.Final)
	assert.Equal(t, 9.0, *row.Final)
}

func TestReportServiceAverageRounding(t *testing.T) {
	repo := &mockReportRepo{
		types:        []models.GradeType{{ID: 1, Label: "T1"}, {ID: 2, Label: "T2"}, {ID: 3, Label: "T3"}},
		subjectNames: map[int64]string{10: "Quimica"},
		studentCells: []models.GradeCell{
			scoreCell(10, 1, 7.0),
			scoreCell(10, 2, 7.0),
			scoreCell(10, 3, 8.0),
		},
	}
	svc := NewReportService(repo, nil, nil, zap.NewNop(), defaultReportConfig())

	report, err := svc.StudentReport(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, report.Rows[0].Average)
	// 22/3 = 7.333... rounds to 7.33
	assert.Equal(t, 7.33, *report.Rows[0].Average)
}

func TestReportServiceDuplicateCellsLastWins(t *testing.T) {
	repo := &mockReportRepo{
		types:        []models.GradeType{{ID: 1, Label: "T1"}},
		subjectNames: map[int64]string{10: "Fisica"},
		studentCells: []models.GradeCell{
			scoreCell(10, 1, 3.0),
			scoreCell(10, 1, 9.5),
		},
	}
	svc := NewReportService(repo, nil, nil, zap.NewNop(), defaultReportConfig())

	report, err := svc.StudentReport(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, report.Rows[0].Scores[1])
	assert.Equal(t, 9.5, *report.Rows[0].Scores[1])
}

func TestReportServiceDropsOrphanCells(t *testing.T) {
	repo := &mockReportRepo{
		types:        []models.GradeType{{ID: 1, Label: "T1"}},
		subjectNames: map[int64]string{10: "Lengua"},
		studentCells: []models.GradeCell{
			scoreCell(10, 1, 7.0),
			scoreCell(99, 1, 5.0),
			scoreCell(99, 1, 6.0),
		},
	}
	svc := NewReportService(repo, nil, nil, zap.NewNop(), defaultReportConfig())

	report, err := svc.StudentReport(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	// The two orphan cells share a row, counted once.
	assert.Equal(t, 1, report.DroppedRows)
}

func TestReportServiceSkipsUnknownColumnCells(t *testing.T) {
	repo := &mockReportRepo{
		types:        []models.GradeType{{ID: 1, Label: "T1"}},
		subjectNames: map[int64]string{10: "Lengua"},
		studentCells: []models.GradeCell{
			scoreCell(10, 1, 7.0),
			scoreCell(10, 99, 3.0),
		},
	}
	svc := NewReportService(repo, nil, nil, zap.NewNop(), defaultReportConfig())

	report, err := svc.StudentReport(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	// The retired grade type must not leak into the row as an extra key.
	row := report.Rows[0]
	require.Len(t, row.Scores, 1)
	require.NotNil(t, row.Scores[1])
	assert.Equal(t, 7.0, *row.Scores[1])
	require.NotNil(t, row.Average)
	assert.Equal(t, 7.0, *row.Average)
	assert.Equal(t, 0, report.DroppedRows)
}

func TestReportServiceEmptyReport(t *testing.T) {
	repo := &mockReportRepo{
		types:        []models.GradeType{{ID: 1, Label: "T1"}},
		subjectNames: map[int64]string{},
	}
	svc := NewReportService(repo, nil, nil, zap.NewNop(), defaultReportConfig())

	report, err := svc.StudentReport(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, report.Columns, 1)
	assert.Empty(t, report.Rows)
	assert.Equal(t, 0, report.DroppedRows)
}

func TestReportServiceCourseSubjectValidatesMembership(t *testing.T) {
	repo := &mockReportRepo{belongs: false}
	svc := NewReportService(repo, nil, nil, zap.NewNop(), defaultReportConfig())

	_, err := svc.CourseSubjectReport(context.Background(), 1, 2)
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, apiErr.Code)
}

func TestReportServiceCourseSubjectReport(t *testing.T) {
	repo := &mockReportRepo{
		belongs: true,
		types:   []models.GradeType{{ID: 1, Label: "T1"}},
		studentNames: map[int64]string{
			20: "Gomez, Ana",
			21: "Alvarez, Pedro",
		},
		courseCells: []models.GradeCell{scoreCell(20, 1, 8.0)},
	}
	svc := NewReportService(repo, nil, nil, zap.NewNop(), defaultReportConfig())

	report, err := svc.CourseSubjectReport(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "Alvarez, Pedro", report.Rows[0].FullName)
	assert.Equal(t, "Gomez, Ana", report.Rows[1].FullName)
}

func TestReportServiceCacheRoundTrip(t *testing.T) {
	repo := &mockReportRepo{
		types:        []models.GradeType{{ID: 1, Label: "T1"}},
		subjectNames: map[int64]string{10: "Arte"},
		studentCells: []models.GradeCell{scoreCell(10, 1, 9.0)},
	}
	cache := &mockReportCache{}
	svc := NewReportService(repo, cache, nil, zap.NewNop(), defaultReportConfig())

	first, err := svc.StudentReport(context.Background(), 1)
	require.NoError(t, err)

	// Second read comes from the cache and matches the computed report.
	repo.studentCells = nil
	second, err := svc.StudentReport(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, 2, cache.getCalls)
}

func TestReportServiceInvalidation(t *testing.T) {
	cache := &mockReportCache{entries: map[string][]byte{"reports:student:5": []byte("{}")}}
	svc := NewReportService(&mockReportRepo{}, cache, nil, zap.NewNop(), defaultReportConfig())

	svc.InvalidateStudent(context.Background(), 5)
	svc.InvalidateSubject(context.Background(), 9)

	require.Len(t, cache.deleted, 2)
	assert.Equal(t, "reports:student:5", cache.deleted[0])
	assert.Equal(t, "reports:course:*:subject:9", cache.deleted[1])
	assert.Empty(t, cache.entries)
}

func TestReportServiceExportFormats(t *testing.T) {
	repo := &mockReportRepo{
		belongs:      true,
		types:        []models.GradeType{{ID: 1, Label: "T1"}},
		studentNames: map[int64]string{20: "Gomez, Ana"},
		courseCells:  []models.GradeCell{scoreCell(20, 1, 8.0)},
	}
	svc := NewReportService(repo, nil, nil, zap.NewNop(), defaultReportConfig())

	csvBytes, contentType, err := svc.ExportCourseSubjectReport(context.Background(), 1, 2, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(csvBytes), "Gomez, Ana")
	assert.Contains(t, string(csvBytes), "8.00")

	pdfBytes, contentType, err := svc.ExportCourseSubjectReport(context.Background(), 1, 2, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.NotEmpty(t, pdfBytes)

	_, _, err = svc.ExportCourseSubjectReport(context.Background(), 1, 2, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceRejectsInvalidIDs(t *testing.T) {
	svc := NewReportService(&mockReportRepo{}, nil, nil, zap.NewNop(), defaultReportConfig())

	_, err := svc.StudentReport(context.Background(), 0)
	require.Error(t, err)

	_, err = svc.CourseSubjectReport(context.Background(), 0, 1)
	require.Error(t, err)
}
