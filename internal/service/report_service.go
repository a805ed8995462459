package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/academia-sys/academia-api/internal/models"
	appErrors "github.com/academia-sys/academia-api/pkg/errors"
	"github.com/academia-sys/academia-api/pkg/export"
)

type reportRepository interface {
	ListGradeTypes(ctx context.Context) ([]models.GradeType, error)
	CellsByStudent(ctx context.Context, studentID int64) ([]models.GradeCell, error)
	SubjectNamesByStudent(ctx context.Context, studentID int64) (map[int64]string, error)
	CellsByCourseSubject(ctx context.Context, courseID, subjectID int64) ([]models.GradeCell, error)
	StudentNamesBySubject(ctx context.Context, subjectID int64) (map[int64]string, error)
	SubjectBelongsToCourse(ctx context.Context, subjectID, courseID int64) (bool, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ReportConfig holds the grading constants driving report aggregation.
type ReportConfig struct {
	// FinalColumnID is the grade type whose value becomes a row's
	// "definitiva"; when the cell is empty the row average is used instead.
	FinalColumnID int64
	CacheTTL      time.Duration
}

// ReportService aggregates grade entries into the grid payloads consumed
// by the report card and course grid frontends.
type ReportService struct {
	repo    reportRepository
	cache   reportCache
	metrics *MetricsService
	logger  *zap.Logger
	config  ReportConfig
}

// NewReportService constructs a ReportService. Cache and metrics may be
// nil; the service then always recomputes.
func NewReportService(repo reportRepository, cache reportCache, metrics *MetricsService, logger *zap.Logger, config ReportConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, cache: cache, metrics: metrics, logger: logger, config: config}
}

// StudentReport builds the report card for one student: one row per
// enrolled subject, one column per grade type.
func (s *ReportService) StudentReport(ctx context.Context, studentID int64) (*models.GradeReport, error) {
	if studentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid student id")
	}

	key := fmt.Sprintf("reports:student:%d", studentID)
	if report, ok := s.cachedReport(ctx, key); ok {
		return report, nil
	}

	started := time.Now()
	types, err := s.repo.ListGradeTypes(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	names, err := s.repo.SubjectNamesByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	cells, err := s.repo.CellsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	s.metrics.ObserveDBQuery("report_student_cells", time.Since(started))

	report := s.buildReport(types, cells, names)
	s.storeReport(ctx, key, report)
	return report, nil
}

// CourseSubjectReport builds the grade grid for one subject of a course:
// one row per enrolled student, one column per grade type.
func (s *ReportService) CourseSubjectReport(ctx context.Context, courseID, subjectID int64) (*models.GradeReport, error) {
	if courseID <= 0 || subjectID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid course or subject id")
	}

	belongs, err := s.repo.SubjectBelongsToCourse(ctx, subjectID, courseID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	if !belongs {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found in course")
	}

	key := fmt.Sprintf("reports:course:%d:subject:%d", courseID, subjectID)
	if report, ok := s.cachedReport(ctx, key); ok {
		return report, nil
	}

	started := time.Now()
	types, err := s.repo.ListGradeTypes(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	names, err := s.repo.StudentNamesBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	cells, err := s.repo.CellsByCourseSubject(ctx, courseID, subjectID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	s.metrics.ObserveDBQuery("report_course_cells", time.Since(started))

	report := s.buildReport(types, cells, names)
	s.storeReport(ctx, key, report)
	return report, nil
}

// ExportCourseSubjectReport renders the course grid as CSV or PDF bytes.
func (s *ReportService) ExportCourseSubjectReport(ctx context.Context, courseID, subjectID int64, format string) ([]byte, string, error) {
	report, err := s.CourseSubjectReport(ctx, courseID, subjectID)
	if err != nil {
		return nil, "", err
	}

	dataset := reportDataset(report)
	title := fmt.Sprintf("Course %d - Subject %d", courseID, subjectID)

	switch format {
	case "csv", "":
		payload, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := export.NewPDFExporter().Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

// InvalidateStudent drops cached reports involving the student and the
// subject whose grades changed.
func (s *ReportService) InvalidateStudent(ctx context.Context, studentID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("reports:student:%d", studentID)); err != nil {
		s.logger.Warn("failed to invalidate student report cache", zap.Int64("student_id", studentID), zap.Error(err))
	}
}

// InvalidateSubject drops every cached course grid touching the subject.
func (s *ReportService) InvalidateSubject(ctx context.Context, subjectID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("reports:course:*:subject:%d", subjectID)); err != nil {
		s.logger.Warn("failed to invalidate subject report cache", zap.Int64("subject_id", subjectID), zap.Error(err))
	}
}

// buildReport pivots raw cells into ordered rows. Every key of names gets
// a row, even with no cells; cells whose row has no name are dropped and
// counted. Duplicate cells for the same (row, type) collapse last-wins.
func (s *ReportService) buildReport(types []models.GradeType, cells []models.GradeCell, names map[int64]string) *models.GradeReport {
	columns := make([]models.GradeColumn, 0, len(types))
	for _, t := range types {
		columns = append(columns, models.GradeColumn{ID: t.ID, Label: t.Label})
	}

	scores := make(map[int64]map[int64]*float64, len(names))
	for id := range names {
		row := make(map[int64]*float64, len(types))
		for _, t := range types {
			row[t.ID] = nil
		}
		scores[id] = row
	}

	dropped := make(map[int64]struct{})
	orphanCells := 0
	for _, cell := range cells {
		row, ok := scores[cell.RowID]
		if !ok {
			dropped[cell.RowID] = struct{}{}
			continue
		}
		// A cell whose grade type is not a declared column would add a
		// stray key to the row; every row keeps exactly one entry per column.
		if _, ok := row[cell.GradeTypeID]; !ok {
			orphanCells++
			continue
		}
		value := cell.Score
		row[cell.GradeTypeID] = &value
	}
	if len(dropped) > 0 {
		s.logger.Warn("dropped report rows without display names", zap.Int("count", len(dropped)))
	}
	if orphanCells > 0 {
		s.logger.Warn("skipped report cells with unknown grade type", zap.Int("count", orphanCells))
	}

	rows := make([]models.ReportRow, 0, len(scores))
	for id, rowScores := range scores {
		average := roundedAverage(rowScores)
		final := average
		if v, ok := rowScores[s.config.FinalColumnID]; ok && v != nil {
			final = v
		}
		rows = append(rows, models.ReportRow{
			ID:       id,
			FullName: names[id],
			Scores:   rowScores,
			Average:  average,
			Final:    final,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].FullName != rows[j].FullName {
			return rows[i].FullName < rows[j].FullName
		}
		return rows[i].ID < rows[j].ID
	})

	return &models.GradeReport{Columns: columns, Rows: rows, DroppedRows: len(dropped)}
}

func (s *ReportService) cachedReport(ctx context.Context, key string) (*models.GradeReport, bool) {
	if s.cache == nil {
		return nil, false
	}
	started := time.Now()
	var report models.GradeReport
	err := s.cache.Get(ctx, key, &report)
	s.metrics.RecordCacheOperation(err == nil, time.Since(started))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return &report, true
}

func (s *ReportService) storeReport(ctx context.Context, key string, report *models.GradeReport) {
	if s.cache == nil {
		return
	}
	started := time.Now()
	if err := s.cache.Set(ctx, key, report, s.config.CacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.metrics.ObserveCacheWrite(time.Since(started))
}

// roundedAverage computes the mean of the non-nil scores rounded to two
// decimals; nil when every cell is empty.
func roundedAverage(scores map[int64]*float64) *float64 {
	var sum float64
	var count int
	for _, v := range scores {
		if v == nil {
			continue
		}
		sum += *v
		count++
	}
	if count == 0 {
		return nil
	}
	avg := math.Round(sum/float64(count)*100) / 100
	return &avg
}

// reportDataset flattens a grade report into tabular export form.
func reportDataset(report *models.GradeReport) export.Dataset {
	headers := make([]string, 0, len(report.Columns)+3)
	headers = append(headers, "Student")
	for _, col := range report.Columns {
		headers = append(headers, col.Label)
	}
	headers = append(headers, "Average", "Final")

	rows := make([]map[string]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		record := map[string]string{"Student": row.FullName}
		for _, col := range report.Columns {
			record[col.Label] = formatScore(row.Scores[col.ID])
		}
		record["Average"] = formatScore(row.Average)
		record["Final"] = formatScore(row.Final)
		rows = append(rows, record)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
