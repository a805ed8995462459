package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/academia-sys/academia-api/internal/models"
)

// ReportRepository serves the read queries behind grade reports: pivot
// input cells and the display name maps the pivot rows resolve against.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ListGradeTypes returns grading columns ordered by ID.
func (r *ReportRepository) ListGradeTypes(ctx context.Context) ([]models.GradeType, error) {
	const query = `SELECT id, label FROM grade_types ORDER BY id`
	var types []models.GradeType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list grade types: %w", err)
	}
	return types, nil
}

// CellsByStudent returns one cell per recorded grade of the student across
// all enrolled subjects; RowID is the subject ID. Enrollment LEFT JOIN
// keeps subjects with no grades out of the cell stream, the service adds
// them back as empty rows from the name map. Cells are ordered by update
// time so a later write wins if duplicates ever appear.
func (r *ReportRepository) CellsByStudent(ctx context.Context, studentID int64) ([]models.GradeCell, error) {
	const query = `SELECT g.subject_id AS row_id, g.grade_type_id, g.score
        FROM grade_entries g
        JOIN enrollments e ON e.student_id = g.student_id AND e.subject_id = g.subject_id AND e.deleted_at IS NULL
        WHERE g.student_id = $1
        ORDER BY g.updated_at`
	var cells []models.GradeCell
	if err := r.db.SelectContext(ctx, &cells, query, studentID); err != nil {
		return nil, fmt.Errorf("grade cells by student: %w", err)
	}
	return cells, nil
}

// SubjectNamesByStudent returns the names of every subject the student is
// enrolled in, keyed by subject ID. The key set defines the report rows.
func (r *ReportRepository) SubjectNamesByStudent(ctx context.Context, studentID int64) (map[int64]string, error) {
	const query = `SELECT su.id, su.name
        FROM enrollments e
        JOIN subjects su ON su.id = e.subject_id AND su.deleted_at IS NULL
        WHERE e.student_id = $1 AND e.deleted_at IS NULL`
	rows, err := r.db.QueryxContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("subject names by student: %w", err)
	}
	defer rows.Close()

	names := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan subject name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// CellsByCourseSubject returns one cell per recorded grade in the subject
// for students enrolled in it; RowID is the student ID.
func (r *ReportRepository) CellsByCourseSubject(ctx context.Context, courseID, subjectID int64) ([]models.GradeCell, error) {
	const query = `SELECT g.student_id AS row_id, g.grade_type_id, g.score
        FROM grade_entries g
        JOIN enrollments e ON e.student_id = g.student_id AND e.subject_id = g.subject_id AND e.deleted_at IS NULL
        JOIN subjects su ON su.id = g.subject_id AND su.deleted_at IS NULL
        WHERE g.subject_id = $1 AND su.course_id = $2
        ORDER BY g.updated_at`
	var cells []models.GradeCell
	if err := r.db.SelectContext(ctx, &cells, query, subjectID, courseID); err != nil {
		return nil, fmt.Errorf("grade cells by course subject: %w", err)
	}
	return cells, nil
}

// StudentNamesBySubject returns the full names of every student enrolled
// in the subject, keyed by student ID. The key set defines the rows of the
// course grid.
func (r *ReportRepository) StudentNamesBySubject(ctx context.Context, subjectID int64) (map[int64]string, error) {
	const query = `SELECT st.id, TRIM(st.last_name || ', ' || st.first_name) AS full_name
        FROM enrollments e
        JOIN people st ON st.id = e.student_id AND st.deleted_at IS NULL
        WHERE e.subject_id = $1 AND e.deleted_at IS NULL`
	rows, err := r.db.QueryxContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("student names by subject: %w", err)
	}
	defer rows.Close()

	names := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan student name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// SubjectBelongsToCourse verifies the subject is part of the course.
func (r *ReportRepository) SubjectBelongsToCourse(ctx context.Context, subjectID, courseID int64) (bool, error) {
	const query = `SELECT COUNT(*) FROM subjects WHERE id = $1 AND course_id = $2 AND deleted_at IS NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, subjectID, courseID); err != nil {
		return false, fmt.Errorf("check subject course: %w", err)
	}
	return count > 0, nil
}
