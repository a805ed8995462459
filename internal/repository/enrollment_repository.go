package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/academia-sys/academia-api/internal/models"
)

// EnrollmentRepository manages persistence for student-subject enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments with display names matching the filters.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
        JOIN people st ON st.id = e.student_id
        JOIN subjects su ON su.id = e.subject_id`
	args := []interface{}{}
	conditions := []string{"e.deleted_at IS NULL"}

	if filter.StudentID > 0 {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SubjectID > 0 {
		conditions = append(conditions, fmt.Sprintf("e.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.CourseID > 0 {
		conditions = append(conditions, fmt.Sprintf("su.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.subject_id, e.enrolled_on, e.created_at, e.updated_at,
        TRIM(st.last_name || ', ' || st.first_name) AS student_name,
        su.name AS subject_name
        %s ORDER BY st.last_name ASC, st.first_name ASC LIMIT %d OFFSET %d`, base, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// Exists checks whether a live enrollment exists for the pair.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, subjectID int64) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND subject_id = $2 AND deleted_at IS NULL LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// FindByID fetches one enrollment with display names.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id int64) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.subject_id, e.enrolled_on, e.created_at, e.updated_at,
        TRIM(st.last_name || ', ' || st.first_name) AS student_name,
        su.name AS subject_name
        FROM enrollments e
        JOIN people st ON st.id = e.student_id
        JOIN subjects su ON su.id = e.subject_id
        WHERE e.id = $1 AND e.deleted_at IS NULL`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create registers a student in a subject.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	now := time.Now().UTC()
	if enrollment.EnrolledOn.IsZero() {
		enrollment.EnrolledOn = now
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now
	const query = `INSERT INTO enrollments (student_id, subject_id, enrolled_on, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.GetContext(ctx, &enrollment.ID, query,
		enrollment.StudentID, enrollment.SubjectID, enrollment.EnrolledOn, enrollment.CreatedAt, enrollment.UpdatedAt); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// SoftDelete withdraws a student from a subject keeping grade history.
func (r *EnrollmentRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE enrollments SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}
