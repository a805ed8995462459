package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/academia-sys/academia-api/internal/models"
)

// GradeRepository manages persistence for grade types and grade entries.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// ListTypes returns the grading columns ordered by ID; the ordering drives
// the column layout of every grade report.
func (r *GradeRepository) ListTypes(ctx context.Context) ([]models.GradeType, error) {
	const query = `SELECT id, label FROM grade_types ORDER BY id`
	var types []models.GradeType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list grade types: %w", err)
	}
	return types, nil
}

// List returns grade entries with display labels matching the filters.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntryDetail, int, error) {
	base := `FROM grade_entries g
        JOIN people st ON st.id = g.student_id
        JOIN subjects su ON su.id = g.subject_id
        JOIN grade_types gt ON gt.id = g.grade_type_id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID > 0 {
		conditions = append(conditions, fmt.Sprintf("g.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SubjectID > 0 {
		conditions = append(conditions, fmt.Sprintf("g.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.CourseID > 0 {
		conditions = append(conditions, fmt.Sprintf("su.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.GradeTypeID > 0 {
		conditions = append(conditions, fmt.Sprintf("g.grade_type_id = $%d", len(args)+1))
		args = append(args, filter.GradeTypeID)
	}
	if filter.PeriodID > 0 {
		conditions = append(conditions, fmt.Sprintf("g.period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
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

	query := fmt.Sprintf(`SELECT g.id, g.student_id, g.subject_id, g.grade_type_id, g.period_id, g.score,
        g.recorded_by, g.recorded_on, g.created_at, g.updated_at,
        TRIM(st.last_name || ', ' || st.first_name) AS student_name,
        su.name AS subject_name,
        gt.label AS grade_type_label
        %s ORDER BY g.updated_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var entries []models.GradeEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grades: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count grades: %w", err)
	}
	return entries, total, nil
}

// Upsert records a score, overwriting in place when an entry already
// exists for the (student, subject, grade type) triple. The write is a
// single atomic statement so concurrent writers cannot produce duplicate
// triples.
func (r *GradeRepository) Upsert(ctx context.Context, entry *models.GradeEntry) error {
	now := time.Now().UTC()
	if entry.RecordedOn.IsZero() {
		entry.RecordedOn = now
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	const query = `INSERT INTO grade_entries (student_id, subject_id, grade_type_id, period_id, score, recorded_by, recorded_on, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (student_id, subject_id, grade_type_id)
        DO UPDATE SET score = EXCLUDED.score, period_id = EXCLUDED.period_id,
            recorded_by = EXCLUDED.recorded_by, recorded_on = EXCLUDED.recorded_on,
            updated_at = EXCLUDED.updated_at
        RETURNING id`
	if err := r.db.GetContext(ctx, &entry.ID, query,
		entry.StudentID, entry.SubjectID, entry.GradeTypeID, entry.PeriodID, entry.Score,
		entry.RecordedBy, entry.RecordedOn, entry.CreatedAt, entry.UpdatedAt); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}
