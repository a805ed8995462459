package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/academia-sys/academia-api/internal/models"
)

// CourseRepository manages persistence for cycles and courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListCycles returns all academic cycles.
func (r *CourseRepository) ListCycles(ctx context.Context) ([]models.Cycle, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM cycles ORDER BY id`
	var cycles []models.Cycle
	if err := r.db.SelectContext(ctx, &cycles, query); err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	return cycles, nil
}

// FindCycleByID fetches a cycle by ID.
func (r *CourseRepository) FindCycleByID(ctx context.Context, id int64) (*models.Cycle, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM cycles WHERE id = $1`
	var cycle models.Cycle
	if err := r.db.GetContext(ctx, &cycle, query, id); err != nil {
		return nil, err
	}
	return &cycle, nil
}

// List returns courses with cycle names matching the provided filters.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	base := "FROM courses c JOIN cycles cy ON cy.id = c.cycle_id"
	args := []interface{}{}
	conditions := []string{"c.deleted_at IS NULL"}

	if filter.CycleID > 0 {
		conditions = append(conditions, fmt.Sprintf("c.cycle_id = $%d", len(args)+1))
		args = append(args, filter.CycleID)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("c.year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"year":       "c.year",
		"division":   "c.division",
		"created_at": "c.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "c.year"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT c.id, c.cycle_id, c.year, c.division, c.shift, c.created_at, c.updated_at,
        cy.name AS cycle_name %s ORDER BY %s %s, c.division ASC LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID fetches a course with its cycle name.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.CourseDetail, error) {
	const query = `SELECT c.id, c.cycle_id, c.year, c.division, c.shift, c.created_at, c.updated_at,
        cy.name AS cycle_name
        FROM courses c JOIN cycles cy ON cy.id = c.cycle_id
        WHERE c.id = $1 AND c.deleted_at IS NULL`
	var detail models.CourseDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (cycle_id, year, division, shift, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.GetContext(ctx, &course.ID, query,
		course.CycleID, course.Year, course.Division, course.Shift, course.CreatedAt, course.UpdatedAt); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET cycle_id = :cycle_id, year = :year, division = :division, shift = :shift, updated_at = :updated_at
        WHERE id = :id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// SoftDelete marks a course as deleted.
func (r *CourseRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE courses SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
