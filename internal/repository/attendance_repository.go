package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/academia-sys/academia-api/internal/models"
)

// AttendanceRepository manages persistence for absences and their types.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListTypes returns all absence types.
func (r *AttendanceRepository) ListTypes(ctx context.Context) ([]models.AbsenceType, error) {
	const query = `SELECT id, description, weight FROM absence_types ORDER BY id`
	var types []models.AbsenceType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list absence types: %w", err)
	}
	return types, nil
}

// FindTypeByID fetches one absence type.
func (r *AttendanceRepository) FindTypeByID(ctx context.Context, id int64) (*models.AbsenceType, error) {
	const query = `SELECT id, description, weight FROM absence_types WHERE id = $1`
	var t models.AbsenceType
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		return nil, err
	}
	return &t, nil
}

// Record inserts one absence event.
func (r *AttendanceRepository) Record(ctx context.Context, absence *models.Absence) error {
	now := time.Now().UTC()
	if absence.CreatedAt.IsZero() {
		absence.CreatedAt = now
	}
	absence.UpdatedAt = now
	const query = `INSERT INTO absences (student_id, type_id, date, justified, reason, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.GetContext(ctx, &absence.ID, query,
		absence.StudentID, absence.TypeID, absence.Date, absence.Justified, absence.Reason,
		absence.CreatedAt, absence.UpdatedAt); err != nil {
		return fmt.Errorf("record absence: %w", err)
	}
	return nil
}

// List returns absences with type details matching the filters.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceDetail, int, error) {
	base := `FROM absences a JOIN absence_types at ON at.id = a.type_id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID > 0 {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.TypeID > 0 {
		conditions = append(conditions, fmt.Sprintf("a.type_id = $%d", len(args)+1))
		args = append(args, filter.TypeID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, *filter.To)
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

	query := fmt.Sprintf(`SELECT a.id, a.student_id, a.type_id, a.date, a.justified, a.reason, a.created_at, a.updated_at,
        at.description AS type_description, at.weight AS type_weight
        %s ORDER BY a.date DESC LIMIT %d OFFSET %d`, base, size, offset)

	var absences []models.AbsenceDetail
	if err := r.db.SelectContext(ctx, &absences, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list absences: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count absences: %w", err)
	}
	return absences, total, nil
}

// DetailsByStudent returns every absence of the student with type details,
// ordered by date, for summary aggregation.
func (r *AttendanceRepository) DetailsByStudent(ctx context.Context, studentID int64) ([]models.AbsenceDetail, error) {
	const query = `SELECT a.id, a.student_id, a.type_id, a.date, a.justified, a.reason, a.created_at, a.updated_at,
        at.description AS type_description, at.weight AS type_weight
        FROM absences a JOIN absence_types at ON at.id = a.type_id
        WHERE a.student_id = $1 ORDER BY a.date`
	var absences []models.AbsenceDetail
	if err := r.db.SelectContext(ctx, &absences, query, studentID); err != nil {
		return nil, fmt.Errorf("absences by student: %w", err)
	}
	return absences, nil
}
