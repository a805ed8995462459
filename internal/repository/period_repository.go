package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/academia-sys/academia-api/internal/models"
)

// PeriodRepository manages persistence for grading periods.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs a PeriodRepository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// List returns all periods for a school year; year zero means every year.
func (r *PeriodRepository) List(ctx context.Context, year int) ([]models.Period, error) {
	query := `SELECT id, name, year, starts_on, ends_on, active, created_at, updated_at FROM periods`
	args := []interface{}{}
	if year > 0 {
		query += " WHERE year = $1"
		args = append(args, year)
	}
	query += " ORDER BY starts_on"

	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query, args...); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// FindByID fetches a period by ID.
func (r *PeriodRepository) FindByID(ctx context.Context, id int64) (*models.Period, error) {
	const query = `SELECT id, name, year, starts_on, ends_on, active, created_at, updated_at FROM periods WHERE id = $1`
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindActive fetches the period marked active, if any.
func (r *PeriodRepository) FindActive(ctx context.Context) (*models.Period, error) {
	const query = `SELECT id, name, year, starts_on, ends_on, active, created_at, updated_at
        FROM periods WHERE active = true ORDER BY starts_on DESC LIMIT 1`
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query); err != nil {
		return nil, err
	}
	return &period, nil
}

// Create inserts a new period.
func (r *PeriodRepository) Create(ctx context.Context, period *models.Period) error {
	now := time.Now().UTC()
	if period.CreatedAt.IsZero() {
		period.CreatedAt = now
	}
	period.UpdatedAt = now
	const query = `INSERT INTO periods (name, year, starts_on, ends_on, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.GetContext(ctx, &period.ID, query,
		period.Name, period.Year, period.StartsOn, period.EndsOn, period.Active, period.CreatedAt, period.UpdatedAt); err != nil {
		return fmt.Errorf("create period: %w", err)
	}
	return nil
}

// Update modifies an existing period.
func (r *PeriodRepository) Update(ctx context.Context, period *models.Period) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE periods SET name = :name, year = :year, starts_on = :starts_on, ends_on = :ends_on,
        active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("update period: %w", err)
	}
	return nil
}

// Activate marks the given period as the single active one.
func (r *PeriodRepository) Activate(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate period: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE periods SET active = false, updated_at = $1 WHERE active = true`, now); err != nil {
		return fmt.Errorf("deactivate periods: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE periods SET active = true, updated_at = $2 WHERE id = $1`, id, now); err != nil {
		return fmt.Errorf("activate period: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activate period: %w", err)
	}
	return nil
}
