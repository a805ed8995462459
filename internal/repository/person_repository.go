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

// PersonRepository manages persistence for the unified people table.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository constructs a PersonRepository.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

const personColumns = "id, kind, first_name, last_name, document_id, birth_date, email, address, phone, city, nationality, register_code, created_at, updated_at, deleted_at"

// List returns people matching the provided filters.
func (r *PersonRepository) List(ctx context.Context, filter models.PersonFilter) ([]models.Person, int, error) {
	base := "FROM people p"
	args := []interface{}{}
	conditions := []string{"p.deleted_at IS NULL"}

	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("p.kind = $%d", len(args)+1))
		args = append(args, filter.Kind)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(p.first_name) LIKE $%d OR LOWER(p.last_name) LIKE $%d OR p.document_id LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"last_name":   "p.last_name",
		"document_id": "p.document_id",
		"created_at":  "p.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "p.last_name"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d",
		prefixed(personColumns, "p"), base, column, order, size, offset)

	var people []models.Person
	if err := r.db.SelectContext(ctx, &people, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list people: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count people: %w", err)
	}
	return people, total, nil
}

// FindByID fetches a person by ID.
func (r *PersonRepository) FindByID(ctx context.Context, id int64) (*models.Person, error) {
	query := fmt.Sprintf("SELECT %s FROM people WHERE id = $1 AND deleted_at IS NULL", personColumns)
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, id); err != nil {
		return nil, err
	}
	return &person, nil
}

// ExistsByDocument checks if a person with the document exists optionally excluding an ID.
func (r *PersonRepository) ExistsByDocument(ctx context.Context, documentID string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM people WHERE document_id = $1 AND deleted_at IS NULL"
	args := []interface{}{documentID}
	if excludeID > 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check document: %w", err)
	}
	return true, nil
}

// Create inserts a new person record.
func (r *PersonRepository) Create(ctx context.Context, person *models.Person) error {
	now := time.Now().UTC()
	if person.CreatedAt.IsZero() {
		person.CreatedAt = now
	}
	person.UpdatedAt = now
	const query = `INSERT INTO people (kind, first_name, last_name, document_id, birth_date, email, address, phone, city, nationality, register_code, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	if err := r.db.GetContext(ctx, &person.ID, query,
		person.Kind, person.FirstName, person.LastName, person.DocumentID, person.BirthDate,
		person.Email, person.Address, person.Phone, person.City, person.Nationality,
		person.RegisterCode, person.CreatedAt, person.UpdatedAt); err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

// Update modifies an existing person record.
func (r *PersonRepository) Update(ctx context.Context, person *models.Person) error {
	person.UpdatedAt = time.Now().UTC()
	const query = `UPDATE people SET first_name = :first_name, last_name = :last_name, document_id = :document_id,
        birth_date = :birth_date, email = :email, address = :address, phone = :phone, city = :city,
        nationality = :nationality, register_code = :register_code, updated_at = :updated_at
        WHERE id = :id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, person); err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	return nil
}

// SoftDelete marks the person as deleted without removing history rows.
func (r *PersonRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE people SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return nil
}

// prefixed qualifies a comma separated column list with a table alias.
func prefixed(columns, alias string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
