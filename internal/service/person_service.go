package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academia-sys/academia-api/internal/models"
	appErrors "github.com/academia-sys/academia-api/pkg/errors"
)

type personRepository interface {
	List(ctx context.Context, filter models.PersonFilter) ([]models.Person, int, error)
	FindByID(ctx context.Context, id int64) (*models.Person, error)
	ExistsByDocument(ctx context.Context, documentID string, excludeID int64) (bool, error)
	Create(ctx context.Context, person *models.Person) error
	Update(ctx context.Context, person *models.Person) error
	SoftDelete(ctx context.Context, id int64) error
}

// CreatePersonRequest holds payload for creating people.
type CreatePersonRequest struct {
	FirstName    string     `json:"first_name" validate:"required"`
	LastName     string     `json:"last_name" validate:"required"`
	DocumentID   string     `json:"document_id" validate:"required"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Email        *string    `json:"email,omitempty" validate:"omitempty,email"`
	Address      *string    `json:"address,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	City         string     `json:"city"`
	Nationality  string     `json:"nationality"`
	RegisterCode *string    `json:"register_code,omitempty"`
}

// UpdatePersonRequest holds payload for updating people.
type UpdatePersonRequest struct {
	FirstName    string     `json:"first_name" validate:"required"`
	LastName     string     `json:"last_name" validate:"required"`
	DocumentID   string     `json:"document_id" validate:"required"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Email        *string    `json:"email,omitempty" validate:"omitempty,email"`
	Address      *string    `json:"address,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	City         string     `json:"city"`
	Nationality  string     `json:"nationality"`
	RegisterCode *string    `json:"register_code,omitempty"`
}

// PersonService handles people use-cases for one kind (students,
// teachers or staff). Handlers instantiate one service per kind so
// route groups cannot cross kinds.
type PersonService struct {
	repo      personRepository
	kind      models.PersonKind
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPersonService constructs a kind-scoped person service.
func NewPersonService(repo personRepository, kind models.PersonKind, validate *validator.Validate, logger *zap.Logger) *PersonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersonService{repo: repo, kind: kind, validator: validate, logger: logger}
}

// List returns people of the service's kind and pagination metadata.
func (s *PersonService) List(ctx context.Context, filter models.PersonFilter) ([]models.Person, *models.Pagination, error) {
	filter.Kind = s.kind
	people, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.FromError(err)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return people, pagination, nil
}

// Get returns one person of the service's kind.
func (s *PersonService) Get(ctx context.Context, id int64) (*models.Person, error) {
	person, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "person not found")
		}
		return nil, appErrors.FromError(err)
	}
	if person.Kind != s.kind {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "person not found")
	}
	return person, nil
}

// Create registers a new person of the service's kind.
func (s *PersonService) Create(ctx context.Context, req CreatePersonRequest) (*models.Person, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid person payload")
	}
	exists, err := s.repo.ExistsByDocument(ctx, req.DocumentID, 0)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "document already registered")
	}
	person := &models.Person{
		Kind:         s.kind,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DocumentID:   req.DocumentID,
		BirthDate:    req.BirthDate,
		Email:        req.Email,
		Address:      req.Address,
		Phone:        req.Phone,
		City:         req.City,
		Nationality:  req.Nationality,
		RegisterCode: req.RegisterCode,
	}
	if err := s.repo.Create(ctx, person); err != nil {
		return nil, appErrors.FromError(err)
	}
	return person, nil
}

// Update modifies an existing person of the service's kind.
func (s *PersonService) Update(ctx context.Context, id int64, req UpdatePersonRequest) (*models.Person, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid person payload")
	}
	person, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByDocument(ctx, req.DocumentID, id)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "document already registered")
	}
	person.FirstName = req.FirstName
	person.LastName = req.LastName
	person.DocumentID = req.DocumentID
	person.BirthDate = req.BirthDate
	person.Email = req.Email
	person.Address = req.Address
	person.Phone = req.Phone
	person.City = req.City
	person.Nationality = req.Nationality
	person.RegisterCode = req.RegisterCode
	if err := s.repo.Update(ctx, person); err != nil {
		return nil, appErrors.FromError(err)
	}
	return person, nil
}

// Delete soft-removes a person keeping grade and attendance history.
func (s *PersonService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.FromError(err)
	}
	return nil
}
