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

type periodRepository interface {
	List(ctx context.Context, year int) ([]models.Period, error)
	FindByID(ctx context.Context, id int64) (*models.Period, error)
	FindActive(ctx context.Context) (*models.Period, error)
	Create(ctx context.Context, period *models.Period) error
	Update(ctx context.Context, period *models.Period) error
	Activate(ctx context.Context, id int64) error
}

// CreatePeriodRequest holds payload for creating grading periods.
type CreatePeriodRequest struct {
	Name     string    `json:"name" validate:"required"`
	Year     int       `json:"year" validate:"required,gt=0"`
	StartsOn time.Time `json:"starts_on" validate:"required"`
	EndsOn   time.Time `json:"ends_on" validate:"required"`
}

// PeriodService handles grading period use-cases.
type PeriodService struct {
	repo      periodRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService constructs the period service.
func NewPeriodService(repo periodRepository, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, validator: validate, logger: logger}
}

// List returns periods for a school year; year zero returns all.
func (s *PeriodService) List(ctx context.Context, year int) ([]models.Period, error) {
	periods, err := s.repo.List(ctx, year)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return periods, nil
}

// Get returns one period.
func (s *PeriodService) Get(ctx context.Context, id int64) (*models.Period, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.FromError(err)
	}
	return period, nil
}

// Active returns the currently active period, if one is set.
func (s *PeriodService) Active(ctx context.Context) (*models.Period, error) {
	period, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active period")
		}
		return nil, appErrors.FromError(err)
	}
	return period, nil
}

// Create registers a new grading period.
func (s *PeriodService) Create(ctx context.Context, req CreatePeriodRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	if !req.EndsOn.After(req.StartsOn) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period must end after it starts")
	}
	period := &models.Period{
		Name:     req.Name,
		Year:     req.Year,
		StartsOn: req.StartsOn,
		EndsOn:   req.EndsOn,
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.FromError(err)
	}
	return period, nil
}

// Activate marks the period as the single active one.
func (s *PeriodService) Activate(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Activate(ctx, id); err != nil {
		return appErrors.FromError(err)
	}
	return nil
}
