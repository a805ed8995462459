package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academia-sys/academia-api/internal/models"
	appErrors "github.com/academia-sys/academia-api/pkg/errors"
)

type courseRepository interface {
	ListCycles(ctx context.Context) ([]models.Cycle, error)
	FindCycleByID(ctx context.Context, id int64) (*models.Cycle, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	SoftDelete(ctx context.Context, id int64) error
}

// CreateCourseRequest holds payload for creating courses.
type CreateCourseRequest struct {
	CycleID  int64  `json:"cycle_id" validate:"required,gt=0"`
	Year     int    `json:"year" validate:"required,gt=0"`
	Division string `json:"division" validate:"required"`
	Shift    string `json:"shift"`
}

// UpdateCourseRequest holds payload for updating courses.
type UpdateCourseRequest struct {
	CycleID  int64  `json:"cycle_id" validate:"required,gt=0"`
	Year     int    `json:"year" validate:"required,gt=0"`
	Division string `json:"division" validate:"required"`
	Shift    string `json:"shift"`
}

// CourseService handles cycle and course use-cases.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// ListCycles returns all academic cycles.
func (s *CourseService) ListCycles(ctx context.Context) ([]models.Cycle, error) {
	cycles, err := s.repo.ListCycles(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return cycles, nil
}

// List returns courses and pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
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
	return courses, pagination, nil
}

// Get returns one course with its cycle name.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.CourseDetail, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.FromError(err)
	}
	return course, nil
}

// Create registers a new course.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := s.repo.FindCycleByID(ctx, req.CycleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cycle not found")
		}
		return nil, appErrors.FromError(err)
	}
	course := &models.Course{
		CycleID:  req.CycleID,
		Year:     req.Year,
		Division: req.Division,
		Shift:    req.Shift,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.FromError(err)
	}
	return course, nil
}

// Update modifies an existing course.
func (s *CourseService) Update(ctx context.Context, id int64, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	course := detail.Course
	course.CycleID = req.CycleID
	course.Year = req.Year
	course.Division = req.Division
	course.Shift = req.Shift
	if err := s.repo.Update(ctx, &course); err != nil {
		return nil, appErrors.FromError(err)
	}
	return &course, nil
}

// Delete soft-removes a course.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.FromError(err)
	}
	return nil
}
