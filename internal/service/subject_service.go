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

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.SubjectDetail, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	SoftDelete(ctx context.Context, id int64) error
}

// CreateSubjectRequest holds payload for creating subjects.
type CreateSubjectRequest struct {
	Name      string `json:"name" validate:"required"`
	CourseID  int64  `json:"course_id" validate:"required,gt=0"`
	TeacherID *int64 `json:"teacher_id,omitempty"`
}

// UpdateSubjectRequest holds payload for updating subjects.
type UpdateSubjectRequest struct {
	Name      string `json:"name" validate:"required"`
	CourseID  int64  `json:"course_id" validate:"required,gt=0"`
	TeacherID *int64 `json:"teacher_id,omitempty"`
}

// SubjectService handles subject use-cases.
type SubjectService struct {
	repo      subjectRepository
	people    personRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs the subject service.
func NewSubjectService(repo subjectRepository, people personRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, people: people, validator: validate, logger: logger}
}

// List returns subjects and pagination metadata.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
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
	return subjects, pagination, nil
}

// Get returns one subject with display names.
func (s *SubjectService) Get(ctx context.Context, id int64) (*models.SubjectDetail, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.FromError(err)
	}
	return subject, nil
}

// Create registers a new subject, verifying the teacher assignment.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if err := s.checkTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}
	subject := &models.Subject{
		Name:      req.Name,
		CourseID:  req.CourseID,
		TeacherID: req.TeacherID,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.FromError(err)
	}
	return subject, nil
}

// Update modifies an existing subject.
func (s *SubjectService) Update(ctx context.Context, id int64, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}
	subject := detail.Subject
	subject.Name = req.Name
	subject.CourseID = req.CourseID
	subject.TeacherID = req.TeacherID
	if err := s.repo.Update(ctx, &subject); err != nil {
		return nil, appErrors.FromError(err)
	}
	return &subject, nil
}

// Delete soft-removes a subject.
func (s *SubjectService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.FromError(err)
	}
	return nil
}

// checkTeacher verifies an optional teacher assignment points at a
// teacher person record.
func (s *SubjectService) checkTeacher(ctx context.Context, teacherID *int64) error {
	if teacherID == nil {
		return nil
	}
	person, err := s.people.FindByID(ctx, *teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.FromError(err)
	}
	if person.Kind != models.PersonKindTeacher {
		return appErrors.Clone(appErrors.ErrValidation, "assigned person is not a teacher")
	}
	return nil
}
