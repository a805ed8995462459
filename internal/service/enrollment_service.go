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

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.EnrollmentDetail, error)
	Exists(ctx context.Context, studentID, subjectID int64) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	SoftDelete(ctx context.Context, id int64) error
}

// CreateEnrollmentRequest registers one student in one subject.
type CreateEnrollmentRequest struct {
	StudentID int64 `json:"student_id" validate:"required,gt=0"`
	SubjectID int64 `json:"subject_id" validate:"required,gt=0"`
}

// EnrollmentService handles student-subject enrollment use-cases.
type EnrollmentService struct {
	repo      enrollmentRepository
	reports   reportInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repo enrollmentRepository, reports reportInvalidator, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, reports: reports, validator: validate, logger: logger}
}

// List returns enrollments and pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
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
	return enrollments, pagination, nil
}

// Create registers a student in a subject.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	exists, err := s.repo.Exists(ctx, req.StudentID, req.SubjectID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in subject")
	}
	enrollment := &models.Enrollment{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.FromError(err)
	}
	if s.reports != nil {
		s.reports.InvalidateStudent(ctx, enrollment.StudentID)
		s.reports.InvalidateSubject(ctx, enrollment.SubjectID)
	}
	return enrollment, nil
}

// Withdraw soft-removes an enrollment keeping grade history.
func (s *EnrollmentService) Withdraw(ctx context.Context, id int64) error {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.FromError(err)
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.FromError(err)
	}
	if s.reports != nil {
		s.reports.InvalidateStudent(ctx, detail.StudentID)
		s.reports.InvalidateSubject(ctx, detail.SubjectID)
	}
	return nil
}
