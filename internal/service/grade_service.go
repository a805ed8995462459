package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academia-sys/academia-api/internal/models"
	appErrors "github.com/academia-sys/academia-api/pkg/errors"
)

type gradeRepository interface {
	ListTypes(ctx context.Context) ([]models.GradeType, error)
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntryDetail, int, error)
	Upsert(ctx context.Context, entry *models.GradeEntry) error
}

type gradeEnrollmentRepository interface {
	Exists(ctx context.Context, studentID, subjectID int64) (bool, error)
}

type gradeAuditRepository interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

type reportInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID int64)
	InvalidateSubject(ctx context.Context, subjectID int64)
}

// GradeConfig holds the grading write constraints.
type GradeConfig struct {
	// SystemActorID is recorded as the grade loader when the caller has no
	// linked person record.
	SystemActorID int64
	MinScore      float64
	MaxScore      float64
}

// UpsertGradeRequest records or overwrites one score.
type UpsertGradeRequest struct {
	StudentID   int64    `json:"student_id" validate:"required,gt=0"`
	SubjectID   int64    `json:"subject_id" validate:"required,gt=0"`
	GradeTypeID int64    `json:"grade_type_id" validate:"required,gt=0"`
	PeriodID    *int64   `json:"period_id,omitempty"`
	Score       *float64 `json:"score" validate:"required"`
}

// GradeService handles grade recording and listing use-cases.
type GradeService struct {
	repo        gradeRepository
	enrollments gradeEnrollmentRepository
	audits      gradeAuditRepository
	reports     reportInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
	config      GradeConfig
}

// NewGradeService constructs the grade service. The audit and report
// collaborators may be nil.
func NewGradeService(repo gradeRepository, enrollments gradeEnrollmentRepository, audits gradeAuditRepository, reports reportInvalidator, validate *validator.Validate, logger *zap.Logger, config GradeConfig) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		repo:        repo,
		enrollments: enrollments,
		audits:      audits,
		reports:     reports,
		validator:   validate,
		logger:      logger,
		config:      config,
	}
}

// ListTypes returns the grading columns.
func (s *GradeService) ListTypes(ctx context.Context) ([]models.GradeType, error) {
	types, err := s.repo.ListTypes(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return types, nil
}

// List returns grade entries and pagination metadata.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntryDetail, *models.Pagination, error) {
	entries, total, err := s.repo.List(ctx, filter)
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
	return entries, pagination, nil
}

// Upsert records a score. Writing the same (student, subject, grade type)
// triple again overwrites the previous value; the write is attributed to
// the caller's person record or to the configured system actor.
func (s *GradeService) Upsert(ctx context.Context, req UpsertGradeRequest, actor *models.Principal) (*models.GradeEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	score := *req.Score
	if score < s.config.MinScore || score > s.config.MaxScore {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("score must be between %.1f and %.1f", s.config.MinScore, s.config.MaxScore))
	}

	enrolled, err := s.enrollments.Exists(ctx, req.StudentID, req.SubjectID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in subject")
	}

	entry := &models.GradeEntry{
		StudentID:   req.StudentID,
		SubjectID:   req.SubjectID,
		GradeTypeID: req.GradeTypeID,
		PeriodID:    req.PeriodID,
		Score:       score,
		RecordedBy:  s.resolveActorID(actor),
		RecordedOn:  time.Now().UTC(),
	}

	if err := s.repo.Upsert(ctx, entry); err != nil {
		return nil, appErrors.FromError(err)
	}

	if s.audits != nil {
		detail := fmt.Sprintf(`{"student_id":%d,"subject_id":%d,"grade_type_id":%d,"score":%g}`,
			entry.StudentID, entry.SubjectID, entry.GradeTypeID, entry.Score)
		audit := &models.AuditLog{
			Action:   models.AuditActionGradeUpsert,
			Entity:   "grade_entry",
			EntityID: &entry.ID,
			Detail:   &detail,
		}
		if actor != nil {
			audit.UserID = &actor.UserID
		}
		if err := s.audits.CreateAuditLog(ctx, audit); err != nil {
			s.logger.Warn("failed to record grade audit log", zap.Error(err))
		}
	}

	if s.reports != nil {
		s.reports.InvalidateStudent(ctx, entry.StudentID)
		s.reports.InvalidateSubject(ctx, entry.SubjectID)
	}

	return entry, nil
}

// resolveActorID maps the caller to the person attributed as the grade
// loader. Accounts without a person record fall back to the system actor.
func (s *GradeService) resolveActorID(actor *models.Principal) int64 {
	if actor != nil && actor.PersonID != nil {
		return *actor.PersonID
	}
	return s.config.SystemActorID
}
