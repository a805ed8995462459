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

type attendanceRepository interface {
	ListTypes(ctx context.Context) ([]models.AbsenceType, error)
	FindTypeByID(ctx context.Context, id int64) (*models.AbsenceType, error)
	Record(ctx context.Context, absence *models.Absence) error
	List(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceDetail, int, error)
	DetailsByStudent(ctx context.Context, studentID int64) ([]models.AbsenceDetail, error)
}

const absenceDateLayout = "2006-01-02"

// RecordAbsenceRequest records one absence event.
type RecordAbsenceRequest struct {
	StudentID int64   `json:"student_id" validate:"required,gt=0"`
	TypeID    int64   `json:"type_id" validate:"required,gt=0"`
	Date      string  `json:"date" validate:"required"`
	Justified bool    `json:"justified"`
	Reason    *string `json:"reason,omitempty"`
}

// AttendanceService handles absence recording and summaries.
type AttendanceService struct {
	repo      attendanceRepository
	audits    gradeAuditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, audits gradeAuditRepository, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, audits: audits, validator: validate, logger: logger}
}

// ListTypes returns all absence types.
func (s *AttendanceService) ListTypes(ctx context.Context) ([]models.AbsenceType, error) {
	types, err := s.repo.ListTypes(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	return types, nil
}

// Record registers one absence event.
func (s *AttendanceService) Record(ctx context.Context, req RecordAbsenceRequest, actor *models.Principal) (*models.Absence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence payload")
	}

	date, err := time.Parse(absenceDateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
	}

	if _, err := s.repo.FindTypeByID(ctx, req.TypeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "absence type not found")
		}
		return nil, appErrors.FromError(err)
	}

	absence := &models.Absence{
		StudentID: req.StudentID,
		TypeID:    req.TypeID,
		Date:      date,
		Justified: req.Justified,
		Reason:    req.Reason,
	}
	if err := s.repo.Record(ctx, absence); err != nil {
		return nil, appErrors.FromError(err)
	}

	if s.audits != nil {
		audit := &models.AuditLog{
			Action:   models.AuditActionAbsenceRecord,
			Entity:   "absence",
			EntityID: &absence.ID,
		}
		if actor != nil {
			audit.UserID = &actor.UserID
		}
		if err := s.audits.CreateAuditLog(ctx, audit); err != nil {
			s.logger.Warn("failed to record absence audit log", zap.Error(err))
		}
	}

	return absence, nil
}

// List returns absences and pagination metadata.
func (s *AttendanceService) List(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceDetail, *models.Pagination, error) {
	absences, total, err := s.repo.List(ctx, filter)
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
	return absences, pagination, nil
}

// Summary aggregates a student's absences, weighting each event by its
// type (a late arrival may count as half a day).
func (s *AttendanceService) Summary(ctx context.Context, studentID int64) (*models.AttendanceSummary, error) {
	if studentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid student id")
	}

	details, err := s.repo.DetailsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	summary := &models.AttendanceSummary{DetailedRecords: make([]models.AttendanceDetail, 0, len(details))}
	for _, d := range details {
		summary.TotalDaysLost += d.TypeWeight
		if d.Justified {
			summary.JustifiedDays += d.TypeWeight
		}
		reason := ""
		if d.Reason != nil {
			reason = *d.Reason
		}
		summary.DetailedRecords = append(summary.DetailedRecords, models.AttendanceDetail{
			Date:      d.Date.Format(absenceDateLayout),
			Type:      d.TypeDescription,
			Value:     d.TypeWeight,
			Justified: d.Justified,
			Reason:    reason,
		})
	}
	return summary, nil
}
