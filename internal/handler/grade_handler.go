package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/academia-sys/academia-api/internal/models"
	"github.com/academia-sys/academia-api/internal/service"
	appErrors "github.com/academia-sys/academia-api/pkg/errors"
	"github.com/academia-sys/academia-api/pkg/response"
)

// GradeHandler exposes grade endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// ListTypes godoc
// @Summary List grading columns
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grades/types [get]
func (h *GradeHandler) ListTypes(c *gin.Context) {
	types, err := h.grades.ListTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// List godoc
// @Summary List grade entries
// @Tags Grades
// @Produce json
// @Param studentId query int false "Filter by student"
// @Param subjectId query int false "Filter by subject"
// @Param courseId query int false "Filter by course"
// @Param gradeTypeId query int false "Filter by grade type"
// @Param periodId query int false "Filter by period"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	var filter models.GradeFilter
	filter.StudentID = queryID(c, "studentId")
	filter.SubjectID = queryID(c, "subjectId")
	filter.CourseID = queryID(c, "courseId")
	filter.GradeTypeID = queryID(c, "gradeTypeId")
	filter.PeriodID = queryID(c, "periodId")
	filter.Page, filter.PageSize = pageParams(c)

	entries, pagination, err := h.grades.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Upsert godoc
// @Summary Record or overwrite a score
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.UpsertGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /grades [put]
func (h *GradeHandler) Upsert(c *gin.Context) {
	principal, err := currentPrincipal(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpsertGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.grades.Upsert(c.Request.Context(), req, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
