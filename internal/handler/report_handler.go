package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/academia-sys/academia-api/internal/models"
	"github.com/academia-sys/academia-api/internal/service"
	appErrors "github.com/academia-sys/academia-api/pkg/errors"
	"github.com/academia-sys/academia-api/pkg/response"
)

// ReportHandler exposes aggregated grade report endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// StudentReport godoc
// @Summary Grade report card for one student
// @Tags Reports
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} models.GradeReport
// @Router /reports/students/{id}/grades [get]
func (h *ReportHandler) StudentReport(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	principal, err := currentPrincipal(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	// Students may only read their own report card.
	if principal.Role == models.RoleStudentApp && !principal.OwnsPerson(id) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	report, err := h.reports.StudentReport(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// CourseSubjectReport godoc
// @Summary Grade grid for one subject of a course
// @Tags Reports
// @Produce json
// @Param courseId path int true "Course ID"
// @Param subjectId path int true "Subject ID"
// @Success 200 {object} models.GradeReport
// @Router /reports/courses/{courseId}/subjects/{subjectId}/grades [get]
func (h *ReportHandler) CourseSubjectReport(c *gin.Context) {
	courseID, err := paramID(c, "courseId")
	if err != nil {
		response.Error(c, err)
		return
	}
	subjectID, err := paramID(c, "subjectId")
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.reports.CourseSubjectReport(c.Request.Context(), courseID, subjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportCourseSubjectReport godoc
// @Summary Export the course grade grid as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param courseId path int true "Course ID"
// @Param subjectId path int true "Subject ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /reports/courses/{courseId}/subjects/{subjectId}/grades/export [get]
func (h *ReportHandler) ExportCourseSubjectReport(c *gin.Context) {
	courseID, err := paramID(c, "courseId")
	if err != nil {
		response.Error(c, err)
		return
	}
	subjectID, err := paramID(c, "subjectId")
	if err != nil {
		response.Error(c, err)
		return
	}
	format := c.DefaultQuery("format", "csv")

	payload, contentType, err := h.reports.ExportCourseSubjectReport(c.Request.Context(), courseID, subjectID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	ext := "csv"
	if format == "pdf" {
		ext = "pdf"
	}
	filename := fmt.Sprintf("grades-course-%d-subject-%d.%s", courseID, subjectID, ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
