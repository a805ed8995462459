package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/academia-sys/academia-api/internal/models"
	"github.com/academia-sys/academia-api/internal/service"
	appErrors "github.com/academia-sys/academia-api/pkg/errors"
	"github.com/academia-sys/academia-api/pkg/response"
)

// AttendanceHandler exposes absence endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// ListTypes godoc
// @Summary List absence types
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/types [get]
func (h *AttendanceHandler) ListTypes(c *gin.Context) {
	types, err := h.attendance.ListTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// Record godoc
// @Summary Record an absence event
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.RecordAbsenceRequest true "Absence payload"
// @Success 201 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	principal, err := currentPrincipal(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.RecordAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	absence, err := h.attendance.Record(c.Request.Context(), req, principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, absence)
}

// List godoc
// @Summary List absences
// @Tags Attendance
// @Produce json
// @Param studentId query int false "Filter by student"
// @Param typeId query int false "Filter by type"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	var filter models.AbsenceFilter
	filter.StudentID = queryID(c, "studentId")
	filter.TypeID = queryID(c, "typeId")
	if from, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		filter.To = &to
	}
	filter.Page, filter.PageSize = pageParams(c)

	absences, pagination, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, absences, pagination)
}

// Summary godoc
// @Summary Attendance summary for one student
// @Tags Attendance
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} models.AttendanceSummary
// @Router /attendance/students/{id}/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
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
	// Students may only read their own summary.
	if principal.Role == models.RoleStudentApp && !principal.OwnsPerson(id) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	summary, err := h.attendance.Summary(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
