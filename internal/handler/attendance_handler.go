package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scms-ph/attendance-api/internal/middleware"
	"github.com/scms-ph/attendance-api/internal/service"
	appErrors "github.com/scms-ph/attendance-api/pkg/errors"
	"github.com/scms-ph/attendance-api/pkg/response"
)

// AttendanceHandler wires HTTP endpoints to the attendance service.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Mark godoc
// @Summary Mark attendance
// @Description Record or update a student's attendance for a date
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	var markedBy int64
	if claims := middleware.CurrentClaims(c); claims != nil {
		markedBy = claims.UserID
	}

	record, err := h.service.Mark(c.Request.Context(), req, markedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// List godoc
// @Summary List attendance
// @Description Return attendance records for a date, defaulting to today
// @Tags Attendance
// @Produce json
// @Param date query string false "Date in YYYY-MM-DD format"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	res, err := h.service.ListByDate(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}
