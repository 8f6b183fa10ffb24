package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/response"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

type appointmentService interface {
	List(ctx context.Context, creds *upstream.Credentials, filter models.AppointmentFilter) ([]models.Appointment, *models.Pagination, error)
	Get(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Appointment, error)
	Cancel(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Appointment, error)
	SubmitFeedback(ctx context.Context, creds *upstream.Credentials, id int64, req models.FeedbackRequest) (*models.Appointment, error)
	ExportCSV(ctx context.Context, creds *upstream.Credentials, filter models.AppointmentFilter) ([]byte, error)
	ConfirmationPDF(ctx context.Context, creds *upstream.Credentials, id int64) ([]byte, error)
	CalendarICS(ctx context.Context, creds *upstream.Credentials, id int64) ([]byte, error)
	Statistics(ctx context.Context, creds *upstream.Credentials, filter models.StatisticsFilter) (*models.AppointmentStatistics, error)
}

// AppointmentHandler exposes the talent's bookings.
type AppointmentHandler struct {
	service appointmentService
	now     func() time.Time
}

// NewAppointmentHandler constructs the handler.
func NewAppointmentHandler(svc appointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: svc, now: time.Now}
}

func bindAppointmentFilter(c *gin.Context) (models.AppointmentFilter, bool) {
	var filter models.AppointmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid appointment filter"))
		return filter, false
	}
	return filter, true
}

// List godoc
// @Summary List my appointments
// @Tags Appointments
// @Produce json
// @Param status query string false "pending, confirmed, cancelled, completed or no_show"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	filter, ok := bindAppointmentFilter(c)
	if !ok {
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), session.Credentials, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ExportCSV godoc
// @Summary Export my appointments as CSV
// @Tags Appointments
// @Produce text/csv
// @Success 200 {file} file
// @Router /appointments/export.csv [get]
func (h *AppointmentHandler) ExportCSV(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	filter, ok := bindAppointmentFilter(c)
	if !ok {
		return
	}
	data, err := h.service.ExportCSV(c.Request.Context(), session.Credentials, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("appointments-%s.csv", h.now().UTC().Format("20060102"))
	response.Attachment(c, filename, "text/csv; charset=utf-8", data)
}

// Statistics godoc
// @Summary Appointment statistics
// @Description Aggregates for university staff and admins; staff only see their own university
// @Tags Appointments
// @Produce json
// @Param university_profile_id query int false "University profile ID (admins)"
// @Param start_date query string false "YYYY-MM-DD, defaults to 30 days ago"
// @Param end_date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /appointments/statistics [get]
func (h *AppointmentHandler) Statistics(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var filter models.StatisticsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid statistics filter"))
		return
	}
	stats, err := h.service.Statistics(c.Request.Context(), session.Credentials, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Get godoc
// @Summary Appointment detail
// @Tags Appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	appointment, err := h.service.Get(c.Request.Context(), session.Credentials, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// Cancel godoc
// @Summary Cancel an appointment
// @Tags Appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	appointment, err := h.service.Cancel(c.Request.Context(), session.Credentials, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// Feedback godoc
// @Summary Rate an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param payload body models.FeedbackRequest true "Rating 1-5 and optional feedback"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /appointments/{id}/feedback [patch]
func (h *AppointmentHandler) Feedback(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}
	appointment, err := h.service.SubmitFeedback(c.Request.Context(), session.Credentials, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointment, nil)
}

// Calendar godoc
// @Summary Download the appointment as iCalendar
// @Tags Appointments
// @Produce text/calendar
// @Param id path int true "Appointment ID"
// @Success 200 {file} file
// @Router /appointments/{id}/calendar.ics [get]
func (h *AppointmentHandler) Calendar(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	data, err := h.service.CalendarICS(c.Request.Context(), session.Credentials, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, fmt.Sprintf("appointment-%d.ics", id), "text/calendar; charset=utf-8", data)
}

// Confirmation godoc
// @Summary Download the booking confirmation
// @Tags Appointments
// @Produce application/pdf
// @Param id path int true "Appointment ID"
// @Success 200 {file} file
// @Router /appointments/{id}/confirmation.pdf [get]
func (h *AppointmentHandler) Confirmation(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	data, err := h.service.ConfirmationPDF(c.Request.Context(), session.Credentials, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, fmt.Sprintf("appointment-%d.pdf", id), "application/pdf", data)
}
