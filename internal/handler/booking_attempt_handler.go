package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/dto"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/response"
)

type attemptSummaryService interface {
	Summary(ctx context.Context, since time.Time) (*dto.AttemptSummaryResponse, error)
}

// BookingAttemptHandler reports on the booking audit trail.
type BookingAttemptHandler struct {
	service attemptSummaryService
	now     func() time.Time
}

// NewBookingAttemptHandler constructs the handler.
func NewBookingAttemptHandler(svc attemptSummaryService) *BookingAttemptHandler {
	return &BookingAttemptHandler{service: svc, now: time.Now}
}

// Summary godoc
// @Summary Booking attempts per outcome
// @Description Restricted to university staff and admins
// @Tags Bookings
// @Produce json
// @Param since query string false "RFC3339 timestamp or YYYY-MM-DD; defaults to 24h ago"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bookings/attempts/summary [get]
func (h *BookingAttemptHandler) Summary(c *gin.Context) {
	since := h.now().Add(-24 * time.Hour)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			response.Error(c, appErrors.WithField(appErrors.Clone(appErrors.ErrValidation, "invalid since"), "since", "expected RFC3339 or YYYY-MM-DD"))
			return
		}
		since = parsed
	}

	summary, err := h.service.Summary(c.Request.Context(), since)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
