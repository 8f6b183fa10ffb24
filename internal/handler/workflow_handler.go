package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/dto"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/response"
)

type workflowService interface {
	Start(ctx context.Context, auth *models.AuthSession, agendaID int64) (*dto.WorkflowView, error)
	Get(ctx context.Context, auth *models.AuthSession, id string) (*dto.WorkflowView, error)
	SelectAgenda(ctx context.Context, auth *models.AuthSession, id string, agendaID int64) (*dto.WorkflowView, error)
	ChangeAgenda(ctx context.Context, auth *models.AuthSession, id string) (*dto.WorkflowView, error)
	SetDate(ctx context.Context, auth *models.AuthSession, id, date string) (*dto.WorkflowView, error)
	RefreshSlots(ctx context.Context, auth *models.AuthSession, id string) (*dto.WorkflowView, error)
	SelectSlot(ctx context.Context, auth *models.AuthSession, id string, slotID int64, notes string) (*dto.WorkflowView, error)
	Back(ctx context.Context, auth *models.AuthSession, id string) (*dto.WorkflowView, error)
	Submit(ctx context.Context, auth *models.AuthSession, id string, notes *string) (*dto.WorkflowView, error)
	Abandon(ctx context.Context, auth *models.AuthSession, id string) error
}

// WorkflowHandler drives the booking workflow over HTTP. Booking outcomes other than
// success come back as 200 with last_error set on the view.
type WorkflowHandler struct {
	service workflowService
}

// NewWorkflowHandler constructs the handler.
func NewWorkflowHandler(svc workflowService) *WorkflowHandler {
	return &WorkflowHandler{service: svc}
}

// bindOptionalJSON decodes a body when one was sent.
func bindOptionalJSON(c *gin.Context, dest interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func (h *WorkflowHandler) respond(c *gin.Context, status int, view *dto.WorkflowView, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, status, view, nil)
}

// Start godoc
// @Summary Start a booking workflow
// @Tags Workflows
// @Accept json
// @Produce json
// @Param payload body dto.StartWorkflowRequest false "Optional agenda to open directly"
// @Success 201 {object} response.Envelope
// @Router /workflows [post]
func (h *WorkflowHandler) Start(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var req dto.StartWorkflowRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.Start(c.Request.Context(), session, req.AgendaID)
	h.respond(c, http.StatusCreated, view, err)
}

// Get godoc
// @Summary Current workflow state
// @Tags Workflows
// @Produce json
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /workflows/{id} [get]
func (h *WorkflowHandler) Get(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	view, err := h.service.Get(c.Request.Context(), session, c.Param("id"))
	h.respond(c, http.StatusOK, view, err)
}

// Abandon godoc
// @Summary Abandon a workflow
// @Tags Workflows
// @Param id path string true "Workflow ID"
// @Success 204
// @Router /workflows/{id} [delete]
func (h *WorkflowHandler) Abandon(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	if err := h.service.Abandon(c.Request.Context(), session, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SelectAgenda godoc
// @Summary Select or change the agenda
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID"
// @Param payload body dto.SelectAgendaRequest true "Agenda"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /workflows/{id}/agenda [post]
func (h *WorkflowHandler) SelectAgenda(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var req dto.SelectAgendaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "agenda_id is required"))
		return
	}
	view, err := h.service.SelectAgenda(c.Request.Context(), session, c.Param("id"), req.AgendaID)
	h.respond(c, http.StatusOK, view, err)
}

// ChangeAgenda godoc
// @Summary Return to agenda selection
// @Tags Workflows
// @Produce json
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /workflows/{id}/agenda [delete]
func (h *WorkflowHandler) ChangeAgenda(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	view, err := h.service.ChangeAgenda(c.Request.Context(), session, c.Param("id"))
	h.respond(c, http.StatusOK, view, err)
}

// SetDate godoc
// @Summary Set or clear the date filter
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID"
// @Param payload body dto.SetDateRequest true "Date (YYYY-MM-DD) or empty"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/date [put]
func (h *WorkflowHandler) SetDate(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var req dto.SetDateRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.SetDate(c.Request.Context(), session, c.Param("id"), req.Date)
	h.respond(c, http.StatusOK, view, err)
}

// RefreshSlots godoc
// @Summary Re-fetch available slots
// @Tags Workflows
// @Produce json
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Router /workflows/{id}/slots/refresh [post]
func (h *WorkflowHandler) RefreshSlots(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	view, err := h.service.RefreshSlots(c.Request.Context(), session, c.Param("id"))
	h.respond(c, http.StatusOK, view, err)
}

// SelectSlot godoc
// @Summary Choose a slot
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID"
// @Param payload body dto.SelectSlotRequest true "Slot"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /workflows/{id}/slot [post]
func (h *WorkflowHandler) SelectSlot(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var req dto.SelectSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "slot_id is required"))
		return
	}
	view, err := h.service.SelectSlot(c.Request.Context(), session, c.Param("id"), req.SlotID, req.TalentNotes)
	h.respond(c, http.StatusOK, view, err)
}

// Back godoc
// @Summary Step back
// @Tags Workflows
// @Produce json
// @Param id path string true "Workflow ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /workflows/{id}/back [post]
func (h *WorkflowHandler) Back(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	view, err := h.service.Back(c.Request.Context(), session, c.Param("id"))
	h.respond(c, http.StatusOK, view, err)
}

// Submit godoc
// @Summary Submit the booking
// @Description Books the held slot. Conflicts, refusals and failures return 200 with last_error.
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID"
// @Param payload body dto.SubmitBookingRequest false "Notes override"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /workflows/{id}/submit [post]
func (h *WorkflowHandler) Submit(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var req dto.SubmitBookingRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.Submit(c.Request.Context(), session, c.Param("id"), req.TalentNotes)
	h.respond(c, http.StatusOK, view, err)
}
