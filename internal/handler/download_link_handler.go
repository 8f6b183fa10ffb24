package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/dto"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/service"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/response"
)

type downloadLinkService interface {
	Issue(ctx context.Context, auth *models.AuthSession, appointmentID int64, req dto.DownloadLinkRequest) (*dto.DownloadLink, error)
	Resolve(ctx context.Context, token string) (*service.Document, error)
}

// DownloadLinkHandler hands out and serves signed document links.
type DownloadLinkHandler struct {
	service downloadLinkService
}

// NewDownloadLinkHandler constructs the handler.
func NewDownloadLinkHandler(svc downloadLinkService) *DownloadLinkHandler {
	return &DownloadLinkHandler{service: svc}
}

// Issue godoc
// @Summary Create a signed download link
// @Description The link serves the document without an Authorization header until it expires or the session ends.
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param payload body dto.DownloadLinkRequest true "calendar or confirmation"
// @Success 201 {object} response.Envelope
// @Router /appointments/{id}/links [post]
func (h *DownloadLinkHandler) Issue(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req dto.DownloadLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid download link request"))
		return
	}
	link, err := h.service.Issue(c.Request.Context(), session, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// Serve godoc
// @Summary Fetch a document through a signed link
// @Tags Appointments
// @Produce application/pdf,text/calendar
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /links/{token} [get]
func (h *DownloadLinkHandler) Serve(c *gin.Context) {
	doc, err := h.service.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Data)
}
