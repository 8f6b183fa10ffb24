package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/response"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

type catalogService interface {
	ListThemes(ctx context.Context, creds *upstream.Credentials) ([]models.AppointmentTheme, bool, error)
	ListAgendas(ctx context.Context, creds *upstream.Credentials, filter models.AgendaFilter) ([]models.Agenda, bool, error)
}

// CatalogHandler serves the agenda selector.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Themes godoc
// @Summary List appointment themes
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/themes [get]
func (h *CatalogHandler) Themes(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	themes, hit, err := h.service.ListThemes(c.Request.Context(), session.Credentials)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, themes, nil, withCacheMeta(c, hit))
}

// Agendas godoc
// @Summary Search bookable agendas
// @Tags Catalog
// @Produce json
// @Param search query string false "Text contained in the name or description"
// @Param theme_id query int false "Theme"
// @Param university_id query int false "University"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /catalog/agendas [get]
func (h *CatalogHandler) Agendas(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var filter models.AgendaFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid agenda filter"))
		return
	}

	agendas, hit, err := h.service.ListAgendas(c.Request.Context(), session.Credentials, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, agendas, &models.Pagination{Page: 1, PageSize: len(agendas), TotalCount: len(agendas)}, withCacheMeta(c, hit))
}
