package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

// CatalogRepository reads themes and agendas from the appointment backend.
type CatalogRepository struct {
	client upstreamDoer
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(client upstreamDoer) *CatalogRepository {
	return &CatalogRepository{client: client}
}

// ListThemes returns every appointment theme.
func (r *CatalogRepository) ListThemes(ctx context.Context, creds *upstream.Credentials) ([]models.AppointmentTheme, error) {
	var payload models.ListPayload[models.AppointmentTheme]
	err := r.client.Do(ctx, creds, upstream.Request{
		Method: http.MethodGet,
		Path:   "/appointments/themes/",
		Label:  "themes.list",
	}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Items(), nil
}

// ListAgendas returns the first page of agendas the backend offers for the filter.
// The backend may ignore filters it does not know; callers narrow the result again.
func (r *CatalogRepository) ListAgendas(ctx context.Context, creds *upstream.Credentials, filter models.AgendaFilter) ([]models.Agenda, error) {
	query := url.Values{}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.ThemeID > 0 {
		query.Set("theme_id", strconv.FormatInt(filter.ThemeID, 10))
	}
	if filter.UniversityID > 0 {
		query.Set("university_profile_id", strconv.FormatInt(filter.UniversityID, 10))
	}

	var payload models.ListPayload[models.Agenda]
	err := r.client.Do(ctx, creds, upstream.Request{
		Method: http.MethodGet,
		Path:   "/appointments/agendas/",
		Query:  query,
		Label:  "agendas.list",
	}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Items(), nil
}

// GetAgenda fetches one agenda.
func (r *CatalogRepository) GetAgenda(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Agenda, error) {
	var agenda models.Agenda
	err := r.client.Do(ctx, creds, upstream.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/appointments/agendas/%d/", id),
		Label:  "agendas.get",
	}, &agenda)
	if err != nil {
		return nil, err
	}
	return &agenda, nil
}
