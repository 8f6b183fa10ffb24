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

// AppointmentRepository creates and reads the talent's appointments on the backend.
type AppointmentRepository struct {
	client upstreamDoer
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(client upstreamDoer) *AppointmentRepository {
	return &AppointmentRepository{client: client}
}

// Book issues the create-booking request. It is never retried.
func (r *AppointmentRepository) Book(ctx context.Context, creds *upstream.Credentials, req models.BookingRequest) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.client.Do(ctx, creds, upstream.Request{
		Method: http.MethodPost,
		Path:   "/appointments/book/",
		Body:   req,
		Label:  "appointments.book",
	}, &appointment)
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// List returns one page of the caller's appointments.
func (r *AppointmentRepository) List(ctx context.Context, creds *upstream.Credentials, filter models.AppointmentFilter) ([]models.Appointment, *models.Pagination, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	if filter.StartDate != "" {
		query.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		query.Set("end_date", filter.EndDate)
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	if page > 1 {
		query.Set("page", strconv.Itoa(page))
	}

	var payload models.ListPayload[models.Appointment]
	err := r.client.Do(ctx, creds, upstream.Request{
		Method: http.MethodGet,
		Path:   "/appointments/",
		Query:  query,
		Label:  "appointments.list",
	}, &payload)
	if err != nil {
		return nil, nil, err
	}

	items := payload.Items()
	return items, &models.Pagination{
		Page:       page,
		PageSize:   len(items),
		TotalCount: payload.Total(),
	}, nil
}

// Get fetches one appointment.
func (r *AppointmentRepository) Get(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.client.Do(ctx, creds, upstream.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/appointments/%d/", id),
		Label:  "appointments.get",
	}, &appointment)
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// Cancel asks the backend to cancel; deadline and state checks happen there.
func (r *AppointmentRepository) Cancel(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.client.Do(ctx, creds, upstream.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/appointments/%d/cancel/", id),
		Label:  "appointments.cancel",
	}, &appointment)
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// UpdateFeedback stores a rating and feedback on the appointment.
func (r *AppointmentRepository) UpdateFeedback(ctx context.Context, creds *upstream.Credentials, id int64, req models.FeedbackRequest) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.client.Do(ctx, creds, upstream.Request{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/appointments/%d/", id),
		Body:   req,
		Label:  "appointments.feedback",
	}, &appointment)
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

type statisticsPayload struct {
	models.AppointmentStatistics
	ByTheme []struct {
		Theme     string `json:"calendar_slot__agenda__theme__name"`
		Count     int64  `json:"count"`
		Completed int64  `json:"completed"`
		Cancelled int64  `json:"cancelled"`
	} `json:"by_theme"`
}

// Statistics reads the staff appointment statistics. The backend enforces the role.
func (r *AppointmentRepository) Statistics(ctx context.Context, creds *upstream.Credentials, filter models.StatisticsFilter) (*models.AppointmentStatistics, error) {
	query := url.Values{}
	if filter.UniversityProfileID > 0 {
		query.Set("university_profile_id", strconv.FormatInt(filter.UniversityProfileID, 10))
	}
	if filter.StartDate != "" {
		query.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		query.Set("end_date", filter.EndDate)
	}

	var payload statisticsPayload
	err := r.client.Do(ctx, creds, upstream.Request{
		Method: http.MethodGet,
		Path:   "/appointments/statistics/",
		Query:  query,
		Label:  "appointments.statistics",
	}, &payload)
	if err != nil {
		return nil, err
	}

	stats := payload.AppointmentStatistics
	stats.ByTheme = make([]models.ThemeStatistics, 0, len(payload.ByTheme))
	for _, theme := range payload.ByTheme {
		stats.ByTheme = append(stats.ByTheme, models.ThemeStatistics{
			Theme:     theme.Theme,
			Count:     theme.Count,
			Completed: theme.Completed,
			Cancelled: theme.Cancelled,
		})
	}
	return &stats, nil
}
