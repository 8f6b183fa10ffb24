package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

type fakeAppointmentRepo struct {
	pages        [][]models.Appointment
	appointment  *models.Appointment
	err          error
	listFilters  []models.AppointmentFilter
	feedbackSent *models.FeedbackRequest
	stats        *models.AppointmentStatistics
	statsFilter  *models.StatisticsFilter
}

func (f *fakeAppointmentRepo) Statistics(ctx context.Context, creds *upstream.Credentials, filter models.StatisticsFilter) (*models.AppointmentStatistics, error) {
	f.statsFilter = &filter
	return f.stats, f.err
}

func (f *fakeAppointmentRepo) List(ctx context.Context, creds *upstream.Credentials, filter models.AppointmentFilter) ([]models.Appointment, *models.Pagination, error) {
	f.listFilters = append(f.listFilters, filter)
	if f.err != nil {
		return nil, nil, f.err
	}
	total := 0
	for _, p := range f.pages {
		total += len(p)
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	if page > len(f.pages) {
		return []models.Appointment{}, &models.Pagination{Page: page, TotalCount: total}, nil
	}
	items := f.pages[page-1]
	return items, &models.Pagination{Page: page, PageSize: len(items), TotalCount: total}, nil
}

func (f *fakeAppointmentRepo) Get(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Appointment, error) {
	return f.appointment, f.err
}

func (f *fakeAppointmentRepo) Cancel(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	cancelled := *f.appointment
	cancelled.Status = models.AppointmentCancelled
	return &cancelled, nil
}

func (f *fakeAppointmentRepo) UpdateFeedback(ctx context.Context, creds *upstream.Credentials, id int64, req models.FeedbackRequest) (*models.Appointment, error) {
	f.feedbackSent = &req
	return f.appointment, f.err
}

func bookedAppointment() *models.Appointment {
	slot := slotFixture(10, "2025-03-10")
	slot.Agenda = models.Ref{ID: 1, Name: "CV Review"}
	slot.Staff = models.Ref{ID: 3, Name: "Dr. Amal"}
	slot.Location = "Building B, room 12"
	return &models.Appointment{
		ID:               55,
		CalendarSlot:     &slot,
		BookingReference: "APT-55",
		Status:           models.AppointmentConfirmed,
		TalentNotes:      "bring portfolio",
	}
}

func TestAppointmentServiceListValidatesFilter(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	svc := NewAppointmentService(repo, nil, nil, nil)

	_, _, err := svc.List(context.Background(), nil, models.AppointmentFilter{Status: "archived"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, _, err = svc.List(context.Background(), nil, models.AppointmentFilter{StartDate: "03/10/2025"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.listFilters)

	_, pagination, err := svc.List(context.Background(), nil, models.AppointmentFilter{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
}

func TestAppointmentServiceCancelSurfacesBackendRefusal(t *testing.T) {
	repo := &fakeAppointmentRepo{err: &upstream.APIError{Status: http.StatusBadRequest, Message: "Cancellation deadline has passed", MessageKey: "error"}}
	svc := NewAppointmentService(repo, nil, nil, nil)

	_, err := svc.Cancel(context.Background(), nil, 55)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "Cancellation deadline has passed", appErr.Message)

	repo.err = nil
	repo.appointment = bookedAppointment()
	cancelled, err := svc.Cancel(context.Background(), nil, 55)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCancelled, cancelled.Status)
}

func TestAppointmentServiceFeedbackValidation(t *testing.T) {
	repo := &fakeAppointmentRepo{appointment: bookedAppointment()}
	svc := NewAppointmentService(repo, nil, nil, nil)

	_, err := svc.SubmitFeedback(context.Background(), nil, 55, models.FeedbackRequest{Rating: 6})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "rating")
	assert.Nil(t, repo.feedbackSent)

	_, err = svc.SubmitFeedback(context.Background(), nil, 55, models.FeedbackRequest{Rating: 5, Feedback: "  helpful  "})
	require.NoError(t, err)
	require.NotNil(t, repo.feedbackSent)
	assert.Equal(t, "helpful", repo.feedbackSent.Feedback)
}

func TestAppointmentServiceStatisticsValidatesRange(t *testing.T) {
	repo := &fakeAppointmentRepo{stats: &models.AppointmentStatistics{TotalAppointments: 3}}
	svc := NewAppointmentService(repo, nil, nil, nil)

	_, err := svc.Statistics(context.Background(), nil, models.StatisticsFilter{StartDate: "2025-04-01", EndDate: "2025-03-01"})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "end_date")

	_, err = svc.Statistics(context.Background(), nil, models.StatisticsFilter{StartDate: "1 March"})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "start_date")
	assert.Nil(t, repo.statsFilter)

	stats, err := svc.Statistics(context.Background(), nil, models.StatisticsFilter{UniversityProfileID: 3, StartDate: " 2025-03-01 ", EndDate: "2025-03-31"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalAppointments)
	require.NotNil(t, repo.statsFilter)
	assert.Equal(t, "2025-03-01", repo.statsFilter.StartDate)
	assert.EqualValues(t, 3, repo.statsFilter.UniversityProfileID)
}

func TestAppointmentServiceStatisticsForbiddenByBackend(t *testing.T) {
	repo := &fakeAppointmentRepo{err: &upstream.APIError{Status: http.StatusForbidden, Message: "Only university staff and admin can access statistics", MessageKey: "error"}}
	svc := NewAppointmentService(repo, nil, nil, nil)

	_, err := svc.Statistics(context.Background(), nil, models.StatisticsFilter{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, "Only university staff and admin can access statistics", appErr.Message)
}

func TestAppointmentServiceExportCSVFollowsPages(t *testing.T) {
	first := bookedAppointment()
	second := bookedAppointment()
	second.ID = 56
	second.BookingReference = "APT-56"
	repo := &fakeAppointmentRepo{pages: [][]models.Appointment{{*first}, {*second}}}
	svc := NewAppointmentService(repo, nil, nil, nil)

	data, err := svc.ExportCSV(context.Background(), nil, models.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, repo.listFilters, 2)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, appointmentCSVHeaders, records[0])
	assert.Equal(t, "55", records[1][0])
	assert.Equal(t, "CV Review", records[1][3])
	assert.Equal(t, "APT-56", records[2][1])
}

func TestAppointmentServiceCalendarICS(t *testing.T) {
	repo := &fakeAppointmentRepo{appointment: bookedAppointment()}
	loc := time.FixedZone("UTC+1", 3600)
	svc := NewAppointmentService(repo, nil, loc, nil)

	data, err := svc.CalendarICS(context.Background(), nil, 55)
	require.NoError(t, err)

	cal, err := ical.ParseCalendar(strings.NewReader(string(data)))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	start, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, "CV Review", events[0].GetProperty(ical.ComponentPropertySummary).Value)
}

func TestAppointmentServiceCalendarICSNeedsSchedule(t *testing.T) {
	repo := &fakeAppointmentRepo{appointment: &models.Appointment{ID: 1, CalendarSlot: &models.CalendarSlot{ID: 9}}}
	svc := NewAppointmentService(repo, nil, nil, nil)

	_, err := svc.CalendarICS(context.Background(), nil, 1)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestAppointmentServiceConfirmationPDF(t *testing.T) {
	repo := &fakeAppointmentRepo{appointment: bookedAppointment()}
	svc := NewAppointmentService(repo, nil, nil, nil)

	data, err := svc.ConfirmationPDF(context.Background(), nil, 55)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
