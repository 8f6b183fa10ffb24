package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/dto"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

type fakeAppointmentSrv struct {
	filter   models.AppointmentFilter
	feedback models.FeedbackRequest
	lastID   int64
	err      error

	statsFilter models.StatisticsFilter
}

func (f *fakeAppointmentSrv) Statistics(_ context.Context, _ *upstream.Credentials, filter models.StatisticsFilter) (*models.AppointmentStatistics, error) {
	f.statsFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	rating := 4.5
	return &models.AppointmentStatistics{
		TotalAppointments: 5,
		AverageRating:     &rating,
		ByTheme:           []models.ThemeStatistics{{Theme: "Career Guidance", Count: 5}},
	}, nil
}

func (f *fakeAppointmentSrv) List(_ context.Context, _ *upstream.Credentials, filter models.AppointmentFilter) ([]models.Appointment, *models.Pagination, error) {
	f.filter = filter
	if f.err != nil {
		return nil, nil, f.err
	}
	return []models.Appointment{{ID: 1, Status: models.AppointmentConfirmed}}, &models.Pagination{Page: 1, PageSize: 1, TotalCount: 1}, nil
}

func (f *fakeAppointmentSrv) Get(_ context.Context, _ *upstream.Credentials, id int64) (*models.Appointment, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return &models.Appointment{ID: id, Status: models.AppointmentConfirmed}, nil
}

func (f *fakeAppointmentSrv) Cancel(_ context.Context, _ *upstream.Credentials, id int64) (*models.Appointment, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return &models.Appointment{ID: id, Status: models.AppointmentCancelled}, nil
}

func (f *fakeAppointmentSrv) SubmitFeedback(_ context.Context, _ *upstream.Credentials, id int64, req models.FeedbackRequest) (*models.Appointment, error) {
	f.lastID = id
	f.feedback = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Appointment{ID: id, Status: models.AppointmentCompleted, Rating: &req.Rating}, nil
}

func (f *fakeAppointmentSrv) ExportCSV(_ context.Context, _ *upstream.Credentials, filter models.AppointmentFilter) ([]byte, error) {
	f.filter = filter
	return []byte("id,status\n1,confirmed\n"), f.err
}

func (f *fakeAppointmentSrv) ConfirmationPDF(_ context.Context, _ *upstream.Credentials, id int64) ([]byte, error) {
	f.lastID = id
	return []byte("%PDF-1.3"), f.err
}

func (f *fakeAppointmentSrv) CalendarICS(_ context.Context, _ *upstream.Credentials, id int64) ([]byte, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), nil
}

func TestAppointmentHandlerListBindsFilter(t *testing.T) {
	srv := &fakeAppointmentSrv{}
	handler := NewAppointmentHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/appointments?status=confirmed&start_date=2026-10-01&page=2", "", testSession())
	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirmed", srv.filter.Status)
	assert.Equal(t, "2026-10-01", srv.filter.StartDate)
	assert.Equal(t, 2, srv.filter.Page)

	var items []models.Appointment
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &items))
	require.Len(t, items, 1)
}

func TestAppointmentHandlerStatisticsBindsFilter(t *testing.T) {
	srv := &fakeAppointmentSrv{}
	handler := NewAppointmentHandler(srv)
	session := testSession()
	session.Role = models.RoleAdmin

	c, rec := newTestContext(http.MethodGet, "/appointments/statistics?university_profile_id=3&start_date=2026-09-01&end_date=2026-09-30", "", session)
	handler.Statistics(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, srv.statsFilter.UniversityProfileID)
	assert.Equal(t, "2026-09-01", srv.statsFilter.StartDate)
	assert.Equal(t, "2026-09-30", srv.statsFilter.EndDate)

	var stats models.AppointmentStatistics
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &stats))
	assert.EqualValues(t, 5, stats.TotalAppointments)
	require.Len(t, stats.ByTheme, 1)
	assert.Equal(t, "Career Guidance", stats.ByTheme[0].Theme)
}

func TestAppointmentHandlerStatisticsRejectsNonNumericUniversity(t *testing.T) {
	srv := &fakeAppointmentSrv{}
	handler := NewAppointmentHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/appointments/statistics?university_profile_id=abc", "", testSession())
	handler.Statistics(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestAppointmentHandlerRejectsBadID(t *testing.T) {
	srv := &fakeAppointmentSrv{}
	handler := NewAppointmentHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/appointments/abc", "", testSession())
	c.AddParam("id", "abc")
	handler.Get(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, srv.lastID)
}

func TestAppointmentHandlerCancelConflict(t *testing.T) {
	srv := &fakeAppointmentSrv{err: appErrors.Clone(appErrors.ErrConflict, "Cancellation deadline has passed")}
	handler := NewAppointmentHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/appointments/5/cancel", "", testSession())
	c.AddParam("id", "5")
	handler.Cancel(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "CONFLICT", env.Error.Code)
	assert.Equal(t, "Cancellation deadline has passed", env.Error.Message)
	assert.EqualValues(t, 5, srv.lastID)
}

func TestAppointmentHandlerFeedback(t *testing.T) {
	srv := &fakeAppointmentSrv{}
	handler := NewAppointmentHandler(srv)

	c, rec := newTestContext(http.MethodPatch, "/appointments/9/feedback", `{"rating":4,"feedback":"helpful"}`, testSession())
	c.AddParam("id", "9")
	handler.Feedback(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, srv.feedback.Rating)
	assert.Equal(t, "helpful", srv.feedback.Feedback)
}

func TestAppointmentHandlerCalendarDownload(t *testing.T) {
	handler := NewAppointmentHandler(&fakeAppointmentSrv{})

	c, rec := newTestContext(http.MethodGet, "/appointments/3/calendar.ics", "", testSession())
	c.AddParam("id", "3")
	handler.Calendar(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="appointment-3.ics"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
}

func TestAppointmentHandlerConfirmationDownload(t *testing.T) {
	handler := NewAppointmentHandler(&fakeAppointmentSrv{})

	c, rec := newTestContext(http.MethodGet, "/appointments/3/confirmation.pdf", "", testSession())
	c.AddParam("id", "3")
	handler.Confirmation(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestAppointmentHandlerCalendarWithoutSchedule(t *testing.T) {
	handler := NewAppointmentHandler(&fakeAppointmentSrv{err: appErrors.Clone(appErrors.ErrConflict, "appointment has no scheduled time")})

	c, rec := newTestContext(http.MethodGet, "/appointments/3/calendar.ics", "", testSession())
	c.AddParam("id", "3")
	handler.Calendar(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAppointmentHandlerExportFilename(t *testing.T) {
	handler := NewAppointmentHandler(&fakeAppointmentSrv{})
	handler.now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }

	c, rec := newTestContext(http.MethodGet, "/appointments/export.csv?status=completed", "", testSession())
	handler.ExportCSV(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="appointments-20261016.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "1,confirmed")
}

type fakeSummarySrv struct {
	since time.Time
	err   error
}

func (f *fakeSummarySrv) Summary(_ context.Context, since time.Time) (*dto.AttemptSummaryResponse, error) {
	f.since = since
	if f.err != nil {
		return nil, f.err
	}
	return &dto.AttemptSummaryResponse{Since: since, Total: 3}, nil
}

func TestBookingAttemptHandlerSummary(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	t.Run("defaults to last day", func(t *testing.T) {
		srv := &fakeSummarySrv{}
		handler := NewBookingAttemptHandler(srv)
		handler.now = func() time.Time { return now }

		c, rec := newTestContext(http.MethodGet, "/bookings/attempts/summary", "", testSession())
		handler.Summary(c)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, now.Add(-24*time.Hour), srv.since)
	})

	t.Run("accepts a plain date", func(t *testing.T) {
		srv := &fakeSummarySrv{}
		handler := NewBookingAttemptHandler(srv)

		c, rec := newTestContext(http.MethodGet, "/bookings/attempts/summary?since=2026-10-01", "", testSession())
		handler.Summary(c)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), srv.since)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		handler := NewBookingAttemptHandler(&fakeSummarySrv{})

		c, rec := newTestContext(http.MethodGet, "/bookings/attempts/summary?since=yesterday", "", testSession())
		handler.Summary(c)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "expected RFC3339 or YYYY-MM-DD", decodeEnvelope(t, rec).Error.Fields["since"])
	})

	t.Run("audit disabled", func(t *testing.T) {
		handler := NewBookingAttemptHandler(&fakeSummarySrv{err: appErrors.Clone(appErrors.ErrNotFound, "booking audit is disabled")})

		c, rec := newTestContext(http.MethodGet, "/bookings/attempts/summary", "", testSession())
		handler.Summary(c)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
