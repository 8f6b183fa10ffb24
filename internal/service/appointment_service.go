package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/export"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

const maxExportPages = 50

var appointmentCSVHeaders = []string{
	"id", "booking_reference", "status", "agenda", "staff", "date", "start_time", "end_time",
	"meeting_type", "location", "talent_notes", "booked_at",
}

type appointmentRepository interface {
	List(ctx context.Context, creds *upstream.Credentials, filter models.AppointmentFilter) ([]models.Appointment, *models.Pagination, error)
	Get(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Appointment, error)
	Cancel(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Appointment, error)
	UpdateFeedback(ctx context.Context, creds *upstream.Credentials, id int64, req models.FeedbackRequest) (*models.Appointment, error)
	Statistics(ctx context.Context, creds *upstream.Credentials, filter models.StatisticsFilter) (*models.AppointmentStatistics, error)
}

// AppointmentService exposes the talent's existing bookings and their documents.
type AppointmentService struct {
	repo      appointmentRepository
	validator *validator.Validate
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	ics       *export.ICSExporter
	location  *time.Location
	logger    *zap.Logger
}

// NewAppointmentService constructs the service. Slot dates and times are read in location.
func NewAppointmentService(repo appointmentRepository, validate *validator.Validate, location *time.Location, logger *zap.Logger) *AppointmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{
		repo:      repo,
		validator: validate,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		ics:       export.NewICSExporter(""),
		location:  location,
		logger:    logger,
	}
}

// List returns one page of the caller's appointments.
func (s *AppointmentService) List(ctx context.Context, creds *upstream.Credentials, filter models.AppointmentFilter) ([]models.Appointment, *models.Pagination, error) {
	if err := validateAppointmentFilter(filter); err != nil {
		return nil, nil, err
	}
	items, pagination, err := s.repo.List(ctx, creds, filter)
	if err != nil {
		return nil, nil, translateUpstream(err, "load appointments")
	}
	return items, pagination, nil
}

// Get returns one appointment.
func (s *AppointmentService) Get(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Appointment, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid appointment id")
	}
	appointment, err := s.repo.Get(ctx, creds, id)
	if err != nil {
		return nil, translateUpstream(err, "load appointment")
	}
	return appointment, nil
}

// Cancel cancels an appointment. Refusals such as a passed cancellation deadline come
// back as conflicts carrying the backend's message.
func (s *AppointmentService) Cancel(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Appointment, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid appointment id")
	}
	appointment, err := s.repo.Cancel(ctx, creds, id)
	if err != nil {
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" &&
			(apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusConflict) {
			return nil, wrapWithMessage(err, appErrors.ErrConflict, apiErr.Message)
		}
		return nil, translateUpstream(err, "cancel appointment")
	}
	s.logger.Info("appointment cancelled", zap.Int64("appointment_id", id))
	return appointment, nil
}

// SubmitFeedback rates a past appointment.
func (s *AppointmentService) SubmitFeedback(ctx context.Context, creds *upstream.Credentials, id int64, req models.FeedbackRequest) (*models.Appointment, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid appointment id")
	}
	req.Feedback = strings.TrimSpace(req.Feedback)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid feedback")
	}
	appointment, err := s.repo.UpdateFeedback(ctx, creds, id, req)
	if err != nil {
		return nil, translateUpstream(err, "submit feedback")
	}
	return appointment, nil
}

// Statistics returns the appointment aggregates visible to university staff and admins.
func (s *AppointmentService) Statistics(ctx context.Context, creds *upstream.Credentials, filter models.StatisticsFilter) (*models.AppointmentStatistics, error) {
	filter.StartDate = strings.TrimSpace(filter.StartDate)
	filter.EndDate = strings.TrimSpace(filter.EndDate)
	if filter.UniversityProfileID < 0 {
		return nil, appErrors.WithField(appErrors.Clone(appErrors.ErrValidation, "invalid university filter"), "university_profile_id", "must be positive")
	}
	if err := validateAppointmentFilter(models.AppointmentFilter{StartDate: filter.StartDate, EndDate: filter.EndDate}); err != nil {
		return nil, err
	}
	if filter.StartDate != "" && filter.EndDate != "" && filter.StartDate > filter.EndDate {
		return nil, appErrors.WithField(appErrors.Clone(appErrors.ErrValidation, "invalid date range"), "end_date", "must not be before start_date")
	}

	stats, err := s.repo.Statistics(ctx, creds, filter)
	if err != nil {
		return nil, translateUpstream(err, "load statistics")
	}
	return stats, nil
}

// ExportCSV renders every appointment matching filter, following backend pages.
func (s *AppointmentService) ExportCSV(ctx context.Context, creds *upstream.Credentials, filter models.AppointmentFilter) ([]byte, error) {
	if err := validateAppointmentFilter(filter); err != nil {
		return nil, err
	}

	var all []models.Appointment
	for page := 1; page <= maxExportPages; page++ {
		filter.Page = page
		items, pagination, err := s.repo.List(ctx, creds, filter)
		if err != nil {
			return nil, translateUpstream(err, "load appointments")
		}
		all = append(all, items...)
		if len(items) == 0 || pagination == nil || len(all) >= pagination.TotalCount {
			break
		}
	}

	rows := make([]map[string]string, 0, len(all))
	for _, a := range all {
		row := map[string]string{
			"id":                strconv.FormatInt(a.ID, 10),
			"booking_reference": a.BookingReference,
			"status":            string(a.Status),
			"talent_notes":      a.TalentNotes,
		}
		if a.BookedAt != nil {
			row["booked_at"] = a.BookedAt.UTC().Format(time.RFC3339)
		}
		if slot := a.CalendarSlot; slot != nil {
			row["agenda"] = slot.Agenda.Name
			row["staff"] = slot.Staff.Name
			row["date"] = slot.SlotDate
			row["start_time"] = slot.StartTime
			row["end_time"] = slot.EndTime
			row["meeting_type"] = string(slot.MeetingType)
			row["location"] = firstNonBlank(slot.Location, slot.MeetingLink)
		}
		rows = append(rows, row)
	}

	data, err := s.csv.Render(export.Dataset{Headers: appointmentCSVHeaders, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

// ConfirmationPDF renders a one-page booking confirmation for an appointment.
func (s *AppointmentService) ConfirmationPDF(ctx context.Context, creds *upstream.Credentials, id int64) ([]byte, error) {
	appointment, err := s.Get(ctx, creds, id)
	if err != nil {
		return nil, err
	}

	slip := export.Slip{
		Title:    "Appointment confirmation",
		Subtitle: "Reference " + firstNonBlank(appointment.BookingReference, "#"+strconv.FormatInt(appointment.ID, 10)),
		Lines: []export.SlipLine{
			{Label: "Status", Value: string(appointment.Status)},
		},
		Footer: "Cancellations are subject to the agenda's cancellation deadline.",
	}
	if slot := appointment.CalendarSlot; slot != nil {
		slip.Lines = append(slip.Lines,
			export.SlipLine{Label: "Agenda", Value: slot.Agenda.Name},
			export.SlipLine{Label: "Advisor", Value: slot.Staff.Name},
			export.SlipLine{Label: "Date", Value: slot.SlotDate},
			export.SlipLine{Label: "Time", Value: strings.TrimSpace(slot.StartTime + " - " + slot.EndTime)},
			export.SlipLine{Label: "Format", Value: string(slot.MeetingType)},
			export.SlipLine{Label: "Where", Value: firstNonBlank(slot.Location, slot.MeetingLink)},
		)
	}
	if appointment.TalentNotes != "" {
		slip.Lines = append(slip.Lines, export.SlipLine{Label: "Notes", Value: appointment.TalentNotes})
	}

	data, err := s.pdf.RenderSlip(slip)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render confirmation")
	}
	return data, nil
}

// CalendarICS renders the appointment as a single-event iCalendar file.
func (s *AppointmentService) CalendarICS(ctx context.Context, creds *upstream.Credentials, id int64) ([]byte, error) {
	appointment, err := s.Get(ctx, creds, id)
	if err != nil {
		return nil, err
	}
	slot := appointment.CalendarSlot
	if slot == nil || slot.SlotDate == "" {
		return nil, appErrors.Clone(appErrors.ErrConflict, "appointment has no scheduled time")
	}
	start, end, err := slot.Window(s.location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "appointment time is malformed")
	}

	summary := "Career appointment"
	if slot.Agenda.Name != "" {
		summary = slot.Agenda.Name
	}
	description := ""
	if slot.Staff.Name != "" {
		description = "With " + slot.Staff.Name
	}
	if appointment.TalentNotes != "" {
		description = strings.TrimSpace(description + "\n" + appointment.TalentNotes)
	}

	data, err := s.ics.Render(export.CalendarEntry{
		UID:         fmt.Sprintf("appointment-%d@booking-gateway", appointment.ID),
		Summary:     summary,
		Description: description,
		Location:    slot.Location,
		URL:         slot.MeetingLink,
		Start:       start,
		End:         end,
		Cancelled:   appointment.Status == models.AppointmentCancelled,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar entry")
	}
	return data, nil
}

func validateAppointmentFilter(filter models.AppointmentFilter) error {
	for field, value := range map[string]string{"start_date": filter.StartDate, "end_date": filter.EndDate} {
		if value == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, value); err != nil {
			return appErrors.WithField(appErrors.Clone(appErrors.ErrValidation, "invalid date filter"), field, "expected YYYY-MM-DD")
		}
	}
	switch models.AppointmentStatus(filter.Status) {
	case "", models.AppointmentPending, models.AppointmentConfirmed, models.AppointmentCancelled,
		models.AppointmentCompleted, models.AppointmentNoShow:
		return nil
	}
	return appErrors.WithField(appErrors.Clone(appErrors.ErrValidation, "invalid status filter"), "status", "unknown status")
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
