package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

type fakeBookingRepo struct {
	appointment *models.Appointment
	err         error
	calls       int
}

func (f *fakeBookingRepo) Book(ctx context.Context, creds *upstream.Credentials, req models.BookingRequest) (*models.Appointment, error) {
	f.calls++
	return f.appointment, f.err
}

func TestClassifyBookingError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    models.OutcomeKind
		message string
		field   string
	}{
		{
			name:    "explicit error key is a conflict",
			err:     &upstream.APIError{Status: http.StatusBadRequest, Message: "Slot is fully booked", MessageKey: "error"},
			kind:    models.OutcomeConflict,
			message: "Slot is fully booked",
		},
		{
			name:    "error key wins over field errors",
			err:     &upstream.APIError{Status: http.StatusBadRequest, Message: "Booking deadline has passed", MessageKey: "error", Fields: map[string][]string{"talent_notes": {"too long"}}},
			kind:    models.OutcomeConflict,
			message: "Booking deadline has passed",
		},
		{
			name:    "calendar slot field is a conflict",
			err:     &upstream.APIError{Status: http.StatusBadRequest, Fields: map[string][]string{"calendar_slot_id": {"Invalid pk \"9\" - object does not exist."}}},
			kind:    models.OutcomeConflict,
			message: "Invalid pk \"9\" - object does not exist.",
			field:   "calendar_slot_id",
		},
		{
			name:    "notes field is a validation error",
			err:     &upstream.APIError{Status: http.StatusBadRequest, Fields: map[string][]string{"talent_notes": {"Ensure this field has no more than 1000 characters."}}},
			kind:    models.OutcomeValidation,
			message: "Ensure this field has no more than 1000 characters.",
			field:   "talent_notes",
		},
		{
			name:    "detail on conflict status",
			err:     &upstream.APIError{Status: http.StatusConflict, Message: "You already booked this slot", MessageKey: "detail"},
			kind:    models.OutcomeConflict,
			message: "You already booked this slot",
		},
		{
			name:    "non field errors",
			err:     &upstream.APIError{Status: http.StatusBadRequest, Message: "Slot is in the past", MessageKey: "non_field_errors"},
			kind:    models.OutcomeConflict,
			message: "Slot is in the past",
		},
		{
			name:    "bare conflict",
			err:     &upstream.APIError{Status: http.StatusConflict},
			kind:    models.OutcomeConflict,
			message: slotTakenMessage,
		},
		{
			name:    "forbidden keeps backend message",
			err:     &upstream.APIError{Status: http.StatusForbidden, Message: "Only talents can book appointments", MessageKey: "error"},
			kind:    models.OutcomeRejected,
			message: "Only talents can book appointments",
		},
		{
			name:    "forbidden without message",
			err:     &upstream.APIError{Status: http.StatusForbidden},
			kind:    models.OutcomeRejected,
			message: "You are not allowed to book this slot",
		},
		{
			name:    "unauthorized",
			err:     &upstream.APIError{Status: http.StatusUnauthorized},
			kind:    models.OutcomeUnauthorized,
			message: reauthMessage,
		},
		{
			name:    "refresh failed",
			err:     upstream.ErrReauthRequired,
			kind:    models.OutcomeUnauthorized,
			message: reauthMessage,
		},
		{
			name:    "server error hides body",
			err:     &upstream.APIError{Status: http.StatusInternalServerError, Message: "Traceback ..."},
			kind:    models.OutcomeFailure,
			message: models.GenericBookingFailure,
		},
		{
			name:    "transport failure",
			err:     &upstream.TransportError{Op: "appointments.book", Err: errors.New("connection reset")},
			kind:    models.OutcomeFailure,
			message: models.GenericBookingFailure,
		},
		{
			name:    "unknown field only error",
			err:     &upstream.APIError{Status: http.StatusBadRequest, Fields: map[string][]string{"foo": {"bar"}}},
			kind:    models.OutcomeFailure,
			message: models.GenericBookingFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := ClassifyBookingError(tt.err)
			assert.Equal(t, tt.kind, outcome.Kind)
			assert.Equal(t, tt.message, outcome.Message)
			assert.Equal(t, tt.field, outcome.Field)
			assert.False(t, outcome.Succeeded())
		})
	}
}

func TestBookingServiceSubmitSuccess(t *testing.T) {
	repo := &fakeBookingRepo{appointment: &models.Appointment{ID: 12, Status: models.AppointmentConfirmed}}
	svc := NewBookingService(repo, nil, nil, nil, 0)

	outcome, err := svc.Submit(context.Background(), nil, models.BookingRequest{CalendarSlotID: 4, TalentNotes: "hello"})
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, http.StatusCreated, outcome.Status)
	require.NotNil(t, outcome.Appointment)
	assert.EqualValues(t, 12, outcome.Appointment.ID)
}

func TestBookingServiceValidatesLocally(t *testing.T) {
	repo := &fakeBookingRepo{}
	svc := NewBookingService(repo, nil, nil, nil, 10)

	outcome, err := svc.Submit(context.Background(), nil, models.BookingRequest{CalendarSlotID: 0})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeValidation, outcome.Kind)
	assert.Equal(t, "calendar_slot_id", outcome.Field)

	outcome, err = svc.Submit(context.Background(), nil, models.BookingRequest{CalendarSlotID: 1, TalentNotes: strings.Repeat("x", 11)})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeValidation, outcome.Kind)
	assert.Equal(t, "talent_notes", outcome.Field)

	assert.Zero(t, repo.calls)
}

func TestBookingServiceClassifiesBackendRefusal(t *testing.T) {
	repo := &fakeBookingRepo{err: &upstream.APIError{Status: http.StatusBadRequest, Message: "Slot is fully booked", MessageKey: "error"}}
	svc := NewBookingService(repo, nil, NewMetricsService(), nil, 0)

	outcome, err := svc.Submit(context.Background(), nil, models.BookingRequest{CalendarSlotID: 1})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeConflict, outcome.Kind)
	assert.Equal(t, "Slot is fully booked", outcome.Message)
	assert.Equal(t, 1, repo.calls)
}

func TestBookingServiceWithoutRepository(t *testing.T) {
	svc := NewBookingService(nil, nil, nil, nil, 0)
	_, err := svc.Submit(context.Background(), nil, models.BookingRequest{CalendarSlotID: 1})
	assert.Error(t, err)
}
