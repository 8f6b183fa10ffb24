package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

const (
	fieldCalendarSlot = "calendar_slot_id"
	fieldTalentNotes  = "talent_notes"

	defaultNotesMaxLength = 1000
	slotTakenMessage      = "This slot is no longer available"
	reauthMessage         = "Your session has expired. Please sign in again."
)

type bookingRepository interface {
	Book(ctx context.Context, creds *upstream.Credentials, req models.BookingRequest) (*models.Appointment, error)
}

// BookingService issues create-booking requests and interprets the answer.
type BookingService struct {
	repo      bookingRepository
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	notesMax  int
}

// NewBookingService constructs the service. notesMax bounds talent_notes in characters.
func NewBookingService(repo bookingRepository, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, notesMax int) *BookingService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notesMax <= 0 {
		notesMax = defaultNotesMaxLength
	}
	return &BookingService{repo: repo, validator: validate, metrics: metrics, logger: logger, notesMax: notesMax}
}

// Submit books the slot once. A slot taken by someone else is an outcome, not an error;
// the returned error is reserved for a missing repository.
func (s *BookingService) Submit(ctx context.Context, creds *upstream.Credentials, req models.BookingRequest) (models.BookingOutcome, error) {
	if s.repo == nil {
		return models.BookingOutcome{}, errors.New("booking repository is not configured")
	}
	if outcome, ok := s.validate(req); !ok {
		s.metrics.RecordBookingOutcome(outcome.Kind)
		return outcome, nil
	}

	appointment, err := s.repo.Book(ctx, creds, req)
	var outcome models.BookingOutcome
	if err != nil {
		outcome = ClassifyBookingError(err)
		s.logger.Info("booking not created",
			zap.Int64("calendar_slot_id", req.CalendarSlotID),
			zap.String("outcome", string(outcome.Kind)),
			zap.Int("status", outcome.Status),
			zap.Error(err))
	} else {
		outcome = models.BookingOutcome{Kind: models.OutcomeBooked, Status: http.StatusCreated, Appointment: appointment}
	}
	s.metrics.RecordBookingOutcome(outcome.Kind)
	return outcome, nil
}

func (s *BookingService) validate(req models.BookingRequest) (models.BookingOutcome, bool) {
	if err := s.validator.Struct(req); err != nil {
		return models.BookingOutcome{Kind: models.OutcomeValidation, Field: fieldCalendarSlot, Message: "A slot must be selected"}, false
	}
	if err := s.validator.Var(req.TalentNotes, fmt.Sprintf("max=%d", s.notesMax)); err != nil {
		return models.BookingOutcome{
			Kind:    models.OutcomeValidation,
			Field:   fieldTalentNotes,
			Message: fmt.Sprintf("Ensure this field has no more than %d characters.", s.notesMax),
		}, false
	}
	return models.BookingOutcome{}, true
}

// ClassifyBookingError turns a failed create-booking call into an outcome.
// Conflict messages are taken from error, then calendar_slot_id, then detail or
// non_field_errors, and surfaced verbatim.
func ClassifyBookingError(err error) models.BookingOutcome {
	if needsReauth(err) {
		return models.BookingOutcome{Kind: models.OutcomeUnauthorized, Status: http.StatusUnauthorized, Message: reauthMessage}
	}

	var apiErr *upstream.APIError
	if !errors.As(err, &apiErr) {
		return models.BookingOutcome{Kind: models.OutcomeFailure, Message: models.GenericBookingFailure}
	}

	outcome := models.BookingOutcome{Status: apiErr.Status}
	switch {
	case apiErr.Status == http.StatusUnauthorized:
		outcome.Kind, outcome.Message = models.OutcomeUnauthorized, reauthMessage
	case apiErr.Status == http.StatusForbidden:
		outcome.Kind, outcome.Message = models.OutcomeRejected, apiErr.Message
		if outcome.Message == "" {
			outcome.Message = "You are not allowed to book this slot"
		}
	case apiErr.Status >= http.StatusInternalServerError:
		outcome.Kind, outcome.Message = models.OutcomeFailure, models.GenericBookingFailure
	case apiErr.MessageKey == "error" && conflictStatus(apiErr.Status):
		outcome.Kind, outcome.Message = models.OutcomeConflict, apiErr.Message
	case apiErr.FieldMessage(fieldCalendarSlot) != "":
		outcome.Kind, outcome.Message, outcome.Field = models.OutcomeConflict, apiErr.FieldMessage(fieldCalendarSlot), fieldCalendarSlot
	case apiErr.FieldMessage(fieldTalentNotes) != "":
		outcome.Kind, outcome.Message, outcome.Field = models.OutcomeValidation, apiErr.FieldMessage(fieldTalentNotes), fieldTalentNotes
	case apiErr.Message != "" && conflictStatus(apiErr.Status):
		outcome.Kind, outcome.Message = models.OutcomeConflict, apiErr.Message
	case apiErr.Status == http.StatusConflict:
		outcome.Kind, outcome.Message = models.OutcomeConflict, slotTakenMessage
	default:
		outcome.Kind, outcome.Message = models.OutcomeFailure, models.GenericBookingFailure
	}
	return outcome
}

func conflictStatus(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusGone, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
