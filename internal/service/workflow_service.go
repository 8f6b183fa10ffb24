package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/dto"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

type agendaReader interface {
	GetAgenda(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Agenda, error)
}

type slotFetcher interface {
	Fetch(ctx context.Context, creds *upstream.Credentials, q models.SlotQuery) ([]models.CalendarSlot, error)
}

type bookingSubmitter interface {
	Submit(ctx context.Context, creds *upstream.Credentials, req models.BookingRequest) (models.BookingOutcome, error)
}

type workflowStore interface {
	Save(session *models.WorkflowSession)
	Get(id string) (*models.WorkflowSession, error)
	Delete(id string) bool
}

type sessionInvalidator interface {
	Invalidate(sessionID string)
}

type attemptRecorder interface {
	RecordAttempt(attempt models.BookingAttempt)
}

// WorkflowServiceParams groups constructor dependencies.
type WorkflowServiceParams struct {
	Agendas    agendaReader
	Slots      slotFetcher
	Booking    bookingSubmitter
	Store      workflowStore
	Sessions   sessionInvalidator
	Audit      attemptRecorder
	Metrics    *MetricsService
	Logger     *zap.Logger
	SessionTTL time.Duration
}

// WorkflowService runs the booking workflow:
// select_agenda -> choose_slot -> confirm -> booked.
//
// Session state is only touched under the session lock, and the lock is never held
// across a backend call. Slot fetches are last-request-wins: each carries a sequence
// number and the selection it was issued for, and a result is applied only while both
// are still current.
type WorkflowService struct {
	agendas  agendaReader
	slots    slotFetcher
	booking  bookingSubmitter
	store    workflowStore
	sessions sessionInvalidator
	audit    attemptRecorder
	metrics  *MetricsService
	logger   *zap.Logger
	ttl      time.Duration
	now      func() time.Time
}

// NewWorkflowService constructs the service.
func NewWorkflowService(params WorkflowServiceParams) *WorkflowService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.SessionTTL <= 0 {
		params.SessionTTL = 30 * time.Minute
	}
	return &WorkflowService{
		agendas:  params.Agendas,
		slots:    params.Slots,
		booking:  params.Booking,
		store:    params.Store,
		sessions: params.Sessions,
		audit:    params.Audit,
		metrics:  params.Metrics,
		logger:   params.Logger,
		ttl:      params.SessionTTL,
		now:      time.Now,
	}
}

type pendingFetch struct {
	seq   uint64
	query models.SlotQuery
}

// Start opens a workflow in select_agenda. A positive agendaID selects that agenda
// straight away; if it cannot be loaded the workflow stays in select_agenda with the error.
func (s *WorkflowService) Start(ctx context.Context, auth *models.AuthSession, agendaID int64) (*dto.WorkflowView, error) {
	now := s.now().UTC()
	session := &models.WorkflowSession{
		ID:            uuid.NewString(),
		OwnerID:       auth.UserID,
		AuthSessionID: auth.ID,
		Step:          models.StepSelectAgenda,
		CreatedAt:     now,
	}
	session.Touch(now, s.ttl)
	s.store.Save(session)
	s.logger.Debug("workflow started", zap.String("workflow_id", session.ID), zap.String("user_id", auth.UserID))

	if agendaID <= 0 {
		return s.snapshot(session), nil
	}

	view, err := s.SelectAgenda(ctx, auth, session.ID, agendaID)
	if err == nil || needsReauth(err) {
		return view, err
	}
	lastErr := &models.WorkflowError{
		Kind:     models.OutcomeFailure,
		Message:  appErrors.FromError(err).Message,
		Recovery: models.StepSelectAgenda,
	}
	if errors.Is(err, appErrors.ErrNotFound) || errors.Is(err, appErrors.ErrValidation) {
		lastErr.Kind, lastErr.Field = models.OutcomeValidation, "agenda_id"
	}
	session.Lock()
	session.LastError = lastErr
	session.Unlock()
	return s.snapshot(session), nil
}

// Get returns the current view of a workflow.
func (s *WorkflowService) Get(_ context.Context, auth *models.AuthSession, id string) (*dto.WorkflowView, error) {
	session, err := s.acquire(auth, id)
	if err != nil {
		return nil, err
	}
	defer session.Unlock()
	return dto.NewWorkflowView(session), nil
}

// SelectAgenda fixes the agenda and moves to choose_slot, discarding any slot, date,
// notes and error chosen under a previous agenda. Allowed from select_agenda and choose_slot.
func (s *WorkflowService) SelectAgenda(ctx context.Context, auth *models.AuthSession, id string, agendaID int64) (*dto.WorkflowView, error) {
	if agendaID <= 0 {
		return nil, appErrors.WithField(appErrors.Clone(appErrors.ErrValidation, "invalid agenda"), "agenda_id", "must be positive")
	}
	session, err := s.acquire(auth, id)
	if err != nil {
		return nil, err
	}
	err = s.guard(session, models.StepSelectAgenda, models.StepChooseSlot)
	session.Unlock()
	if err != nil {
		return nil, err
	}

	agenda, err := s.agendas.GetAgenda(ctx, auth.Credentials, agendaID)
	if err != nil {
		return nil, s.upstreamFailure(auth, err)
	}

	session, err = s.acquire(auth, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard(session, models.StepSelectAgenda, models.StepChooseSlot); err != nil {
		session.Unlock()
		return nil, err
	}
	s.clearSelection(session)
	session.Agenda = agenda
	session.Step = models.StepChooseSlot
	pending := s.beginFetch(session)
	session.Unlock()

	return s.fetchAndApply(ctx, auth, session, pending)
}

// ChangeAgenda returns from choose_slot to select_agenda.
func (s *WorkflowService) ChangeAgenda(ctx context.Context, auth *models.AuthSession, id string) (*dto.WorkflowView, error) {
	session, err := s.acquire(auth, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard(session, models.StepChooseSlot); err != nil {
		session.Unlock()
		return nil, err
	}
	session.Unlock()
	return s.Back(ctx, auth, id)
}

// SetDate changes the single-day filter and re-fetches. An empty date shows every day.
func (s *WorkflowService) SetDate(ctx context.Context, auth *models.AuthSession, id, date string) (*dto.WorkflowView, error) {
	date = strings.TrimSpace(date)
	if date != "" {
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			return nil, appErrors.WithField(appErrors.Clone(appErrors.ErrValidation, "invalid date filter"), "date", "expected YYYY-MM-DD")
		}
	}

	session, err := s.acquire(auth, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard(session, models.StepChooseSlot); err != nil {
		session.Unlock()
		return nil, err
	}
	session.Date = date
	session.Slot = nil
	session.LastError = nil
	pending := s.beginFetch(session)
	session.Unlock()

	return s.fetchAndApply(ctx, auth, session, pending)
}

// RefreshSlots re-queries availability for the current selection.
func (s *WorkflowService) RefreshSlots(ctx context.Context, auth *models.AuthSession, id string) (*dto.WorkflowView, error) {
	session, err := s.acquire(auth, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard(session, models.StepChooseSlot); err != nil {
		session.Unlock()
		return nil, err
	}
	session.LastError = nil
	pending := s.beginFetch(session)
	session.Unlock()

	return s.fetchAndApply(ctx, auth, session, pending)
}

// SelectSlot holds a slot from the current actionable list and moves to confirm.
// Nothing is reserved on the backend.
func (s *WorkflowService) SelectSlot(_ context.Context, auth *models.AuthSession, id string, slotID int64, notes string) (*dto.WorkflowView, error) {
	session, err := s.acquire(auth, id)
	if err != nil {
		return nil, err
	}
	defer session.Unlock()
	if err := s.guard(session, models.StepChooseSlot); err != nil {
		return nil, err
	}

	var chosen *models.CalendarSlot
	for i := range session.Slots {
		if session.Slots[i].ID == slotID {
			slot := session.Slots[i]
			chosen = &slot
			break
		}
	}
	if chosen == nil {
		return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "slot is not in the list of available slots")
	}

	session.Slot = chosen
	session.Notes = strings.TrimSpace(notes)
	session.LastError = nil
	session.Step = models.StepConfirm
	session.Touch(s.now().UTC(), s.ttl)
	return dto.NewWorkflowView(session), nil
}

// Back goes confirm -> choose_slot (re-fetching slots) or choose_slot -> select_agenda.
func (s *WorkflowService) Back(ctx context.Context, auth *models.AuthSession, id string) (*dto.WorkflowView, error) {
	session, err := s.acquire(auth, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard(session, models.StepChooseSlot, models.StepConfirm); err != nil {
		session.Unlock()
		return nil, err
	}

	if session.Step == models.StepChooseSlot {
		s.clearSelection(session)
		session.Step = models.StepSelectAgenda
		session.Touch(s.now().UTC(), s.ttl)
		view := dto.NewWorkflowView(session)
		session.Unlock()
		return view, nil
	}

	session.Slot = nil
	session.Notes = ""
	session.LastError = nil
	session.Step = models.StepChooseSlot
	pending := s.beginFetch(session)
	session.Unlock()

	return s.fetchAndApply(ctx, auth, session, pending)
}

// Submit books the held slot. Only one submit runs per workflow; a booked workflow
// is terminal. Conflicts and failures keep the workflow in confirm with last_error set.
func (s *WorkflowService) Submit(ctx context.Context, auth *models.AuthSession, id string, notes *string) (*dto.WorkflowView, error) {
	session, err := s.acquire(auth, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard(session, models.StepConfirm); err != nil {
		session.Unlock()
		return nil, err
	}
	if session.Slot == nil || session.Agenda == nil {
		session.Unlock()
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "no slot selected")
	}
	submittedNotes := session.Notes
	if notes != nil {
		submittedNotes = strings.TrimSpace(*notes)
	}
	req := models.BookingRequest{CalendarSlotID: session.Slot.ID, TalentNotes: submittedNotes}
	agendaID := session.Agenda.ID
	session.Submitting = true
	session.LastError = nil
	session.Unlock()

	// The outcome is applied even when the caller disconnects mid-request.
	start := time.Now()
	outcome, err := s.booking.Submit(context.WithoutCancel(ctx), auth.Credentials, req)
	latency := time.Since(start)

	session.Lock()
	session.Submitting = false
	if err != nil {
		session.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit booking")
	}
	s.recordAttempt(auth, session.ID, agendaID, req.CalendarSlotID, outcome, latency)

	if outcome.Kind == models.OutcomeUnauthorized {
		session.Unlock()
		s.sessions.Invalidate(auth.ID)
		return nil, appErrors.Clone(appErrors.ErrReauthRequired, outcome.Message)
	}
	// notes the backend refused are not kept
	if outcome.Kind != models.OutcomeValidation {
		session.Notes = submittedNotes
	}
	s.applyOutcome(session, outcome)
	session.Touch(s.now().UTC(), s.ttl)
	view := dto.NewWorkflowView(session)
	session.Unlock()

	s.logger.Info("booking submitted",
		zap.String("workflow_id", id),
		zap.String("user_id", auth.UserID),
		zap.Int64("calendar_slot_id", req.CalendarSlotID),
		zap.String("outcome", string(outcome.Kind)),
		zap.Duration("latency", latency))
	return view, nil
}

// Abandon discards the workflow. No backend state exists to release.
func (s *WorkflowService) Abandon(_ context.Context, auth *models.AuthSession, id string) error {
	session, err := s.acquire(auth, id)
	if err != nil {
		return err
	}
	submitting := session.Submitting
	session.Unlock()
	if submitting {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "a booking submission is in progress")
	}
	s.store.Delete(id)
	return nil
}

func (s *WorkflowService) applyOutcome(session *models.WorkflowSession, outcome models.BookingOutcome) {
	switch outcome.Kind {
	case models.OutcomeBooked:
		session.Step = models.StepBooked
		session.Appointment = outcome.Appointment
		session.LastError = nil
	case models.OutcomeConflict:
		session.LastError = &models.WorkflowError{Kind: outcome.Kind, Message: outcome.Message, Field: outcome.Field, Recovery: models.StepChooseSlot}
	case models.OutcomeValidation:
		session.LastError = &models.WorkflowError{Kind: outcome.Kind, Message: outcome.Message, Field: outcome.Field, Recovery: models.StepConfirm}
	case models.OutcomeRejected:
		session.LastError = &models.WorkflowError{Kind: outcome.Kind, Message: outcome.Message}
	default:
		message := outcome.Message
		if message == "" {
			message = models.GenericBookingFailure
		}
		session.LastError = &models.WorkflowError{Kind: models.OutcomeFailure, Message: message, Recovery: models.StepConfirm}
	}
}

// acquire returns the caller's session locked. Other talents' and expired sessions are not found.
func (s *WorkflowService) acquire(auth *models.AuthSession, id string) (*models.WorkflowSession, error) {
	notFound := appErrors.Clone(appErrors.ErrNotFound, "workflow not found")
	if auth == nil {
		return nil, appErrors.ErrUnauthorized
	}
	session, err := s.store.Get(id)
	if err != nil {
		return nil, notFound
	}
	session.Lock()
	if session.OwnerID != auth.UserID {
		session.Unlock()
		return nil, notFound
	}
	if !s.now().Before(session.ExpiresAt) && !session.Submitting {
		session.Unlock()
		s.store.Delete(id)
		return nil, notFound
	}
	return session, nil
}

func (s *WorkflowService) guard(session *models.WorkflowSession, allowed ...models.WorkflowStep) error {
	if session.Submitting {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "a booking submission is in progress")
	}
	if session.Step == models.StepBooked {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "the appointment is already booked")
	}
	for _, step := range allowed {
		if session.Step == step {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("action not allowed in step %s", session.Step))
}

// clearSelection resets everything downstream of the agenda and voids in-flight fetches.
func (s *WorkflowService) clearSelection(session *models.WorkflowSession) {
	session.Agenda = nil
	session.Date = ""
	session.Slots = nil
	session.SlotsUnavailable = false
	session.Slot = nil
	session.Notes = ""
	session.LastError = nil
	session.FetchSeq++
	session.FetchKey = ""
	session.Fetching = false
}

// beginFetch issues a new fetch for the current selection. Slots listed for a
// different selection are dropped immediately. The caller holds the lock.
func (s *WorkflowService) beginFetch(session *models.WorkflowSession) pendingFetch {
	q := session.SlotQuery()
	if key := q.Key(); key != session.FetchKey {
		session.Slots = nil
		session.SlotsUnavailable = false
		session.FetchKey = key
	}
	session.FetchSeq++
	session.Fetching = true
	session.Touch(s.now().UTC(), s.ttl)
	return pendingFetch{seq: session.FetchSeq, query: q}
}

// fetchAndApply runs a fetch without the lock and applies it if it is still the latest.
// A failed fetch degrades to an empty list unless the talent must sign in again.
func (s *WorkflowService) fetchAndApply(ctx context.Context, auth *models.AuthSession, session *models.WorkflowSession, pending pendingFetch) (*dto.WorkflowView, error) {
	slots, err := s.slots.Fetch(ctx, auth.Credentials, pending.query)
	if err != nil && needsReauth(err) {
		return nil, s.upstreamFailure(auth, err)
	}

	session.Lock()
	defer session.Unlock()

	if pending.seq != session.FetchSeq || pending.query.Key() != session.SlotQuery().Key() {
		s.metrics.RecordSlotFetch(SlotFetchStale)
		s.logger.Debug("discarding stale slot response", zap.String("workflow_id", session.ID), zap.Uint64("seq", pending.seq))
		return dto.NewWorkflowView(session), nil
	}

	session.Fetching = false
	if err != nil {
		s.logger.Warn("slot availability unavailable", zap.String("workflow_id", session.ID), zap.Int64("agenda_id", pending.query.AgendaID), zap.Error(err))
		session.Slots = []models.CalendarSlot{}
		session.SlotsUnavailable = true
		s.metrics.RecordSlotFetch(SlotFetchUnavailable)
	} else {
		session.Slots = slots
		session.SlotsUnavailable = false
		s.metrics.RecordSlotFetch(SlotFetchApplied)
	}
	session.Touch(s.now().UTC(), s.ttl)
	return dto.NewWorkflowView(session), nil
}

func (s *WorkflowService) upstreamFailure(auth *models.AuthSession, err error) error {
	if needsReauth(err) {
		s.sessions.Invalidate(auth.ID)
		return appErrors.ErrReauthRequired
	}
	return translateUpstream(err, "load agenda")
}

func (s *WorkflowService) recordAttempt(auth *models.AuthSession, workflowID string, agendaID, slotID int64, outcome models.BookingOutcome, latency time.Duration) {
	if s.audit == nil {
		return
	}
	attempt := models.BookingAttempt{
		UserID:     auth.UserID,
		WorkflowID: workflowID,
		AgendaID:   agendaID,
		SlotID:     slotID,
		Outcome:    outcome.Kind,
		Message:    outcome.Message,
		LatencyMs:  latency.Milliseconds(),
	}
	if outcome.Appointment != nil {
		id := outcome.Appointment.ID
		attempt.AppointmentID = &id
	}
	s.audit.RecordAttempt(attempt)
}

func (s *WorkflowService) snapshot(session *models.WorkflowSession) *dto.WorkflowView {
	session.Lock()
	defer session.Unlock()
	return dto.NewWorkflowView(session)
}
