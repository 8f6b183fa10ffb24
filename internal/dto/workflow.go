package dto

import (
	"time"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
)

// Workflow actions listed in WorkflowView.AllowedActions.
const (
	ActionSelectAgenda = "select_agenda"
	ActionChangeAgenda = "change_agenda"
	ActionSetDate      = "set_date"
	ActionRefreshSlots = "refresh_slots"
	ActionSelectSlot   = "select_slot"
	ActionBack         = "back"
	ActionSubmit       = "submit"
)

// StartWorkflowRequest opens a booking workflow, optionally on a known agenda.
type StartWorkflowRequest struct {
	AgendaID int64 `json:"agenda_id" validate:"omitempty,gt=0"`
}

// SelectAgendaRequest chooses or changes the agenda.
type SelectAgendaRequest struct {
	AgendaID int64 `json:"agenda_id" validate:"required,gt=0"`
}

// SetDateRequest sets the single-day filter; an empty date clears it.
type SetDateRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// SelectSlotRequest holds the chosen slot and optional notes for the staff member.
type SelectSlotRequest struct {
	SlotID      int64  `json:"slot_id" validate:"required,gt=0"`
	TalentNotes string `json:"talent_notes"`
}

// SubmitBookingRequest confirms the booking. Notes replace those given at slot selection when set.
type SubmitBookingRequest struct {
	TalentNotes *string `json:"talent_notes"`
}

// WorkflowView is the client-facing snapshot of a booking workflow.
type WorkflowView struct {
	ID               string                `json:"id"`
	Step             models.WorkflowStep   `json:"step"`
	Agenda           *models.Agenda        `json:"agenda,omitempty"`
	Date             string                `json:"date,omitempty"`
	Slots            []models.CalendarSlot `json:"slots"`
	SlotsLoading     bool                  `json:"slots_loading"`
	SlotsUnavailable bool                  `json:"slots_unavailable"`
	SelectedSlot     *models.CalendarSlot  `json:"selected_slot,omitempty"`
	TalentNotes      string                `json:"talent_notes,omitempty"`
	Submitting       bool                  `json:"submitting"`
	LastError        *models.WorkflowError `json:"last_error,omitempty"`
	Appointment      *models.Appointment   `json:"appointment,omitempty"`
	AllowedActions   []string              `json:"allowed_actions"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	ExpiresAt        time.Time             `json:"expires_at"`
}

// NewWorkflowView copies session state. The caller holds the session lock.
func NewWorkflowView(s *models.WorkflowSession) *WorkflowView {
	view := &WorkflowView{
		ID:               s.ID,
		Step:             s.Step,
		Agenda:           s.Agenda,
		Date:             s.Date,
		Slots:            append([]models.CalendarSlot{}, s.Slots...),
		SlotsLoading:     s.Fetching,
		SlotsUnavailable: s.SlotsUnavailable,
		SelectedSlot:     s.Slot,
		TalentNotes:      s.Notes,
		Submitting:       s.Submitting,
		LastError:        s.LastError,
		Appointment:      s.Appointment,
		AllowedActions:   AllowedActions(s),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
		ExpiresAt:        s.ExpiresAt,
	}
	return view
}

// AllowedActions lists the transitions valid from the session's current state.
func AllowedActions(s *models.WorkflowSession) []string {
	if s.Submitting {
		return []string{}
	}
	switch s.Step {
	case models.StepSelectAgenda:
		return []string{ActionSelectAgenda}
	case models.StepChooseSlot:
		return []string{ActionChangeAgenda, ActionSetDate, ActionRefreshSlots, ActionSelectSlot, ActionBack}
	case models.StepConfirm:
		return []string{ActionBack, ActionSubmit}
	default:
		return []string{}
	}
}

// AttemptSummaryResponse reports booking attempts per outcome since a point in time.
type AttemptSummaryResponse struct {
	Since    time.Time               `json:"since"`
	Total    int64                   `json:"total"`
	Outcomes []models.AttemptSummary `json:"outcomes"`
}

// Document kinds that can be fetched through a signed download link.
const (
	LinkKindCalendar     = "calendar"
	LinkKindConfirmation = "confirmation"
)

// DownloadLinkRequest asks for a signed link to one of an appointment's documents.
type DownloadLinkRequest struct {
	Kind string `json:"kind" validate:"required,oneof=calendar confirmation"`
}

// DownloadLink is a bearer-free URL valid until ExpiresAt.
type DownloadLink struct {
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	ExpiresAt time.Time `json:"expires_at"`
}
