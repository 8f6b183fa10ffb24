package models

import (
	"sync"
	"time"
)

// WorkflowStep is a state of the booking workflow.
type WorkflowStep string

const (
	StepSelectAgenda WorkflowStep = "select_agenda"
	StepChooseSlot   WorkflowStep = "choose_slot"
	StepConfirm      WorkflowStep = "confirm"
	StepBooked       WorkflowStep = "booked"
)

// WorkflowError is the last user-facing failure recorded on a session.
type WorkflowError struct {
	Kind     OutcomeKind  `json:"kind"`
	Message  string       `json:"message"`
	Field    string       `json:"field,omitempty"`
	Recovery WorkflowStep `json:"recovery,omitempty"`
}

// WorkflowSession holds one talent's in-progress booking. Callers hold the
// embedded mutex while reading or mutating any field.
type WorkflowSession struct {
	sync.Mutex

	ID            string
	OwnerID       string
	AuthSessionID string

	Step             WorkflowStep
	Agenda           *Agenda
	Date             string
	Slots            []CalendarSlot
	SlotsUnavailable bool
	Slot             *CalendarSlot
	Notes            string
	LastError        *WorkflowError
	Appointment      *Appointment

	// FetchSeq is the sequence of the newest slot fetch issued; FetchKey its parameters.
	FetchSeq   uint64
	FetchKey   string
	Fetching   bool
	Submitting bool

	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// SlotQuery returns the fetch parameters implied by the current selection.
func (s *WorkflowSession) SlotQuery() SlotQuery {
	q := SlotQuery{Date: s.Date}
	if s.Agenda != nil {
		q.AgendaID = s.Agenda.ID
	}
	return q
}

// Touch extends the idle deadline.
func (s *WorkflowSession) Touch(now time.Time, ttl time.Duration) {
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)
}
