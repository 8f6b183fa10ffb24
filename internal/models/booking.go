package models

// BookingRequest is the create-booking payload sent to the backend.
type BookingRequest struct {
	CalendarSlotID int64  `json:"calendar_slot_id" validate:"required,gt=0"`
	TalentNotes    string `json:"talent_notes,omitempty"`
}

// OutcomeKind classifies the result of a booking submit.
type OutcomeKind string

const (
	OutcomeBooked       OutcomeKind = "booked"
	OutcomeConflict     OutcomeKind = "conflict"
	OutcomeValidation   OutcomeKind = "validation"
	OutcomeRejected     OutcomeKind = "rejected"
	OutcomeUnauthorized OutcomeKind = "unauthorized"
	OutcomeFailure      OutcomeKind = "failure"
)

// GenericBookingFailure is shown when the backend gives nothing more specific.
const GenericBookingFailure = "Booking failed"

// BookingOutcome is the interpreted response of a submit. Only OutcomeBooked carries an appointment.
type BookingOutcome struct {
	Kind        OutcomeKind  `json:"kind"`
	Message     string       `json:"message,omitempty"`
	Field       string       `json:"field,omitempty"`
	Status      int          `json:"-"`
	Appointment *Appointment `json:"appointment,omitempty"`
}

// Succeeded reports whether the booking was created.
func (o BookingOutcome) Succeeded() bool {
	return o.Kind == OutcomeBooked && o.Appointment != nil
}
