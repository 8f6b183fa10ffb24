package models

import "time"

// AuditAction constants represent gateway actions to be logged.
const (
	AuditActionLogin               = "LOGIN"
	AuditActionLogout              = "LOGOUT"
	AuditActionBookingSubmit       = "BOOKING_SUBMIT"
	AuditActionAppointmentCancel   = "APPOINTMENT_CANCEL"
	AuditActionAppointmentFeedback = "APPOINTMENT_FEEDBACK"
)

// AuditLog is a gateway action trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Status     int       `db:"status" json:"status"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	LatencyMs  int64     `db:"latency_ms" json:"latency_ms"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// BookingAttempt records one submit and how the backend answered it.
type BookingAttempt struct {
	ID            string      `db:"id" json:"id"`
	UserID        string      `db:"user_id" json:"user_id"`
	WorkflowID    string      `db:"workflow_id" json:"workflow_id"`
	AgendaID      int64       `db:"agenda_id" json:"agenda_id"`
	SlotID        int64       `db:"slot_id" json:"slot_id"`
	Outcome       OutcomeKind `db:"outcome" json:"outcome"`
	Message       string      `db:"message" json:"message"`
	AppointmentID *int64      `db:"appointment_id" json:"appointment_id,omitempty"`
	LatencyMs     int64       `db:"latency_ms" json:"latency_ms"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}

// AttemptSummary counts booking attempts per outcome.
type AttemptSummary struct {
	Outcome OutcomeKind `db:"outcome" json:"outcome"`
	Count   int64       `db:"count" json:"count"`
}
