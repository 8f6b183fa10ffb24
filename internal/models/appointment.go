package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// AppointmentStatus is the lifecycle of a booking.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

// Appointment binds one talent to one calendar slot.
type Appointment struct {
	ID               int64             `json:"id"`
	CalendarSlot     *CalendarSlot     `json:"calendar_slot,omitempty"`
	Talent           Ref               `json:"talent"`
	BookingReference string            `json:"booking_reference,omitempty"`
	Status           AppointmentStatus `json:"status"`
	TalentNotes      string            `json:"talent_notes,omitempty"`
	StaffNotes       string            `json:"staff_notes,omitempty"`
	Rating           *int              `json:"rating,omitempty"`
	Feedback         string            `json:"feedback,omitempty"`
	BookedAt         *time.Time        `json:"booked_at,omitempty"`
	CancelledAt      *time.Time        `json:"cancelled_at,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}

// UnmarshalJSON accepts calendar_slot either nested or as a bare id.
func (a *Appointment) UnmarshalJSON(data []byte) error {
	type alias Appointment
	aux := struct {
		*alias
		CalendarSlot json.RawMessage `json:"calendar_slot"`
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.CalendarSlot)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		a.CalendarSlot = nil
		return nil
	}
	if raw[0] == '{' {
		var slot CalendarSlot
		if err := json.Unmarshal(raw, &slot); err != nil {
			return err
		}
		a.CalendarSlot = &slot
		return nil
	}
	var ref Ref
	if err := json.Unmarshal(raw, &ref); err != nil {
		return err
	}
	a.CalendarSlot = &CalendarSlot{ID: ref.ID}
	return nil
}

// Active reports whether the appointment still holds a seat.
func (a Appointment) Active() bool {
	return a.Status != AppointmentCancelled
}

// AppointmentFilter narrows the talent's appointment list.
type AppointmentFilter struct {
	Status    string `form:"status"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Page      int    `form:"page"`
}

// FeedbackRequest rates a past appointment.
type FeedbackRequest struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

// StatisticsFilter narrows the staff statistics. The backend defaults to the last 30 days
// and scopes university staff to their own university.
type StatisticsFilter struct {
	UniversityProfileID int64  `form:"university_profile_id"`
	StartDate           string `form:"start_date"`
	EndDate             string `form:"end_date"`
}

// AppointmentStatistics aggregates appointments for university staff and admins.
type AppointmentStatistics struct {
	TotalAppointments     int64             `json:"total_appointments"`
	ConfirmedAppointments int64             `json:"confirmed_appointments"`
	CompletedAppointments int64             `json:"completed_appointments"`
	CancelledAppointments int64             `json:"cancelled_appointments"`
	NoShowAppointments    int64             `json:"no_show_appointments"`
	UniqueTalents         int64             `json:"unique_talents"`
	AverageRating         *float64          `json:"average_rating"`
	TotalDurationMinutes  int64             `json:"total_duration_minutes"`
	ByTheme               []ThemeStatistics `json:"by_theme"`
}

// ThemeStatistics counts appointments for one agenda theme.
type ThemeStatistics struct {
	Theme     string `json:"theme"`
	Count     int64  `json:"count"`
	Completed int64  `json:"completed"`
	Cancelled int64  `json:"cancelled"`
}
