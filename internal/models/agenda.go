package models

// AppointmentTheme groups agendas by topic (e.g. "Career Guidance").
type AppointmentTheme struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ColorCode   string `json:"color_code,omitempty"`
	Icon        string `json:"icon,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// Agenda is a bookable offering published by a university.
type Agenda struct {
	ID                        int64  `json:"id"`
	University                Ref    `json:"university"`
	Name                      string `json:"name"`
	Description               string `json:"description"`
	Theme                     Ref    `json:"theme"`
	SlotDurationMinutes       int    `json:"slot_duration_minutes"`
	MaxCapacityPerSlot        int    `json:"max_capacity_per_slot"`
	StartDate                 string `json:"start_date"`
	EndDate                   string `json:"end_date"`
	IsRecurring               bool   `json:"is_recurring"`
	BookingDeadlineHours      int    `json:"booking_deadline_hours"`
	CancellationDeadlineHours int    `json:"cancellation_deadline_hours"`
	IsActive                  bool   `json:"is_active"`
}

// AgendaFilter narrows the agenda list. Zero values match everything.
type AgendaFilter struct {
	Search       string `form:"search"`
	ThemeID      int64  `form:"theme_id"`
	UniversityID int64  `form:"university_id"`
}
