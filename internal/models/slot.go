package models

import (
	"fmt"
	"time"
)

// SlotStatus is the backend lifecycle of a calendar slot.
type SlotStatus string

const (
	SlotStatusAvailable   SlotStatus = "available"
	SlotStatusFullyBooked SlotStatus = "fully_booked"
	SlotStatusCancelled   SlotStatus = "cancelled"
	SlotStatusBlocked     SlotStatus = "blocked"
)

// MeetingType describes how a slot is held.
type MeetingType string

const (
	MeetingTypeInPerson MeetingType = "in_person"
	MeetingTypeOnline   MeetingType = "online"
	MeetingTypePhone    MeetingType = "phone"
)

// DateLayout is the wire format of slot_date.
const DateLayout = "2006-01-02"

// CalendarSlot is one concrete time window under an agenda.
type CalendarSlot struct {
	ID                int64       `json:"id"`
	Agenda            Ref         `json:"agenda"`
	Staff             Ref         `json:"staff"`
	SlotDate          string      `json:"slot_date"`
	StartTime         string      `json:"start_time"`
	EndTime           string      `json:"end_time"`
	MaxCapacity       int         `json:"max_capacity"`
	CurrentBookings   int         `json:"current_bookings"`
	AvailableCapacity int         `json:"available_capacity"`
	Status            SlotStatus  `json:"status"`
	MeetingType       MeetingType `json:"meeting_type"`
	Location          string      `json:"location,omitempty"`
	MeetingLink       string      `json:"meeting_link,omitempty"`
	Notes             string      `json:"notes,omitempty"`
}

// Selectable reports whether a talent may pick the slot.
func (s CalendarSlot) Selectable() bool {
	return s.Status == SlotStatusAvailable && s.CurrentBookings < s.MaxCapacity
}

// Window resolves the slot's start and end in loc.
func (s CalendarSlot) Window(loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := parseSlotTime(s.SlotDate, s.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseSlotTime(s.SlotDate, s.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func parseSlotTime(date, clock string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.ParseInLocation(DateLayout+" "+layout, date+" "+clock, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid slot time %q %q", date, clock)
}

// SlotQuery parameterises an availability fetch.
type SlotQuery struct {
	AgendaID int64
	Date     string
}

// Key identifies the parameter set of a fetch for last-request-wins checks.
func (q SlotQuery) Key() string {
	return fmt.Sprintf("%d|%s", q.AgendaID, q.Date)
}
