package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefDecodesEveryForm(t *testing.T) {
	cases := map[string]Ref{
		`12`:                                {ID: 12},
		`"12"`:                              {ID: 12},
		`null`:                              {},
		`{"id":5,"name":"Career Guidance"}`: {ID: 5, Name: "Career Guidance"},
		`{"id":9,"first_name":"Ada","last_name":"Lovelace"}`: {ID: 9, Name: "Ada Lovelace"},
		`{"id":9,"email":"staff@example.edu"}`:               {ID: 9, Name: "staff@example.edu"},
	}
	for body, want := range cases {
		var ref Ref
		require.NoError(t, json.Unmarshal([]byte(body), &ref), body)
		assert.Equal(t, want, ref, body)
	}

	var ref Ref
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &ref))
}

func TestAppointmentDecodesNestedOrBareSlot(t *testing.T) {
	var nested Appointment
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 31,
		"calendar_slot": {"id": 7, "agenda": {"id": 2, "name": "CV Review"}, "slot_date": "2024-05-02", "start_time": "10:00:00", "end_time": "10:30:00"},
		"talent": 4,
		"status": "confirmed",
		"booking_reference": "APT-2024-0031"
	}`), &nested))
	require.NotNil(t, nested.CalendarSlot)
	assert.Equal(t, int64(7), nested.CalendarSlot.ID)
	assert.Equal(t, "CV Review", nested.CalendarSlot.Agenda.Name)
	assert.Equal(t, AppointmentConfirmed, nested.Status)
	assert.Equal(t, int64(4), nested.Talent.ID)

	var bare Appointment
	require.NoError(t, json.Unmarshal([]byte(`{"id":32,"calendar_slot":8,"status":"pending"}`), &bare))
	require.NotNil(t, bare.CalendarSlot)
	assert.Equal(t, int64(8), bare.CalendarSlot.ID)
	assert.True(t, bare.Active())
}

func TestCalendarSlotSelectable(t *testing.T) {
	assert.True(t, CalendarSlot{Status: SlotStatusAvailable, MaxCapacity: 2, CurrentBookings: 1}.Selectable())
	assert.False(t, CalendarSlot{Status: SlotStatusAvailable, MaxCapacity: 2, CurrentBookings: 2}.Selectable())
	assert.False(t, CalendarSlot{Status: SlotStatusBlocked, MaxCapacity: 2}.Selectable())
	assert.False(t, CalendarSlot{Status: SlotStatusFullyBooked, MaxCapacity: 2, CurrentBookings: 0}.Selectable())
}

func TestCalendarSlotWindow(t *testing.T) {
	slot := CalendarSlot{SlotDate: "2024-05-02", StartTime: "10:00:00", EndTime: "10:30"}
	start, end, err := slot.Window(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 30*time.Minute, end.Sub(start))

	_, _, err = CalendarSlot{SlotDate: "02/05/2024", StartTime: "10:00"}.Window(nil)
	assert.Error(t, err)
}

func TestSlotQueryKeyDistinguishesParameters(t *testing.T) {
	assert.NotEqual(t, SlotQuery{AgendaID: 1, Date: "2024-05-02"}.Key(), SlotQuery{AgendaID: 1}.Key())
	assert.Equal(t, SlotQuery{AgendaID: 1, Date: "2024-05-02"}.Key(), SlotQuery{AgendaID: 1, Date: "2024-05-02"}.Key())
}
