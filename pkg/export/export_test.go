package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRendersRowsInHeaderOrder(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"reference", "date", "status"},
		Rows: []map[string]string{
			{"reference": "APT-1", "date": "2024-05-02", "status": "confirmed"},
			{"reference": "APT-2", "status": "cancelled"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "reference,date,status\nAPT-1,2024-05-02,confirmed\nAPT-2,,cancelled\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestCSVExporterNeutralizesFormulas(t *testing.T) {
	data := Dataset{
		Headers: []string{"notes"},
		Rows:    []map[string]string{{"notes": "=HYPERLINK(\"x\")"}, {"notes": "@sum"}, {"notes": "plain"}},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "notes\n\"'=HYPERLINK(\"\"x\"\")\"\n'@sum\nplain\n", string(out))

	raw, err := (&CSVExporter{}).Render(data)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n@sum\n")
}

func TestPDFExporterRendersSlip(t *testing.T) {
	out, err := NewPDFExporter().RenderSlip(Slip{
		Title:    "Booking confirmation",
		Subtitle: "APT-2024-0031",
		Lines:    []SlipLine{{Label: "Agenda", Value: "CV Review"}, {Label: "Date", Value: "2024-05-02 10:00"}},
		Footer:   "Cancel at least 24 hours in advance.",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().RenderSlip(Slip{})
	assert.Error(t, err)
}

func TestICSExporterRoundTrips(t *testing.T) {
	start := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	out, err := NewICSExporter("").Render(CalendarEntry{
		UID:      "appointment-31@booking-gateway",
		Summary:  "CV Review",
		Location: "Career Center, Room 2",
		Start:    start,
		End:      start.Add(30 * time.Minute),
	})
	require.NoError(t, err)

	cal, err := ical.ParseCalendar(strings.NewReader(string(out)))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "CV Review", events[0].GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "CONFIRMED", events[0].GetProperty(ical.ComponentPropertyStatus).Value)
	got, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(got))
}

func TestICSExporterValidatesEntries(t *testing.T) {
	start := time.Now()
	_, err := NewICSExporter("").Render()
	assert.Error(t, err)
	_, err = NewICSExporter("").Render(CalendarEntry{UID: "x", Start: start, End: start})
	assert.Error(t, err)
	_, err = NewICSExporter("").Render(CalendarEntry{Start: start, End: start.Add(time.Hour)})
	assert.Error(t, err)
}
