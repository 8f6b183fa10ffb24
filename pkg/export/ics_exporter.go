package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

// CalendarEntry is one event written to an iCalendar file.
type CalendarEntry struct {
	UID         string
	Summary     string
	Description string
	Location    string
	URL         string
	Start       time.Time
	End         time.Time
	Cancelled   bool
}

// ICSExporter renders entries as an RFC 5545 calendar.
type ICSExporter struct {
	productID string
	now       func() time.Time
}

// NewICSExporter constructs an exporter identifying itself with productID.
func NewICSExporter(productID string) *ICSExporter {
	if productID == "" {
		productID = "-//booking-gateway//appointments//EN"
	}
	return &ICSExporter{productID: productID, now: time.Now}
}

// Render serialises the entries into a VCALENDAR with one VEVENT each.
func (e *ICSExporter) Render(entries ...CalendarEntry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("ics requires at least one event")
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(e.productID)

	stamp := e.now().UTC()
	for _, entry := range entries {
		if entry.UID == "" {
			return nil, fmt.Errorf("ics event requires a uid")
		}
		if !entry.End.After(entry.Start) {
			return nil, fmt.Errorf("ics event %s ends before it starts", entry.UID)
		}
		event := cal.AddEvent(entry.UID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(entry.Start.UTC())
		event.SetEndAt(entry.End.UTC())
		event.SetSummary(entry.Summary)
		if entry.Description != "" {
			event.SetDescription(entry.Description)
		}
		if entry.Location != "" {
			event.SetLocation(entry.Location)
		}
		if entry.URL != "" {
			event.SetURL(entry.URL)
		}
		if entry.Cancelled {
			event.SetStatus(ical.ObjectStatusCancelled)
		} else {
			event.SetStatus(ical.ObjectStatusConfirmed)
		}
	}
	return []byte(cal.Serialize()), nil
}
