package repository

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

// SlotRepository queries bookable calendar slots.
type SlotRepository struct {
	client upstreamDoer
}

// NewSlotRepository constructs the repository.
func NewSlotRepository(client upstreamDoer) *SlotRepository {
	return &SlotRepository{client: client}
}

// ListAvailable returns the backend's open slots for an agenda. A date narrows the
// range to that single day.
func (r *SlotRepository) ListAvailable(ctx context.Context, creds *upstream.Credentials, q models.SlotQuery) ([]models.CalendarSlot, error) {
	query := url.Values{}
	query.Set("agenda_id", strconv.FormatInt(q.AgendaID, 10))
	if q.Date != "" {
		query.Set("start_date", q.Date)
		query.Set("end_date", q.Date)
	}

	var payload models.ListPayload[models.CalendarSlot]
	err := r.client.Do(ctx, creds, upstream.Request{
		Method: http.MethodGet,
		Path:   "/appointments/slots/available/",
		Query:  query,
		Label:  "slots.available",
	}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Items(), nil
}
