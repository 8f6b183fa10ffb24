package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

type slotRepository interface {
	ListAvailable(ctx context.Context, creds *upstream.Credentials, q models.SlotQuery) ([]models.CalendarSlot, error)
}

// SlotService fetches availability for an agenda and narrows it to bookable slots.
// Results are never cached.
type SlotService struct {
	repo   slotRepository
	logger *zap.Logger
}

// NewSlotService constructs the service.
func NewSlotService(repo slotRepository, logger *zap.Logger) *SlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotService{repo: repo, logger: logger}
}

// Fetch returns the actionable slots for q. Errors are returned untranslated so callers
// can tell an expired upstream session from an outage.
func (s *SlotService) Fetch(ctx context.Context, creds *upstream.Credentials, q models.SlotQuery) ([]models.CalendarSlot, error) {
	q, err := NormalizeSlotQuery(q)
	if err != nil {
		return nil, err
	}
	slots, err := s.repo.ListAvailable(ctx, creds, q)
	if err != nil {
		s.logger.Debug("slot fetch failed", zap.Int64("agenda_id", q.AgendaID), zap.String("date", q.Date), zap.Error(err))
		return nil, err
	}
	return Actionable(slots, q), nil
}

// NormalizeSlotQuery validates the agenda id and date filter.
func NormalizeSlotQuery(q models.SlotQuery) (models.SlotQuery, error) {
	if q.AgendaID <= 0 {
		return q, appErrors.Clone(appErrors.ErrValidation, "an agenda must be selected")
	}
	q.Date = strings.TrimSpace(q.Date)
	if q.Date != "" {
		if _, err := time.Parse(models.DateLayout, q.Date); err != nil {
			return q, appErrors.WithField(appErrors.Clone(appErrors.ErrValidation, "invalid date filter"), "date", "expected YYYY-MM-DD")
		}
	}
	return q, nil
}

// FilterSlots keeps slots of the queried agenda and, when a date is set, only those on that day.
// Time of day is not considered.
func FilterSlots(slots []models.CalendarSlot, q models.SlotQuery) []models.CalendarSlot {
	out := make([]models.CalendarSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Agenda.ID != q.AgendaID {
			continue
		}
		if q.Date != "" && slot.SlotDate != q.Date {
			continue
		}
		out = append(out, slot)
	}
	return out
}

// Actionable is FilterSlots restricted to selectable slots. Applying it twice changes nothing.
func Actionable(slots []models.CalendarSlot, q models.SlotQuery) []models.CalendarSlot {
	filtered := FilterSlots(slots, q)
	out := filtered[:0]
	for _, slot := range filtered {
		if slot.Selectable() {
			out = append(out, slot)
		}
	}
	return out
}
