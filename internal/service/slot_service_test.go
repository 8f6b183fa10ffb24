package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

type fakeSlotRepo struct {
	slots []models.CalendarSlot
	err   error
	query models.SlotQuery
	calls int
}

func (f *fakeSlotRepo) ListAvailable(ctx context.Context, creds *upstream.Credentials, q models.SlotQuery) ([]models.CalendarSlot, error) {
	f.calls++
	f.query = q
	return f.slots, f.err
}

func mixedSlots() []models.CalendarSlot {
	open := slotFixture(1, "2025-03-10")
	full := slotFixture(2, "2025-03-10")
	full.CurrentBookings = 1
	blocked := slotFixture(3, "2025-03-10")
	blocked.Status = models.SlotStatusBlocked
	otherDay := slotFixture(4, "2025-03-11")
	otherAgenda := slotFixture(5, "2025-03-10")
	otherAgenda.Agenda = models.Ref{ID: 2}
	soldOut := slotFixture(6, "2025-03-10")
	soldOut.CurrentBookings = 1
	soldOut.Status = models.SlotStatusFullyBooked
	return []models.CalendarSlot{open, full, blocked, otherDay, otherAgenda, soldOut}
}

func ids(slots []models.CalendarSlot) []int64 {
	out := make([]int64, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.ID)
	}
	return out
}

func TestFilterSlots(t *testing.T) {
	slots := mixedSlots()

	assert.Equal(t, []int64{1, 2, 3, 4, 6}, ids(FilterSlots(slots, models.SlotQuery{AgendaID: 1})))
	assert.Equal(t, []int64{1, 2, 3, 6}, ids(FilterSlots(slots, models.SlotQuery{AgendaID: 1, Date: "2025-03-10"})))
	assert.Equal(t, []int64{5}, ids(FilterSlots(slots, models.SlotQuery{AgendaID: 2})))
}

func TestActionableKeepsSelectableSlotsOnly(t *testing.T) {
	q := models.SlotQuery{AgendaID: 1, Date: "2025-03-10"}

	once := Actionable(mixedSlots(), q)
	assert.Equal(t, []int64{1}, ids(once))

	twice := Actionable(append([]models.CalendarSlot{}, once...), q)
	assert.Equal(t, ids(once), ids(twice))

	soldOut := mixedSlots()[5]
	assert.Equal(t, soldOut.MaxCapacity, soldOut.CurrentBookings)
	assert.False(t, soldOut.Selectable())
	blockedFull := soldOut
	blockedFull.Status = models.SlotStatusBlocked
	assert.Empty(t, Actionable([]models.CalendarSlot{soldOut, blockedFull}, q))
}

func TestNormalizeSlotQuery(t *testing.T) {
	q, err := NormalizeSlotQuery(models.SlotQuery{AgendaID: 1, Date: " 2025-03-10 "})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", q.Date)

	_, err = NormalizeSlotQuery(models.SlotQuery{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = NormalizeSlotQuery(models.SlotQuery{AgendaID: 1, Date: "2025-13-40"})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "date")
}

func TestSlotServiceFetchFiltersResult(t *testing.T) {
	repo := &fakeSlotRepo{slots: mixedSlots()}
	svc := NewSlotService(repo, nil)

	slots, err := svc.Fetch(context.Background(), nil, models.SlotQuery{AgendaID: 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, ids(slots))
	assert.EqualValues(t, 1, repo.query.AgendaID)
}

func TestSlotServiceFetchPassesBackendErrorsThrough(t *testing.T) {
	repo := &fakeSlotRepo{err: upstream.ErrReauthRequired}
	svc := NewSlotService(repo, nil)

	_, err := svc.Fetch(context.Background(), nil, models.SlotQuery{AgendaID: 1})
	assert.ErrorIs(t, err, upstream.ErrReauthRequired)
}

func TestSlotServiceFetchValidatesBeforeCalling(t *testing.T) {
	repo := &fakeSlotRepo{}
	svc := NewSlotService(repo, nil)

	_, err := svc.Fetch(context.Background(), nil, models.SlotQuery{AgendaID: 0})
	assert.Error(t, err)
	assert.Zero(t, repo.calls)
}
