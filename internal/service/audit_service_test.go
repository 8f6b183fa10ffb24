package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
)

type fakeAuditStore struct {
	mu        sync.Mutex
	attempts  []models.BookingAttempt
	actions   []models.AuditLog
	failFirst bool
	summary   []models.AttemptSummary
}

func (f *fakeAuditStore) Create(ctx context.Context, attempt *models.BookingAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFirst {
		f.failFirst = false
		return errors.New("connection reset")
	}
	f.attempts = append(f.attempts, *attempt)
	return nil
}

func (f *fakeAuditStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, *log)
	return nil
}

func (f *fakeAuditStore) SummarySince(ctx context.Context, since time.Time) ([]models.AttemptSummary, error) {
	return f.summary, nil
}

func (f *fakeAuditStore) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attempts), len(f.actions)
}

func TestAuditServiceWritesInBackground(t *testing.T) {
	store := &fakeAuditStore{failFirst: true}
	svc := NewAuditService(store, zap.NewNop(), AuditConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})
	svc.Start(context.Background())
	defer svc.Stop()

	svc.RecordAttempt(models.BookingAttempt{UserID: "7", SlotID: 10, Outcome: models.OutcomeConflict})
	svc.RecordAction(models.AuditLog{Action: models.AuditActionLogin, Resource: "auth"})

	require.Eventually(t, func() bool {
		attempts, actions := store.counts()
		return attempts == 1 && actions == 1
	}, time.Second, 10*time.Millisecond)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.NotEmpty(t, store.attempts[0].ID)
	assert.False(t, store.attempts[0].CreatedAt.IsZero())
}

func TestAuditServiceSummary(t *testing.T) {
	store := &fakeAuditStore{summary: []models.AttemptSummary{
		{Outcome: models.OutcomeBooked, Count: 4},
		{Outcome: models.OutcomeConflict, Count: 2},
	}}
	svc := NewAuditService(store, nil, AuditConfig{})

	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	summary, err := svc.Summary(context.Background(), since)
	require.NoError(t, err)
	assert.EqualValues(t, 6, summary.Total)
	assert.Equal(t, since, summary.Since)
	assert.Len(t, summary.Outcomes, 2)
}

func TestAuditServiceDisabled(t *testing.T) {
	svc := NewAuditService(nil, nil, AuditConfig{})
	svc.Start(context.Background())
	defer svc.Stop()

	assert.False(t, svc.Enabled())
	svc.RecordAttempt(models.BookingAttempt{UserID: "7"})

	_, err := svc.Summary(context.Background(), time.Now())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
