package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
)

func TestAuthSessionRepositoryExpiry(t *testing.T) {
	repo := NewAuthSessionRepository()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	repo.Save(&models.AuthSession{ID: "live", ExpiresAt: now.Add(time.Hour)})
	repo.Save(&models.AuthSession{ID: "stale", ExpiresAt: now.Add(-time.Second)})

	session, err := repo.Get("live")
	require.NoError(t, err)
	assert.Equal(t, "live", session.ID)

	_, err = repo.Get("stale")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	assert.Equal(t, []string{"stale"}, repo.DeleteExpired(now))
	assert.Equal(t, 1, repo.Count())
	assert.True(t, repo.Delete("live"))
	assert.False(t, repo.Delete("live"))
}

func TestWorkflowSessionRepositoryDeleteByAuthSession(t *testing.T) {
	repo := NewWorkflowSessionRepository()
	repo.Save(&models.WorkflowSession{ID: "a", AuthSessionID: "s1"})
	repo.Save(&models.WorkflowSession{ID: "b", AuthSessionID: "s1"})
	repo.Save(&models.WorkflowSession{ID: "c", AuthSessionID: "s2"})

	assert.Equal(t, 2, repo.DeleteByAuthSession("s1"))
	_, err := repo.Get("a")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = repo.Get("c")
	assert.NoError(t, err)
}

func TestWorkflowSessionRepositoryDeleteByAuthSessionKeepsSubmitting(t *testing.T) {
	repo := NewWorkflowSessionRepository()
	submitting := &models.WorkflowSession{ID: "submitting", AuthSessionID: "s1", Submitting: true}
	locked := &models.WorkflowSession{ID: "locked", AuthSessionID: "s1"}
	repo.Save(submitting)
	repo.Save(locked)
	repo.Save(&models.WorkflowSession{ID: "idle", AuthSessionID: "s1"})

	locked.Lock()
	removed := repo.DeleteByAuthSession("s1")
	locked.Unlock()

	assert.Equal(t, 1, removed)
	_, err := repo.Get("idle")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = repo.Get("submitting")
	assert.NoError(t, err)
	_, err = repo.Get("locked")
	assert.NoError(t, err)
}

func TestWorkflowSessionRepositoryDeleteExpiredSkipsBusySessions(t *testing.T) {
	repo := NewWorkflowSessionRepository()
	now := time.Now()
	idle := &models.WorkflowSession{ID: "idle", ExpiresAt: now.Add(-time.Minute)}
	busy := &models.WorkflowSession{ID: "busy", ExpiresAt: now.Add(-time.Minute)}
	fresh := &models.WorkflowSession{ID: "fresh", ExpiresAt: now.Add(time.Minute)}
	repo.Save(idle)
	repo.Save(busy)
	repo.Save(fresh)

	busy.Lock()
	removed := repo.DeleteExpired(now)
	busy.Unlock()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, repo.Count())
	assert.Equal(t, 1, repo.DeleteExpired(now))
}
