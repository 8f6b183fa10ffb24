package repository

import (
	"sync"
	"time"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
)

// AuthSessionRepository keeps signed-in talents' upstream credentials in memory.
type AuthSessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.AuthSession
	now      func() time.Time
}

// NewAuthSessionRepository constructs an empty store.
func NewAuthSessionRepository() *AuthSessionRepository {
	return &AuthSessionRepository{sessions: make(map[string]*models.AuthSession), now: time.Now}
}

// Save inserts or replaces a session.
func (r *AuthSessionRepository) Save(session *models.AuthSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
}

// Get returns a live session. Expired sessions are reported as not found.
func (r *AuthSessionRepository) Get(id string) (*models.AuthSession, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || !r.now().Before(session.ExpiresAt) {
		return nil, appErrors.ErrNotFound
	}
	return session, nil
}

// Delete removes a session and reports whether it existed.
func (r *AuthSessionRepository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// DeleteExpired drops sessions past their deadline and returns their ids.
func (r *AuthSessionRepository) DeleteExpired(now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []string
	for id, session := range r.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(r.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// Count returns the number of stored sessions.
func (r *AuthSessionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// WorkflowSessionRepository holds in-progress booking workflows in memory.
type WorkflowSessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.WorkflowSession
}

// NewWorkflowSessionRepository constructs an empty store.
func NewWorkflowSessionRepository() *WorkflowSessionRepository {
	return &WorkflowSessionRepository{sessions: make(map[string]*models.WorkflowSession)}
}

// Save inserts or replaces a session.
func (r *WorkflowSessionRepository) Save(session *models.WorkflowSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
}

// Get returns the stored session. Expiry is judged by the caller under the session lock.
func (r *WorkflowSessionRepository) Get(id string) (*models.WorkflowSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return session, nil
}

// Delete removes a session and reports whether it existed.
func (r *WorkflowSessionRepository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// DeleteByAuthSession drops the idle workflows started under an auth session.
// Busy or submitting ones are left to expire through DeleteExpired.
func (r *WorkflowSessionRepository) DeleteByAuthSession(authSessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, session := range r.sessions {
		if session.AuthSessionID != authSessionID || !session.TryLock() {
			continue
		}
		submitting := session.Submitting
		session.Unlock()
		if submitting {
			continue
		}
		delete(r.sessions, id)
		removed++
	}
	return removed
}

// DeleteExpired drops idle sessions past their deadline. Sessions locked by an
// in-flight request are busy, not idle, and are left for the next sweep.
func (r *WorkflowSessionRepository) DeleteExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, session := range r.sessions {
		if !session.TryLock() {
			continue
		}
		expired := !session.Submitting && !now.Before(session.ExpiresAt)
		session.Unlock()
		if expired {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of stored sessions.
func (r *WorkflowSessionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
