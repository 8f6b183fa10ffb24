package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type expiringAuthSessions interface {
	DeleteExpired(now time.Time) []string
	Count() int
}

type expiringWorkflows interface {
	DeleteExpired(now time.Time) int
	DeleteByAuthSession(authSessionID string) int
	Count() int
}

// SessionSweeper removes expired auth and workflow sessions on a cron schedule.
type SessionSweeper struct {
	auth      expiringAuthSessions
	workflows expiringWorkflows
	metrics   *MetricsService
	logger    *zap.Logger
	cron      *cron.Cron
	now       func() time.Time
}

// NewSessionSweeper runs Sweep on a cron schedule such as "@every 1m".
func NewSessionSweeper(auth expiringAuthSessions, workflows expiringWorkflows, metrics *MetricsService, logger *zap.Logger, schedule string) (*SessionSweeper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schedule == "" {
		schedule = "@every 1m"
	}
	s := &SessionSweeper{
		auth:      auth,
		workflows: workflows,
		metrics:   metrics,
		logger:    logger,
		cron:      cron.New(),
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep() }); err != nil {
		return nil, fmt.Errorf("invalid session sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *SessionSweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep, bounded by ctx.
func (s *SessionSweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Sweep deletes expired sessions once. Workflows owned by an expired auth session go with it.
// Workflows locked by an in-flight request are left for the next run.
func (s *SessionSweeper) Sweep() (authRemoved, workflowsRemoved int) {
	now := s.now()
	for _, id := range s.auth.DeleteExpired(now) {
		workflowsRemoved += s.workflows.DeleteByAuthSession(id)
		authRemoved++
	}
	workflowsRemoved += s.workflows.DeleteExpired(now)

	s.metrics.SetLiveSessions("auth", s.auth.Count())
	s.metrics.SetLiveSessions("workflow", s.workflows.Count())
	if authRemoved > 0 || workflowsRemoved > 0 {
		s.logger.Info("expired sessions removed", zap.Int("auth", authRemoved), zap.Int("workflow", workflowsRemoved))
	}
	return authRemoved, workflowsRemoved
}
