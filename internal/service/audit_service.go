package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/dto"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/jobs"
)

const (
	auditJobAttempt = "attempt"
	auditJobAction  = "action"
)

type auditStore interface {
	Create(ctx context.Context, attempt *models.BookingAttempt) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	SummarySince(ctx context.Context, since time.Time) ([]models.AttemptSummary, error)
}

// AuditConfig tunes the background writer.
type AuditConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// AuditService writes booking attempts and gateway actions off the request path.
// A nil store disables it: records are dropped and Summary reports not found.
type AuditService struct {
	store  auditStore
	queue  *jobs.Queue
	logger *zap.Logger
	now    func() time.Time
}

// NewAuditService constructs the service. Call Start before recording.
func NewAuditService(store auditStore, logger *zap.Logger, config AuditConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{store: store, logger: logger, now: time.Now}
	if store == nil {
		return s
	}
	s.queue = jobs.NewQueue("booking-audit", jobs.Dispatch(map[string]jobs.Handler{
		auditJobAttempt: s.writeAttempt,
		auditJobAction:  s.writeAction,
	}), jobs.QueueConfig{
		Workers:    config.Workers,
		MaxRetries: config.MaxRetries,
		RetryDelay: config.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Enabled reports whether records are persisted.
func (s *AuditService) Enabled() bool {
	return s != nil && s.queue != nil
}

// Start launches the writers.
func (s *AuditService) Start(ctx context.Context) {
	if s.Enabled() {
		s.queue.Start(ctx)
	}
}

// Stop drains the writers.
func (s *AuditService) Stop() {
	if s.Enabled() {
		s.queue.Stop()
	}
}

// RecordAttempt queues a booking attempt. It never blocks; a full queue drops the record.
func (s *AuditService) RecordAttempt(attempt models.BookingAttempt) {
	if !s.Enabled() {
		return
	}
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = s.now().UTC()
	}
	s.enqueue(auditJobAttempt, attempt.ID, attempt)
}

// RecordAction queues a gateway action record.
func (s *AuditService) RecordAction(log models.AuditLog) {
	if !s.Enabled() {
		return
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = s.now().UTC()
	}
	s.enqueue(auditJobAction, log.ID, log)
}

// Summary counts booking attempts per outcome since the given time.
func (s *AuditService) Summary(ctx context.Context, since time.Time) (*dto.AttemptSummaryResponse, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "booking audit is disabled")
	}
	rows, err := s.store.SummarySince(ctx, since)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking summary")
	}
	resp := &dto.AttemptSummaryResponse{Since: since.UTC(), Outcomes: rows}
	if resp.Outcomes == nil {
		resp.Outcomes = []models.AttemptSummary{}
	}
	for _, row := range rows {
		resp.Total += row.Count
	}
	return resp, nil
}

func (s *AuditService) enqueue(kind, id string, payload interface{}) {
	err := s.queue.TryEnqueue(jobs.Job{ID: id, Type: kind, Payload: payload})
	if err != nil {
		s.logger.Warn("audit record dropped", zap.String("type", kind), zap.String("id", id), zap.Error(err))
	}
}

func (s *AuditService) writeAttempt(ctx context.Context, job jobs.Job) error {
	attempt, ok := job.Payload.(models.BookingAttempt)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	return s.store.Create(ctx, &attempt)
}

func (s *AuditService) writeAction(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	return s.store.CreateAuditLog(ctx, &log)
}
