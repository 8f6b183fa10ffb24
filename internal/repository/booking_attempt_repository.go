package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
)

// BookingAttemptRepository persists the booking audit trail.
type BookingAttemptRepository struct {
	db *sqlx.DB
}

// NewBookingAttemptRepository constructs the repository.
func NewBookingAttemptRepository(db *sqlx.DB) *BookingAttemptRepository {
	return &BookingAttemptRepository{db: db}
}

// Create stores one booking attempt.
func (r *BookingAttemptRepository) Create(ctx context.Context, attempt *models.BookingAttempt) error {
	if attempt == nil {
		return fmt.Errorf("booking attempt payload is nil")
	}
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO booking_attempts (id, user_id, workflow_id, agenda_id, slot_id, outcome, message, appointment_id, latency_ms, created_at) VALUES (:id, :user_id, :workflow_id, :agenda_id, :slot_id, :outcome, :message, :appointment_id, :latency_ms, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return fmt.Errorf("create booking attempt: %w", err)
	}
	return nil
}

// CreateAuditLog stores a gateway action record.
func (r *BookingAttemptRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log == nil {
		return fmt.Errorf("audit log payload is nil")
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO gateway_audit_logs (id, user_id, action, resource, resource_id, status, ip_address, user_agent, latency_ms, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :status, :ip_address, :user_agent, :latency_ms, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// SummarySince counts attempts per outcome created at or after since.
func (r *BookingAttemptRepository) SummarySince(ctx context.Context, since time.Time) ([]models.AttemptSummary, error) {
	const query = `SELECT outcome, COUNT(*) AS count FROM booking_attempts WHERE created_at >= $1 GROUP BY outcome ORDER BY outcome`
	var rows []models.AttemptSummary
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("summarise booking attempts: %w", err)
	}
	return rows, nil
}
