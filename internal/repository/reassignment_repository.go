package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/models"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/repository/common"
)

// ReassignmentRepository owns the append-only audit of worker hand-offs.
type ReassignmentRepository struct {
	db *sqlx.DB
}

func NewReassignmentRepository(db *sqlx.DB) *ReassignmentRepository {
	return &ReassignmentRepository{db: db}
}

// Insert appends a hand-off record.
func (r *ReassignmentRepository) Insert(ctx context.Context, record *models.ReassignmentRecord) error {
	query := `
		INSERT INTO reassignment_records
			(id, booking_id, old_worker_id, new_worker_id, reason, fallback, reassigned_by, reassigned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := common.Ext(ctx, r.db).ExecContext(ctx, query,
		record.ID, record.BookingID, record.OldWorkerID, record.NewWorkerID,
		record.Reason, record.Fallback, record.ReassignedBy, record.ReassignedAt); err != nil {
		return fmt.Errorf("reassignment repository: insert %w", err)
	}
	return nil
}

// ListByBooking returns the booking's hand-off history, oldest first.
func (r *ReassignmentRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.ReassignmentRecord, error) {
	var records []models.ReassignmentRecord
	query := `
		SELECT id, booking_id, old_worker_id, new_worker_id, reason, fallback, reassigned_by, reassigned_at
		FROM reassignment_records
		WHERE booking_id = $1
		ORDER BY reassigned_at ASC
	`
	if err := sqlx.SelectContext(ctx, common.Ext(ctx, r.db), &records, query, bookingID); err != nil {
		return nil, fmt.Errorf("reassignment repository: list by booking %w", err)
	}
	return records, nil
}
