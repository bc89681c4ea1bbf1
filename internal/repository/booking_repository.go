package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/models"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/repository/common"
)

// BookingRepository owns reads and writes of the bookings table.
type BookingRepository struct {
	db *sqlx.DB
}

// Repository-level errors.
var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrWorkerNotFound  = errors.New("worker not found")
)

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `
	id, customer_id, shop_id, worker_id, service_type, base_cost, status,
	scheduled_at, created_at, updated_at, started_at, completed_at,
	cancelled_at, cancellation_id
`

// Create inserts a fresh booking.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (id, customer_id, shop_id, service_type, base_cost, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	row := common.Ext(ctx, r.db).QueryRowxContext(ctx, query,
		booking.ID, booking.CustomerID, booking.ShopID, booking.ServiceType,
		booking.BaseCost, booking.Status, booking.ScheduledAt)
	if err := row.Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return fmt.Errorf("booking repository: create %w", err)
	}
	return nil
}

// GetByID returns a booking by identifier.
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := sqlx.GetContext(ctx, common.Ext(ctx, r.db), &booking, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("booking repository: get by id %w", err)
	}
	return &booking, nil
}

// GetByIDForUpdate locks the booking row for the rest of the transaction.
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	if err := sqlx.GetContext(ctx, common.Ext(ctx, r.db), &booking, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("booking repository: get by id for update %w", err)
	}
	return &booking, nil
}

// UpdateStatus moves a booking along one status edge and stamps the
// lifecycle timestamps belonging to it. The write applies only while the
// booking is still in fromStatus; false means a concurrent writer moved it
// first and the caller must re-read.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string, startedAt, completedAt *time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $3,
		    started_at = COALESCE($4, started_at),
		    completed_at = COALESCE($5, completed_at),
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	res, err := common.Ext(ctx, r.db).ExecContext(ctx, query, id, fromStatus, toStatus, startedAt, completedAt)
	if err != nil {
		return false, fmt.Errorf("booking repository: update status %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("booking repository: update status rows %w", err)
	}
	return affected > 0, nil
}

// MarkCancelled finalizes a cancelled booking and links its receipt.
func (r *BookingRepository) MarkCancelled(ctx context.Context, id, cancellationID uuid.UUID, cancelledAt time.Time) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = $3, cancellation_id = $2, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := common.Ext(ctx, r.db).ExecContext(ctx, query, id, cancellationID, cancelledAt); err != nil {
		return fmt.Errorf("booking repository: mark cancelled %w", err)
	}
	return nil
}

// AssignWorkerIfAvailable attaches a worker to the booking only while the
// worker is still available and the booking is still in the status the
// caller selected against. Returns false when either side moved in the
// meantime, so the caller can retry with the next candidate or re-read.
func (r *BookingRepository) AssignWorkerIfAvailable(ctx context.Context, bookingID, workerID uuid.UUID, fromStatus, toStatus string) (bool, error) {
	query := `
		UPDATE bookings b
		SET worker_id = $2, status = $4, updated_at = NOW()
		WHERE b.id = $1
		  AND b.status = $3
		  AND EXISTS (SELECT 1 FROM workers w WHERE w.id = $2 AND w.is_available)
	`
	res, err := common.Ext(ctx, r.db).ExecContext(ctx, query, bookingID, workerID, fromStatus, toStatus)
	if err != nil {
		return false, fmt.Errorf("booking repository: assign worker %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("booking repository: assign worker rows %w", err)
	}
	return affected > 0, nil
}

// ListOpenByWorker returns the bookings a worker is still on the hook for,
// oldest first so the cascade re-homes them fairly.
func (r *BookingRepository) ListOpenByWorker(ctx context.Context, workerID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE worker_id = $1 AND status IN ('assigned', 'arrived', 'in_progress')
		ORDER BY created_at ASC
	`
	if err := sqlx.SelectContext(ctx, common.Ext(ctx, r.db), &bookings, query, workerID); err != nil {
		return nil, fmt.Errorf("booking repository: list open by worker %w", err)
	}
	return bookings, nil
}

// ListPendingManualAssignment returns the bookings stuck waiting for an
// admin, oldest first.
func (r *BookingRepository) ListPendingManualAssignment(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'pending_manual_assignment'
		ORDER BY created_at ASC
	`
	if err := sqlx.SelectContext(ctx, common.Ext(ctx, r.db), &bookings, query); err != nil {
		return nil, fmt.Errorf("booking repository: list pending manual %w", err)
	}
	return bookings, nil
}
