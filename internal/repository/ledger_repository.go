package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/models"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/repository/common"
)

// LedgerRepository owns the cancellation token economy: per-customer
// ledgers and the immutable cancellation receipts.
type LedgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetOrCreateForUpdate returns the customer's ledger row locked for the
// rest of the transaction, lazily creating it with the monthly allowance.
// The row lock serializes concurrent cancellations of the same customer.
func (r *LedgerRepository) GetOrCreateForUpdate(ctx context.Context, customerID uuid.UUID, allowance int, at time.Time) (*models.CancellationTokenLedger, error) {
	ext := common.Ext(ctx, r.db)

	insert := `
		INSERT INTO cancellation_token_ledgers (customer_id, tokens_available, tokens_used, last_reset_date)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (customer_id) DO NOTHING
	`
	if _, err := ext.ExecContext(ctx, insert, customerID, allowance, at); err != nil {
		return nil, fmt.Errorf("ledger repository: lazy create %w", err)
	}

	var ledger models.CancellationTokenLedger
	query := `
		SELECT customer_id, tokens_available, tokens_used, last_reset_date, updated_at
		FROM cancellation_token_ledgers
		WHERE customer_id = $1
		FOR UPDATE
	`
	if err := sqlx.GetContext(ctx, ext, &ledger, query, customerID); err != nil {
		return nil, fmt.Errorf("ledger repository: get for update %w", err)
	}
	return &ledger, nil
}

// Save persists the mutated ledger balance.
func (r *LedgerRepository) Save(ctx context.Context, ledger *models.CancellationTokenLedger) error {
	query := `
		UPDATE cancellation_token_ledgers
		SET tokens_available = $2, tokens_used = $3, last_reset_date = $4, updated_at = NOW()
		WHERE customer_id = $1
	`
	if _, err := common.Ext(ctx, r.db).ExecContext(ctx, query,
		ledger.CustomerID, ledger.TokensAvailable, ledger.TokensUsed, ledger.LastResetDate); err != nil {
		return fmt.Errorf("ledger repository: save %w", err)
	}
	return nil
}

// CountMonthlyCancellations counts the customer's cancellation receipts in
// the UTC calendar month containing at, matching the service's UTC month
// arithmetic independent of the session timezone.
func (r *LedgerRepository) CountMonthlyCancellations(ctx context.Context, customerID uuid.UUID, at time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM cancellation_records
		WHERE customer_id = $1
		  AND date_trunc('month', cancelled_at AT TIME ZONE 'UTC') = date_trunc('month', $2::timestamptz AT TIME ZONE 'UTC')
	`
	if err := sqlx.GetContext(ctx, common.Ext(ctx, r.db), &count, query, customerID, at); err != nil {
		return 0, fmt.Errorf("ledger repository: count monthly cancellations %w", err)
	}
	return count, nil
}

// InsertCancellationRecord writes the immutable cancellation receipt.
func (r *LedgerRepository) InsertCancellationRecord(ctx context.Context, record *models.CancellationRecord) error {
	query := `
		INSERT INTO cancellation_records
			(id, customer_id, booking_id, cancelled_at, tokens_deducted, refund_amount, refund_percentage, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := common.Ext(ctx, r.db).ExecContext(ctx, query,
		record.ID, record.CustomerID, record.BookingID, record.CancelledAt,
		record.TokensDeducted, record.RefundAmount, record.RefundPercentage, record.Reason); err != nil {
		return fmt.Errorf("ledger repository: insert cancellation record %w", err)
	}
	return nil
}
