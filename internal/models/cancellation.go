package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CancellationTokenLedger tracks a customer's monthly cancellation budget.
// One row per customer, created lazily on the first cancellation attempt.
type CancellationTokenLedger struct {
	CustomerID      uuid.UUID `db:"customer_id" json:"customer_id"`
	TokensAvailable int       `db:"tokens_available" json:"tokens_available"`
	TokensUsed      int       `db:"tokens_used" json:"tokens_used"`
	LastResetDate   time.Time `db:"last_reset_date" json:"last_reset_date"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// CancellationRecord is the immutable receipt written once per successful
// cancellation.
type CancellationRecord struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	CustomerID       uuid.UUID       `db:"customer_id" json:"customer_id"`
	BookingID        uuid.UUID       `db:"booking_id" json:"booking_id"`
	CancelledAt      time.Time       `db:"cancelled_at" json:"cancelled_at"`
	TokensDeducted   int             `db:"tokens_deducted" json:"tokens_deducted"`
	RefundAmount     decimal.Decimal `db:"refund_amount" json:"refund_amount"`
	RefundPercentage int             `db:"refund_percentage" json:"refund_percentage"`
	Reason           string          `db:"reason" json:"reason"`
}

// ReassignmentRecord is the append-only audit trail of every worker
// hand-off. ReassignedBy is nil when the cascade acted on its own.
type ReassignmentRecord struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	BookingID    uuid.UUID  `db:"booking_id" json:"booking_id"`
	OldWorkerID  *uuid.UUID `db:"old_worker_id" json:"old_worker_id,omitempty"`
	NewWorkerID  uuid.UUID  `db:"new_worker_id" json:"new_worker_id"`
	Reason       string     `db:"reason" json:"reason"`
	Fallback     bool       `db:"fallback" json:"fallback"`
	ReassignedBy *uuid.UUID `db:"reassigned_by" json:"reassigned_by,omitempty"`
	ReassignedAt time.Time  `db:"reassigned_at" json:"reassigned_at"`
}
