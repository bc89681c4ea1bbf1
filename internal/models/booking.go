package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking describes a motorcycle service appointment between a customer and
// a shop, optionally attached to a shop worker.
type Booking struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	CustomerID     uuid.UUID       `db:"customer_id" json:"customer_id"`
	ShopID         uuid.UUID       `db:"shop_id" json:"shop_id"`
	WorkerID       *uuid.UUID      `db:"worker_id" json:"worker_id,omitempty"`
	ServiceType    string          `db:"service_type" json:"service_type"`
	BaseCost       decimal.Decimal `db:"base_cost" json:"base_cost"`
	Status         string          `db:"status" json:"status"`
	ScheduledAt    time.Time       `db:"scheduled_at" json:"scheduled_at"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
	StartedAt      *time.Time      `db:"started_at" json:"started_at,omitempty"`
	CompletedAt    *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt    *time.Time      `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancellationID *uuid.UUID      `db:"cancellation_id" json:"cancellation_id,omitempty"`
}

// IsOwnedBy reports whether the booking belongs to the given customer.
func (b *Booking) IsOwnedBy(customerID uuid.UUID) bool {
	return b.CustomerID == customerID
}

// IsAssignedTo reports whether the booking is currently attached to the
// given worker.
func (b *Booking) IsAssignedTo(workerID uuid.UUID) bool {
	return b.WorkerID != nil && *b.WorkerID == workerID
}
