package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateBookingRequest is the payload for POST /bookings.
type CreateBookingRequest struct {
	ShopID      string          `json:"shop_id" binding:"required,uuid"`
	ServiceType string          `json:"service_type" binding:"required"`
	BaseCost    decimal.Decimal `json:"base_cost" binding:"required"`
	ScheduledAt time.Time       `json:"scheduled_at" binding:"required"`
}

// AdvanceBookingRequest moves an assigned booking along its lifecycle.
type AdvanceBookingRequest struct {
	Target string `json:"target" binding:"required"`
}

// CancelBookingRequest is the payload for POST /bookings/:id/cancel.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// ReassignBookingRequest triggers an explicit single-booking reassignment.
type ReassignBookingRequest struct {
	Reason string `json:"reason"`
}

// WorkerEmergencyRequest is a worker's self-report on one booking.
type WorkerEmergencyRequest struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	Reason    string `json:"reason" binding:"required"`
}

// SetAvailabilityRequest flips a worker's availability flag.
type SetAvailabilityRequest struct {
	Available *bool  `json:"available" binding:"required"`
	Reason    string `json:"reason"`
}

// ManualAssignRequest attaches a specific worker to a stuck booking.
type ManualAssignRequest struct {
	WorkerID string `json:"worker_id" binding:"required,uuid"`
}
