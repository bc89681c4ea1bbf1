package models

import (
	"time"

	"github.com/google/uuid"
)

// Worker is a shop mechanic. Rating and response time drive candidate
// ranking; distance is an opaque tie-break supplied by an external routing
// collaborator.
type Worker struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	ShopID              uuid.UUID `db:"shop_id" json:"shop_id"`
	Name                string    `db:"name" json:"name"`
	Rating              float64   `db:"rating" json:"rating"`
	IsAvailable         bool      `db:"is_available" json:"is_available"`
	UnavailableReason   *string   `db:"unavailable_reason" json:"unavailable_reason,omitempty"`
	ResponseTimeMinutes int       `db:"response_time_minutes" json:"response_time_minutes"`
	DistanceKm          float64   `db:"distance_km" json:"distance_km"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}
