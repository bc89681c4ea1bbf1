package refund

import (
	"github.com/shopspring/decimal"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/domain/valueobject"
)

// Percentage maps booking status and minutes remaining before the scheduled
// service to the refund percentage. Pure and total: every status yields a
// defined result even when that status is unreachable through customer
// cancellation.
//
// Created/Confirmed refunds degrade as the appointment approaches; a
// booking whose scheduled time already passed still refunds in full.
// Once a worker is attached the percentage is fixed regardless of time.
func Percentage(status valueobject.BookingStatus, minutesToService int64) int {
	switch status {
	case valueobject.BookingStatusCreated, valueobject.BookingStatusConfirmed:
		switch {
		case minutesToService > 60:
			return 100
		case minutesToService > 30:
			return 75
		case minutesToService > 0:
			return 50
		default:
			return 100
		}
	case valueobject.BookingStatusAssigned, valueobject.BookingStatusArrived:
		return 50
	default:
		return 0
	}
}

// Amount computes round(baseCost * percentage / 100) to cents.
func Amount(baseCost decimal.Decimal, percentage int) decimal.Decimal {
	return baseCost.
		Mul(decimal.NewFromInt(int64(percentage))).
		Div(decimal.NewFromInt(100)).
		Round(2)
}
