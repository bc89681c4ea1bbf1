package validation

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation limits
const (
	MinReasonLength      = 0
	MaxReasonLength      = 500
	MinServiceTypeLength = 3
	MaxServiceTypeLength = 100
	MaxBaseCost          = 1000000.0
)

// ValidateLength checks the rune length of a string field.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateReason checks a free-form reason supplied with a cancellation,
// emergency report or availability change.
func ValidateReason(reason string) error {
	return ValidateLength("reason", reason, MinReasonLength, MaxReasonLength)
}

// ValidateServiceType checks the service reference carried on a booking.
func ValidateServiceType(serviceType string) error {
	return ValidateLength("service_type", serviceType, MinServiceTypeLength, MaxServiceTypeLength)
}

// ValidateBaseCost checks the booking price.
func ValidateBaseCost(baseCost decimal.Decimal) error {
	if baseCost.IsNegative() {
		return fmt.Errorf("base_cost cannot be negative")
	}
	if baseCost.GreaterThan(decimal.NewFromFloat(MaxBaseCost)) {
		return fmt.Errorf("base_cost exceeds the maximum of %.0f", MaxBaseCost)
	}
	return nil
}

// ValidateScheduledAt checks that a new booking is scheduled in the future.
func ValidateScheduledAt(scheduledAt, now time.Time) error {
	if !scheduledAt.After(now) {
		return fmt.Errorf("scheduled_at must be in the future")
	}
	return nil
}
