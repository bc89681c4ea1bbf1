package valueobject

import "github.com/0001Moksh/moto-service-hub-sub000/internal/pkg/apperror"

// BookingStatus is the single status vocabulary of the platform. Customer
// and worker facing views both map onto it.
type BookingStatus string

const (
	BookingStatusCreated                 BookingStatus = "created"
	BookingStatusConfirmed               BookingStatus = "confirmed"
	BookingStatusAssigned                BookingStatus = "assigned"
	BookingStatusArrived                 BookingStatus = "arrived"
	BookingStatusInProgress              BookingStatus = "in_progress"
	BookingStatusCompleted               BookingStatus = "completed"
	BookingStatusCancelled               BookingStatus = "cancelled"
	BookingStatusPendingManualAssignment BookingStatus = "pending_manual_assignment"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusCreated, BookingStatusConfirmed, BookingStatusAssigned,
		BookingStatusArrived, BookingStatusInProgress, BookingStatusCompleted,
		BookingStatusCancelled, BookingStatusPendingManualAssignment:
		return true
	}
	return false
}

// CanTransitionTo returns true when the edge from s to newStatus exists.
// PendingManualAssignment only leaves via a manual admin assignment.
func (s BookingStatus) CanTransitionTo(newStatus BookingStatus) bool {
	transitions := map[BookingStatus][]BookingStatus{
		BookingStatusCreated:    {BookingStatusConfirmed, BookingStatusCancelled},
		BookingStatusConfirmed:  {BookingStatusAssigned, BookingStatusCancelled},
		BookingStatusAssigned:   {BookingStatusArrived, BookingStatusCancelled, BookingStatusPendingManualAssignment},
		BookingStatusArrived:    {BookingStatusInProgress, BookingStatusCancelled, BookingStatusPendingManualAssignment},
		BookingStatusInProgress: {BookingStatusCompleted, BookingStatusPendingManualAssignment},
		BookingStatusCompleted:  {},
		BookingStatusCancelled:  {},
		BookingStatusPendingManualAssignment: {BookingStatusAssigned},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

// IsCancellable reports whether a customer may still cancel from s.
// An in-progress job is resolved through worker-emergency reassignment,
// never through customer cancellation.
func (s BookingStatus) IsCancellable() bool {
	switch s {
	case BookingStatusCreated, BookingStatusConfirmed, BookingStatusAssigned, BookingStatusArrived:
		return true
	}
	return false
}

// IsTerminal reports whether the booking record is immutable.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// AllowsWorker reports whether a worker reference is legal in s.
func (s BookingStatus) AllowsWorker() bool {
	switch s {
	case BookingStatusAssigned, BookingStatusArrived, BookingStatusInProgress, BookingStatusCompleted:
		return true
	}
	return false
}

// IsReassignable reports whether the cascade may re-home a booking in s.
func (s BookingStatus) IsReassignable() bool {
	switch s {
	case BookingStatusAssigned, BookingStatusArrived, BookingStatusInProgress:
		return true
	}
	return false
}

func NewBookingStatus(status string) (BookingStatus, error) {
	s := BookingStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "invalid booking status")
	}
	return s, nil
}
