package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_CanTransitionTo_HappyPath(t *testing.T) {
	assert.True(t, BookingStatusCreated.CanTransitionTo(BookingStatusConfirmed))
	assert.True(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusAssigned))
	assert.True(t, BookingStatusAssigned.CanTransitionTo(BookingStatusArrived))
	assert.True(t, BookingStatusArrived.CanTransitionTo(BookingStatusInProgress))
	assert.True(t, BookingStatusInProgress.CanTransitionTo(BookingStatusCompleted))
}

func TestBookingStatus_CanTransitionTo_Cancellation(t *testing.T) {
	assert.True(t, BookingStatusCreated.CanTransitionTo(BookingStatusCancelled))
	assert.True(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusCancelled))
	assert.True(t, BookingStatusAssigned.CanTransitionTo(BookingStatusCancelled))
	assert.True(t, BookingStatusArrived.CanTransitionTo(BookingStatusCancelled))

	assert.False(t, BookingStatusInProgress.CanTransitionTo(BookingStatusCancelled))
	assert.False(t, BookingStatusCompleted.CanTransitionTo(BookingStatusCancelled))
}

func TestBookingStatus_CanTransitionTo_ManualAssignment(t *testing.T) {
	assert.True(t, BookingStatusAssigned.CanTransitionTo(BookingStatusPendingManualAssignment))
	assert.True(t, BookingStatusArrived.CanTransitionTo(BookingStatusPendingManualAssignment))
	assert.True(t, BookingStatusInProgress.CanTransitionTo(BookingStatusPendingManualAssignment))
	assert.True(t, BookingStatusPendingManualAssignment.CanTransitionTo(BookingStatusAssigned))

	assert.False(t, BookingStatusCreated.CanTransitionTo(BookingStatusPendingManualAssignment))
	assert.False(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusPendingManualAssignment))
	assert.False(t, BookingStatusPendingManualAssignment.CanTransitionTo(BookingStatusInProgress))
}

func TestBookingStatus_TerminalStatesHaveNoEdges(t *testing.T) {
	all := []BookingStatus{
		BookingStatusCreated, BookingStatusConfirmed, BookingStatusAssigned,
		BookingStatusArrived, BookingStatusInProgress, BookingStatusCompleted,
		BookingStatusCancelled, BookingStatusPendingManualAssignment,
	}

	for _, target := range all {
		assert.False(t, BookingStatusCompleted.CanTransitionTo(target), "completed -> %s must not exist", target)
		assert.False(t, BookingStatusCancelled.CanTransitionTo(target), "cancelled -> %s must not exist", target)
	}
}

func TestBookingStatus_NoBackwardEdges(t *testing.T) {
	assert.False(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusCreated))
	assert.False(t, BookingStatusArrived.CanTransitionTo(BookingStatusAssigned))
	assert.False(t, BookingStatusInProgress.CanTransitionTo(BookingStatusArrived))
	assert.False(t, BookingStatusCreated.CanTransitionTo(BookingStatusAssigned))
	assert.False(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusInProgress))
}

func TestBookingStatus_IsCancellable(t *testing.T) {
	assert.True(t, BookingStatusCreated.IsCancellable())
	assert.True(t, BookingStatusConfirmed.IsCancellable())
	assert.True(t, BookingStatusAssigned.IsCancellable())
	assert.True(t, BookingStatusArrived.IsCancellable())

	assert.False(t, BookingStatusInProgress.IsCancellable())
	assert.False(t, BookingStatusCompleted.IsCancellable())
	assert.False(t, BookingStatusCancelled.IsCancellable())
	assert.False(t, BookingStatusPendingManualAssignment.IsCancellable())
}

func TestBookingStatus_IsReassignable(t *testing.T) {
	assert.True(t, BookingStatusAssigned.IsReassignable())
	assert.True(t, BookingStatusArrived.IsReassignable())
	assert.True(t, BookingStatusInProgress.IsReassignable())

	assert.False(t, BookingStatusCreated.IsReassignable())
	assert.False(t, BookingStatusConfirmed.IsReassignable())
	assert.False(t, BookingStatusCompleted.IsReassignable())
}

func TestNewBookingStatus(t *testing.T) {
	s, err := NewBookingStatus("in_progress")
	assert.NoError(t, err)
	assert.Equal(t, BookingStatusInProgress, s)

	_, err = NewBookingStatus("started")
	assert.Error(t, err)
}
