package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/domain/valueobject"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/events"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/logger"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/models"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/pkg/apperror"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/repository"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/validation"
)

type ReassignmentBookings interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string, startedAt, completedAt *time.Time) (bool, error)
	AssignWorkerIfAvailable(ctx context.Context, bookingID, workerID uuid.UUID, fromStatus, toStatus string) (bool, error)
	ListOpenByWorker(ctx context.Context, workerID uuid.UUID) ([]models.Booking, error)
	ListPendingManualAssignment(ctx context.Context) ([]models.Booking, error)
}

type ReassignmentWorkers interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Worker, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool, reason string) error
}

type ReassignmentRecords interface {
	Insert(ctx context.Context, record *models.ReassignmentRecord) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.ReassignmentRecord, error)
}

// errCandidateLost aborts a claim transaction when the selected worker was
// taken or withdrawn between selection and write.
var errCandidateLost = errors.New("candidate no longer available")

// ReassignmentOutcome reports how one booking was re-homed.
type ReassignmentOutcome struct {
	BookingID        uuid.UUID
	NewWorkerID      *uuid.UUID
	Fallback         bool
	ManualAssignment bool
}

// ReassignmentService re-homes bookings when their worker drops out. It is
// built on the matching engine and never surfaces "no worker found" as a
// failure: the booking degrades to the manual assignment queue instead.
type ReassignmentService struct {
	bookings       ReassignmentBookings
	workers        ReassignmentWorkers
	records        ReassignmentRecords
	matching       CandidateFinder
	tx             TxManager
	events         EventPublisher
	locks          *bookingLocks
	candidateLimit int
	now            func() time.Time
}

func NewReassignmentService(bookings ReassignmentBookings, workers ReassignmentWorkers, records ReassignmentRecords, matching CandidateFinder, tx TxManager, events EventPublisher) *ReassignmentService {
	return &ReassignmentService{
		bookings:       bookings,
		workers:        workers,
		records:        records,
		matching:       matching,
		tx:             tx,
		events:         events,
		locks:          newBookingLocks(),
		candidateLimit: DefaultCandidateLimit,
		now:            time.Now,
	}
}

// SetCandidateLimit overrides how many ranked candidates each cascade pass
// walks through.
func (s *ReassignmentService) SetCandidateLimit(limit int) {
	if limit > 0 {
		s.candidateLimit = limit
	}
}

// Reassign handles an explicit reassignment request for one booking. A
// concurrent attempt on the same booking loses with a state conflict.
func (s *ReassignmentService) Reassign(ctx context.Context, bookingID uuid.UUID, actor models.Actor, reason string) (*ReassignmentOutcome, error) {
	if err := validation.ValidateReason(reason); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !(actor.Role == models.RoleCustomer && booking.IsOwnedBy(actor.ID)) {
		return nil, apperror.ErrForbidden
	}

	release, ok := s.locks.TryAcquire(bookingID)
	if !ok {
		return nil, apperror.StateConflict("a reassignment for this booking is already in progress", booking.Status)
	}
	defer release()

	if reason == "" {
		reason = "reassignment requested"
	}
	return s.reassignLocked(ctx, bookingID, &actor.ID, reason)
}

// ReportEmergency handles a worker's self-report on one specific booking.
// The worker keeps their availability; only this booking is re-homed.
func (s *ReassignmentService) ReportEmergency(ctx context.Context, workerID, bookingID uuid.UUID, actor models.Actor, reason string) (*ReassignmentOutcome, error) {
	if err := validation.ValidateReason(reason); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if !actor.IsStaff() && !(actor.Role == models.RoleWorker && actor.ID == workerID) {
		return nil, apperror.ErrForbidden
	}

	if _, err := s.loadWorker(ctx, workerID); err != nil {
		return nil, err
	}

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsAssignedTo(workerID) {
		return nil, apperror.New(apperror.ErrCodeValidation, "booking is not assigned to this worker")
	}

	release, ok := s.locks.TryAcquire(bookingID)
	if !ok {
		return nil, apperror.StateConflict("a reassignment for this booking is already in progress", booking.Status)
	}
	defer release()

	return s.reassignLocked(ctx, bookingID, &actor.ID, "worker emergency: "+reason)
}

// SetWorkerAvailability flips a worker's availability. Going unavailable
// cascades over every open booking of that worker, oldest first; each
// booking is re-homed independently, so one failure never stops the rest.
func (s *ReassignmentService) SetWorkerAvailability(ctx context.Context, workerID uuid.UUID, actor models.Actor, available bool, reason string) error {
	if err := validation.ValidateReason(reason); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if !actor.IsStaff() && !(actor.Role == models.RoleWorker && actor.ID == workerID) {
		return apperror.ErrForbidden
	}

	if _, err := s.loadWorker(ctx, workerID); err != nil {
		return err
	}

	if err := s.workers.SetAvailability(ctx, workerID, available, reason); err != nil {
		if errors.Is(err, repository.ErrWorkerNotFound) {
			return apperror.ErrWorkerNotFound
		}
		return err
	}

	if available {
		return nil
	}

	open, err := s.bookings.ListOpenByWorker(ctx, workerID)
	if err != nil {
		return err
	}

	cascadeReason := "worker unavailable"
	if reason != "" {
		cascadeReason = "worker unavailable: " + reason
	}

	for _, booking := range open {
		release := s.locks.Acquire(booking.ID)
		if _, err := s.reassignLocked(ctx, booking.ID, nil, cascadeReason); err != nil {
			if logger.Log != nil {
				logger.Log.WithError(err).WithField("booking_id", booking.ID).Error("cascade reassignment failed")
			}
		}
		release()
	}
	return nil
}

// History returns the booking's hand-off audit trail.
func (s *ReassignmentService) History(ctx context.Context, bookingID uuid.UUID, actor models.Actor) ([]models.ReassignmentRecord, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !booking.IsOwnedBy(actor.ID) {
		return nil, apperror.ErrForbidden
	}
	return s.records.ListByBooking(ctx, bookingID)
}

// PendingManualAssignments lists the bookings waiting for an admin.
func (s *ReassignmentService) PendingManualAssignments(ctx context.Context, actor models.Actor) ([]models.Booking, error) {
	if !actor.IsStaff() {
		return nil, apperror.ErrForbidden
	}
	return s.bookings.ListPendingManualAssignment(ctx)
}

// ManualAssign is the admin escape hatch for a booking the cascade gave up
// on: it attaches a chosen worker and returns the booking to Assigned.
func (s *ReassignmentService) ManualAssign(ctx context.Context, bookingID, workerID uuid.UUID, actor models.Actor) (*models.Booking, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	release, ok := s.locks.TryAcquire(bookingID)
	if !ok {
		return nil, apperror.StateConflict("a reassignment for this booking is already in progress", "")
	}
	defer release()

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	current := valueobject.BookingStatus(booking.Status)
	if current != valueobject.BookingStatusPendingManualAssignment {
		return nil, apperror.StateConflict("booking is not waiting for manual assignment", booking.Status)
	}

	worker, err := s.loadWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if worker.ShopID != booking.ShopID {
		return nil, apperror.New(apperror.ErrCodeValidation, "worker belongs to a different shop")
	}

	record := s.newRecord(booking, workerID, "manual assignment", false, &actor.ID)
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		claimed, err := s.bookings.AssignWorkerIfAvailable(txCtx, bookingID, workerID,
			string(valueobject.BookingStatusPendingManualAssignment), string(valueobject.BookingStatusAssigned))
		if err != nil {
			return err
		}
		if !claimed {
			return apperror.StateConflict("worker is not available", booking.Status)
		}
		return s.records.Insert(txCtx, record)
	})
	if err != nil {
		return nil, err
	}

	s.publishReassigned(record)

	booking.WorkerID = &workerID
	booking.Status = string(valueobject.BookingStatusAssigned)
	return booking, nil
}

// reassignLocked runs the per-booking cascade. The caller holds the
// booking's lock. actorID is nil when the platform itself triggered the
// hand-off.
func (s *ReassignmentService) reassignLocked(ctx context.Context, bookingID uuid.UUID, actorID *uuid.UUID, reason string) (*ReassignmentOutcome, error) {
	// Fresh read under the lock: the booking may have moved while we
	// waited.
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	current := valueobject.BookingStatus(booking.Status)
	if !current.IsReassignable() {
		return nil, apperror.StateConflict("booking cannot be reassigned from its current state", booking.Status)
	}

	var exclude []uuid.UUID
	if booking.WorkerID != nil {
		exclude = append(exclude, *booking.WorkerID)
	}

	// Quality pass first, then any available worker.
	passes := []struct {
		minRating float64
		fallback  bool
	}{
		{QualityMinRating, false},
		{FallbackMinRating, true},
	}

	for _, pass := range passes {
		candidates, err := s.matching.FindCandidates(ctx, booking.ShopID, exclude, pass.minRating, s.candidateLimit)
		if err != nil {
			return nil, err
		}

		for _, candidate := range candidates {
			record := s.newRecord(booking, candidate.ID, reason, pass.fallback, actorID)
			err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
				// The claim is guarded on the status observed above: a
				// cancellation or completion committing after the read
				// must win, never be overwritten.
				claimed, err := s.bookings.AssignWorkerIfAvailable(txCtx, bookingID, candidate.ID, booking.Status, booking.Status)
				if err != nil {
					return err
				}
				if !claimed {
					return errCandidateLost
				}
				return s.records.Insert(txCtx, record)
			})
			if errors.Is(err, errCandidateLost) {
				continue
			}
			if err != nil {
				return nil, err
			}

			s.publishReassigned(record)
			workerID := candidate.ID
			return &ReassignmentOutcome{
				BookingID:   bookingID,
				NewWorkerID: &workerID,
				Fallback:    pass.fallback,
			}, nil
		}
	}

	// Nobody left: degrade to the manual assignment queue and alert the
	// admins. This is defined behavior, not a failure. The write carries
	// the same observed-status guard as the claims.
	moved, err := s.bookings.UpdateStatus(ctx, bookingID, booking.Status, string(valueobject.BookingStatusPendingManualAssignment), nil, nil)
	if err != nil {
		return nil, err
	}
	if !moved {
		current, err := s.loadBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		return nil, apperror.StateConflict("booking state changed concurrently", current.Status)
	}

	s.publish(events.TopicManualAssignmentRequired, events.ManualAssignmentRequired{
		BookingID:   bookingID,
		ShopID:      booking.ShopID,
		OldWorkerID: booking.WorkerID,
		Reason:      reason,
		RaisedAt:    s.now(),
	})

	return &ReassignmentOutcome{BookingID: bookingID, ManualAssignment: true}, nil
}

func (s *ReassignmentService) newRecord(booking *models.Booking, newWorkerID uuid.UUID, reason string, fallback bool, actorID *uuid.UUID) *models.ReassignmentRecord {
	return &models.ReassignmentRecord{
		ID:           uuid.New(),
		BookingID:    booking.ID,
		OldWorkerID:  booking.WorkerID,
		NewWorkerID:  newWorkerID,
		Reason:       reason,
		Fallback:     fallback,
		ReassignedBy: actorID,
		ReassignedAt: s.now(),
	}
}

func (s *ReassignmentService) loadBooking(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, apperror.ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (s *ReassignmentService) loadWorker(ctx context.Context, workerID uuid.UUID) (*models.Worker, error) {
	worker, err := s.workers.GetByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, repository.ErrWorkerNotFound) {
			return nil, apperror.ErrWorkerNotFound
		}
		return nil, err
	}
	return worker, nil
}

func (s *ReassignmentService) publishReassigned(record *models.ReassignmentRecord) {
	s.publish(events.TopicWorkerReassigned, events.WorkerReassigned{
		BookingID:    record.BookingID,
		OldWorkerID:  record.OldWorkerID,
		NewWorkerID:  record.NewWorkerID,
		Fallback:     record.Fallback,
		Reason:       record.Reason,
		ReassignedAt: record.ReassignedAt,
	})
}

func (s *ReassignmentService) publish(topic string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(topic, payload); err != nil && logger.Log != nil {
		logger.Log.WithError(err).WithField("topic", topic).Warn("event publish failed")
	}
}
