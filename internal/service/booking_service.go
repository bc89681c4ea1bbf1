package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/domain/refund"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/domain/valueobject"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/events"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/logger"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/models"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/pkg/apperror"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/repository"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/validation"
)

type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string, startedAt, completedAt *time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id, cancellationID uuid.UUID, cancelledAt time.Time) error
	AssignWorkerIfAvailable(ctx context.Context, bookingID, workerID uuid.UUID, fromStatus, toStatus string) (bool, error)
}

type TokenLedger interface {
	ChargeCancellation(ctx context.Context, customerID uuid.UUID, at time.Time) (int, error)
}

type CancellationRecords interface {
	InsertCancellationRecord(ctx context.Context, record *models.CancellationRecord) error
}

type CandidateFinder interface {
	FindCandidates(ctx context.Context, shopID uuid.UUID, excludeWorkerIDs []uuid.UUID, minRating float64, limit int) ([]models.Worker, error)
}

// BookingService owns the booking lifecycle. Every mutation of a booking
// goes through one of its operations.
type BookingService struct {
	bookings       BookingStore
	ledger         TokenLedger
	records        CancellationRecords
	matching       CandidateFinder
	tx             TxManager
	events         EventPublisher
	candidateLimit int
	now            func() time.Time
}

func NewBookingService(bookings BookingStore, ledger TokenLedger, records CancellationRecords, matching CandidateFinder, tx TxManager, events EventPublisher) *BookingService {
	return &BookingService{
		bookings:       bookings,
		ledger:         ledger,
		records:        records,
		matching:       matching,
		tx:             tx,
		events:         events,
		candidateLimit: DefaultCandidateLimit,
		now:            time.Now,
	}
}

// SetCandidateLimit overrides how many ranked candidates an assignment
// attempt walks through.
func (s *BookingService) SetCandidateLimit(limit int) {
	if limit > 0 {
		s.candidateLimit = limit
	}
}

// CreateBookingInput carries the validated fields of a new booking.
type CreateBookingInput struct {
	ShopID      uuid.UUID
	ServiceType string
	BaseCost    decimal.Decimal
	ScheduledAt time.Time
}

// CancelResult is the receipt of a successful cancellation.
type CancelResult struct {
	CancellationID   uuid.UUID
	TokensDeducted   int
	RefundAmount     decimal.Decimal
	RefundPercentage int
}

// CreateBooking inserts a booking in the Created state on behalf of the
// acting customer.
func (s *BookingService) CreateBooking(ctx context.Context, actor models.Actor, input CreateBookingInput) (*models.Booking, error) {
	if actor.Role != models.RoleCustomer && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	if err := validation.ValidateServiceType(input.ServiceType); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateBaseCost(input.BaseCost); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateScheduledAt(input.ScheduledAt, s.now()); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	booking := &models.Booking{
		ID:          uuid.New(),
		CustomerID:  actor.ID,
		ShopID:      input.ShopID,
		ServiceType: input.ServiceType,
		BaseCost:    input.BaseCost,
		Status:      string(valueobject.BookingStatusCreated),
		ScheduledAt: input.ScheduledAt,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// GetBooking returns a booking the actor is allowed to see.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID, actor models.Actor) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !actor.IsStaff() && !booking.IsOwnedBy(actor.ID) && !booking.IsAssignedTo(actor.ID) {
		return nil, apperror.ErrForbidden
	}
	return booking, nil
}

// Confirm moves a booking from Created to Confirmed.
func (s *BookingService) Confirm(ctx context.Context, bookingID uuid.UUID, actor models.Actor) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeCustomer(booking, actor); err != nil {
		return nil, err
	}

	current := valueobject.BookingStatus(booking.Status)
	if current != valueobject.BookingStatusCreated {
		return nil, apperror.StateConflict("booking can only be confirmed from the created state", booking.Status)
	}

	moved, err := s.bookings.UpdateStatus(ctx, bookingID, booking.Status, string(valueobject.BookingStatusConfirmed), nil, nil)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, s.concurrentStatusChange(ctx, bookingID)
	}
	booking.Status = string(valueobject.BookingStatusConfirmed)
	return booking, nil
}

// Assign attaches the best available worker to a confirmed booking. A nil
// worker id with a nil error means the shop had no candidate: the booking
// stays confirmed and the caller retries or escalates.
func (s *BookingService) Assign(ctx context.Context, bookingID uuid.UUID, actor models.Actor) (*uuid.UUID, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeCustomer(booking, actor); err != nil {
		return nil, err
	}

	current := valueobject.BookingStatus(booking.Status)
	if current != valueobject.BookingStatusConfirmed {
		return nil, apperror.StateConflict("booking can only be assigned from the confirmed state", booking.Status)
	}

	candidates, err := s.matching.FindCandidates(ctx, booking.ShopID, nil, QualityMinRating, s.candidateLimit)
	if err != nil {
		return nil, err
	}

	// Selection and claim are not atomic as a pair: the claim re-checks
	// availability and the booking's status, and moves on when a candidate
	// was taken concurrently.
	for _, candidate := range candidates {
		claimed, err := s.bookings.AssignWorkerIfAvailable(ctx, bookingID, candidate.ID,
			string(valueobject.BookingStatusConfirmed), string(valueobject.BookingStatusAssigned))
		if err != nil {
			return nil, err
		}
		if claimed {
			workerID := candidate.ID
			return &workerID, nil
		}
	}

	return nil, nil
}

// Advance moves an assigned booking one step along
// Assigned -> Arrived -> InProgress -> Completed. Only the assigned worker
// may advance it.
func (s *BookingService) Advance(ctx context.Context, bookingID uuid.UUID, actor models.Actor, target string) (*models.Booking, error) {
	targetStatus, err := valueobject.NewBookingStatus(target)
	if err != nil {
		return nil, err
	}
	switch targetStatus {
	case valueobject.BookingStatusArrived, valueobject.BookingStatusInProgress, valueobject.BookingStatusCompleted:
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "target must be arrived, in_progress or completed")
	}

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.IsAssignedTo(actor.ID) {
		return nil, apperror.ErrForbidden
	}

	current := valueobject.BookingStatus(booking.Status)
	if !current.CanTransitionTo(targetStatus) {
		return nil, apperror.StateConflict("booking cannot advance to "+target, booking.Status)
	}

	var startedAt, completedAt *time.Time
	now := s.now()
	switch targetStatus {
	case valueobject.BookingStatusInProgress:
		startedAt = &now
	case valueobject.BookingStatusCompleted:
		completedAt = &now
	}

	moved, err := s.bookings.UpdateStatus(ctx, bookingID, booking.Status, string(targetStatus), startedAt, completedAt)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, s.concurrentStatusChange(ctx, bookingID)
	}

	booking.Status = string(targetStatus)
	if startedAt != nil {
		booking.StartedAt = startedAt
	}
	if completedAt != nil {
		booking.CompletedAt = completedAt
		s.publish(events.TopicBookingCompleted, events.BookingCompleted{
			BookingID:   booking.ID,
			WorkerID:    actor.ID,
			ShopID:      booking.ShopID,
			CompletedAt: now,
		})
	}
	return booking, nil
}

// Cancel ends a booking on the customer's initiative. Ledger debit, status
// transition and receipt creation commit together or not at all.
func (s *BookingService) Cancel(ctx context.Context, bookingID uuid.UUID, actor models.Actor, reason string) (*CancelResult, error) {
	if err := validation.ValidateReason(reason); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	// One timestamp for the whole operation: refund banding and ledger
	// month arithmetic must not disagree.
	now := s.now()

	var (
		result CancelResult
		event  events.BookingCancelled
	)

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		booking, err := s.bookings.GetByIDForUpdate(txCtx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrBookingNotFound) {
				return apperror.ErrBookingNotFound
			}
			return err
		}

		if err := s.authorizeCustomer(booking, actor); err != nil {
			return err
		}

		current := valueobject.BookingStatus(booking.Status)
		if !current.IsCancellable() {
			return apperror.StateConflict("booking cannot be cancelled from its current state", booking.Status)
		}

		tokens, err := s.ledger.ChargeCancellation(txCtx, booking.CustomerID, now)
		if err != nil {
			return err
		}

		minutesToService := int64(booking.ScheduledAt.Sub(now).Minutes())
		percentage := refund.Percentage(current, minutesToService)
		amount := refund.Amount(booking.BaseCost, percentage)

		record := &models.CancellationRecord{
			ID:               uuid.New(),
			CustomerID:       booking.CustomerID,
			BookingID:        booking.ID,
			CancelledAt:      now,
			TokensDeducted:   tokens,
			RefundAmount:     amount,
			RefundPercentage: percentage,
			Reason:           reason,
		}
		if err := s.records.InsertCancellationRecord(txCtx, record); err != nil {
			return err
		}

		if err := s.bookings.MarkCancelled(txCtx, booking.ID, record.ID, now); err != nil {
			return err
		}

		result = CancelResult{
			CancellationID:   record.ID,
			TokensDeducted:   tokens,
			RefundAmount:     amount,
			RefundPercentage: percentage,
		}
		event = events.BookingCancelled{
			BookingID:        booking.ID,
			CustomerID:       booking.CustomerID,
			CancellationID:   record.ID,
			TokensDeducted:   tokens,
			RefundAmount:     amount,
			RefundPercentage: percentage,
			Reason:           reason,
			CancelledAt:      now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.TopicBookingCancelled, event)
	return &result, nil
}

func (s *BookingService) loadBooking(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, apperror.ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

// concurrentStatusChange re-reads a booking whose guarded status write hit
// zero rows and reports the now-current state to the caller.
func (s *BookingService) concurrentStatusChange(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	return apperror.StateConflict("booking state changed concurrently", booking.Status)
}

// authorizeCustomer admits the booking's customer and platform/shop staff.
func (s *BookingService) authorizeCustomer(booking *models.Booking, actor models.Actor) error {
	if actor.IsStaff() {
		return nil
	}
	if actor.Role == models.RoleCustomer && booking.IsOwnedBy(actor.ID) {
		return nil
	}
	return apperror.ErrForbidden
}

func (s *BookingService) publish(topic string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(topic, payload); err != nil && logger.Log != nil {
		logger.Log.WithError(err).WithField("topic", topic).Warn("event publish failed")
	}
}
