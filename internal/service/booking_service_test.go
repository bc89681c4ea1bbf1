package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/domain/valueobject"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/models"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/pkg/apperror"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/repository"
)

// passthroughTx runs the transactional function directly, so in-transaction
// behavior is observable through the repository mocks.
type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu        sync.Mutex
	published []publishedEvent
}

type publishedEvent struct {
	Topic   string
	Payload interface{}
}

func (p *capturePublisher) Publish(topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publishedEvent{Topic: topic, Payload: payload})
	return nil
}

func (p *capturePublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.published))
	for _, e := range p.published {
		out = append(out, e.Topic)
	}
	return out
}

type mockBookingStore struct {
	mock.Mock
}

func (m *mockBookingStore) Create(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *mockBookingStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingStore) UpdateStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string, startedAt, completedAt *time.Time) (bool, error) {
	args := m.Called(ctx, id, fromStatus, toStatus, startedAt, completedAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockBookingStore) MarkCancelled(ctx context.Context, id, cancellationID uuid.UUID, cancelledAt time.Time) error {
	args := m.Called(ctx, id, cancellationID, cancelledAt)
	return args.Error(0)
}

func (m *mockBookingStore) AssignWorkerIfAvailable(ctx context.Context, bookingID, workerID uuid.UUID, fromStatus, toStatus string) (bool, error) {
	args := m.Called(ctx, bookingID, workerID, fromStatus, toStatus)
	return args.Bool(0), args.Error(1)
}

type mockTokenLedger struct {
	mock.Mock
}

func (m *mockTokenLedger) ChargeCancellation(ctx context.Context, customerID uuid.UUID, at time.Time) (int, error) {
	args := m.Called(ctx, customerID, at)
	return args.Int(0), args.Error(1)
}

type mockCancellationRecords struct {
	mock.Mock
}

func (m *mockCancellationRecords) InsertCancellationRecord(ctx context.Context, record *models.CancellationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type mockCandidateFinder struct {
	mock.Mock
}

func (m *mockCandidateFinder) FindCandidates(ctx context.Context, shopID uuid.UUID, excludeWorkerIDs []uuid.UUID, minRating float64, limit int) ([]models.Worker, error) {
	args := m.Called(ctx, shopID, excludeWorkerIDs, minRating, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Worker), args.Error(1)
}

type bookingFixture struct {
	store    *mockBookingStore
	ledger   *mockTokenLedger
	records  *mockCancellationRecords
	matching *mockCandidateFinder
	events   *capturePublisher
	svc      *BookingService
	now      time.Time
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	f := &bookingFixture{
		store:    new(mockBookingStore),
		ledger:   new(mockTokenLedger),
		records:  new(mockCancellationRecords),
		matching: new(mockCandidateFinder),
		events:   &capturePublisher{},
		now:      time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewBookingService(f.store, f.ledger, f.records, f.matching, passthroughTx{}, f.events)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func customerActor() models.Actor {
	return models.Actor{ID: uuid.New(), Role: models.RoleCustomer}
}

func (f *bookingFixture) booking(customerID uuid.UUID, status valueobject.BookingStatus) *models.Booking {
	return &models.Booking{
		ID:          uuid.New(),
		CustomerID:  customerID,
		ShopID:      uuid.New(),
		ServiceType: "oil change",
		BaseCost:    decimal.NewFromInt(1000),
		Status:      string(status),
		ScheduledAt: f.now.Add(90 * time.Minute),
	}
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	f := newBookingFixture(t)
	actor := customerActor()
	ctx := context.Background()

	f.store.On("Create", ctx, mock.AnythingOfType("*models.Booking")).Return(nil)

	booking, err := f.svc.CreateBooking(ctx, actor, CreateBookingInput{
		ShopID:      uuid.New(),
		ServiceType: "chain replacement",
		BaseCost:    decimal.NewFromInt(500),
		ScheduledAt: f.now.Add(24 * time.Hour),
	})

	assert.NoError(t, err)
	assert.Equal(t, actor.ID, booking.CustomerID)
	assert.Equal(t, string(valueobject.BookingStatusCreated), booking.Status)
}

func TestBookingService_CreateBooking_WorkerForbidden(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, models.Actor{ID: uuid.New(), Role: models.RoleWorker}, CreateBookingInput{})

	assert.True(t, apperror.IsForbidden(err))
	f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingService_CreateBooking_PastSchedule(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, customerActor(), CreateBookingInput{
		ShopID:      uuid.New(),
		ServiceType: "oil change",
		BaseCost:    decimal.NewFromInt(100),
		ScheduledAt: f.now.Add(-time.Hour),
	})

	assert.True(t, apperror.IsValidation(err))
}

func TestBookingService_GetBooking_OwnerAndStranger(t *testing.T) {
	f := newBookingFixture(t)
	actor := customerActor()
	ctx := context.Background()

	booking := f.booking(actor.ID, valueobject.BookingStatusCreated)
	f.store.On("GetByID", ctx, booking.ID).Return(booking, nil)

	got, err := f.svc.GetBooking(ctx, booking.ID, actor)
	assert.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)

	_, err = f.svc.GetBooking(ctx, booking.ID, customerActor())
	assert.True(t, apperror.IsForbidden(err))
}

func TestBookingService_Confirm_WrongState(t *testing.T) {
	f := newBookingFixture(t)
	actor := customerActor()
	ctx := context.Background()

	booking := f.booking(actor.ID, valueobject.BookingStatusAssigned)
	f.store.On("GetByID", ctx, booking.ID).Return(booking, nil)

	_, err := f.svc.Confirm(ctx, booking.ID, actor)

	assert.True(t, apperror.IsStateConflict(err))
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, string(valueobject.BookingStatusAssigned), appErr.Details["current_status"])
}

func TestBookingService_Confirm_Success(t *testing.T) {
	f := newBookingFixture(t)
	actor := customerActor()
	ctx := context.Background()

	booking := f.booking(actor.ID, valueobject.BookingStatusCreated)
	f.store.On("GetByID", ctx, booking.ID).Return(booking, nil)
	f.store.On("UpdateStatus", ctx, booking.ID, string(valueobject.BookingStatusCreated), string(valueobject.BookingStatusConfirmed), (*time.Time)(nil), (*time.Time)(nil)).Return(true, nil)

	got, err := f.svc.Confirm(ctx, booking.ID, actor)

	assert.NoError(t, err)
	assert.Equal(t, string(valueobject.BookingStatusConfirmed), got.Status)
}

func TestBookingService_Confirm_LostRaceReportsCurrentState(t *testing.T) {
	f := newBookingFixture(t)
	actor := customerActor()
	ctx := context.Background()

	booking := f.booking(actor.ID, valueobject.BookingStatusCreated)
	cancelled := *booking
	cancelled.Status = string(valueobject.BookingStatusCancelled)

	// The guarded write hits zero rows because a cancellation committed
	// between the read and the update; the re-read shows the winner.
	f.store.On("GetByID", ctx, booking.ID).Return(booking, nil).Once()
	f.store.On("UpdateStatus", ctx, booking.ID, string(valueobject.BookingStatusCreated), string(valueobject.BookingStatusConfirmed), (*time.Time)(nil), (*time.Time)(nil)).Return(false, nil)
	f.store.On("GetByID", ctx, booking.ID).Return(&cancelled, nil).Once()

	_, err := f.svc.Confirm(ctx, booking.ID, actor)

	assert.True(t, apperror.IsStateConflict(err))
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, string(valueobject.BookingStatusCancelled), appErr.Details["current_status"])
}

func TestBookingService_Assign_BestCandidateWins(t *testing.T) {
	f := newBookingFixture(t)
	actor := customerActor()
	ctx := context.Background()

	booking := f.booking(actor.ID, valueobject.BookingStatusConfirmed)
	best := models.Worker{ID: uuid.New(), Rating: 4.9}
	second := models.Worker{ID: uuid.New(), Rating: 4.2}

	f.store.On("GetByID", ctx, booking.ID).Return(booking, nil)
	f.matching.On("FindCandidates", ctx, booking.ShopID, []uuid.UUID(nil), QualityMinRating, DefaultCandidateLimit).
		Return([]models.Worker{best, second}, nil)
	f.store.On("AssignWorkerIfAvailable", ctx, booking.ID, best.ID, string(valueobject.BookingStatusConfirmed), string(valueobject.BookingStatusAssigned)).Return(true, nil)

	workerID, err := f.svc.Assign(ctx, booking.ID, actor)

	assert.NoError(t, err)
	assert.Equal(t, best.ID, *workerID)
	f.store.AssertNotCalled(t, "AssignWorkerIfAvailable", ctx, booking.ID, second.ID, mock.Anything, mock.Anything)
}

func TestBookingService_Assign_ClaimRetriesNextCandidate(t *testing.T) {
	f := newBookingFixture(t)
	actor := customerActor()
	ctx := context.Background()

	booking := f.booking(actor.ID, valueobject.BookingStatusConfirmed)
	taken := models.Worker{ID: uuid.New(), Rating: 4.9}
	free := models.Worker{ID: uuid.New(), Rating: 4.2}

	f.store.On("GetByID", ctx, booking.ID).Return(booking, nil)
	f.matching.On("FindCandidates", ctx, booking.ShopID, []uuid.UUID(nil), QualityMinRating, DefaultCandidateLimit).
		Return([]models.Worker{taken, free}, nil)
	// The top candidate was claimed by a concurrent booking.
	f.store.On("AssignWorkerIfAvailable", ctx, booking.ID, taken.ID, string(valueobject.BookingStatusConfirmed), string(valueobject.BookingStatusAssigned)).Return(false, nil)
	f.store.On("AssignWorkerIfAvailable", ctx, booking.ID, free.ID, string(valueobject.BookingStatusConfirmed), string(valueobject.BookingStatusAssigned)).Return(true, nil)

	workerID, err := f.svc.Assign(ctx, booking.ID, actor)

	assert.NoError(t, err)
	assert.Equal(t, free.ID, *workerID)
}

func TestBookingService_Assign_NoCandidates(t *testing.T) {
	f := newBookingFixture(t)
	actor := customerActor()
	ctx := context.Background()

	booking := f.booking(actor.ID, valueobject.BookingStatusConfirmed)
	f.store.On("GetByID", ctx, booking.ID).Return(booking, nil)
	f.matching.On("FindCandidates", ctx, booking.ShopID, []uuid.UUID(nil), QualityMinRating, DefaultCandidateLimit).
		Return([]models.Worker{}, nil)

	workerID, err := f.svc.Assign(ctx, booking.ID, actor)

	// No candidate is not an error; the booking stays confirmed.
	assert.NoError(t, err)
	assert.Nil(t, workerID)
}

func TestBookingService_Advance_OnlyAssignedWorker(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	workerID := uuid.New()
	booking := f.booking(uuid.New(), valueobject.BookingStatusAssigned)
	booking.WorkerID = &workerID
	f.store.On("GetByID", ctx, booking.ID).Return(booking, nil)

	_, err := f.svc.Advance(ctx, booking.ID, models.Actor{ID: uuid.New(), Role: models.RoleWorker}, "arrived")

	assert.True(t, apperror.IsForbidden(err))
}

func TestBookingService_Advance_SkippingStepsConflicts(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	workerID := uuid.New()
	booking := f.booking(uuid.New(), valueobject.BookingStatusAssigned)
	booking.WorkerID = &workerID
	f.store.On("GetByID", ctx, booking.ID).Return(booking, nil)

	_, err := f.svc.Advance(ctx, booking.ID, models.Actor{ID: workerID, Role: models.RoleWorker}, "completed")

	assert.True(t, apperror.IsStateConflict(err))
}

func TestBookingService_Advance_InProgressStampsStartedAt(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	workerID := uuid.New()
	booking := f.booking(uuid.New(), valueobject.BookingStatusArrived)
	booking.WorkerID = &workerID
	f.store.On("GetByID", ctx, booking.ID).Return(booking, nil)
	f.store.On("UpdateStatus", ctx, booking.ID, string(valueobject.BookingStatusArrived), string(valueobject.BookingStatusInProgress), &f.now, (*time.Time)(nil)).Return(true, nil)

	got, err := f.svc.Advance(ctx, booking.ID, models.Actor{ID: workerID, Role: models.RoleWorker}, "in_progress")

	assert.NoError(t, err)
	assert.Equal(t, f.now, *got.StartedAt)
	assert.Nil(t, got.CompletedAt)
}

func TestBookingService_Advance_CompletedPublishesEvent(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	workerID := uuid.New()
	booking := f.booking(uuid.New(), valueobject.BookingStatusInProgress)
	booking.WorkerID = &workerID
	f.store.On("GetByID", ctx, booking.ID).Return(booking, nil)
	f.store.On("UpdateStatus", ctx, booking.ID, string(valueobject.BookingStatusInProgress), string(valueobject.BookingStatusCompleted), (*time.Time)(nil), &f.now).Return(true, nil)

	got, err := f.svc.Advance(ctx, booking.ID, models.Actor{ID: workerID, Role: models.RoleWorker}, "completed")

	assert.NoError(t, err)
	assert.Equal(t, f.now, *got.CompletedAt)
	assert.Contains(t, f.events.topics(), "booking.completed")
}

func TestBookingService_Cancel_Success(t *testing.T) {
	f := newBookingFixture(t)
	actor := customerActor()
	ctx := context.Background()

	// Confirmed booking 90 minutes before service: full refund band.
	booking := f.booking(actor.ID, valueobject.BookingStatusConfirmed)
	f.store.On("GetByIDForUpdate", ctx, booking.ID).Return(booking, nil)
	f.ledger.On("ChargeCancellation", ctx, actor.ID, f.now).Return(1, nil)
	f.records.On("InsertCancellationRecord", ctx, mock.AnythingOfType("*models.CancellationRecord")).Return(nil)
	f.store.On("MarkCancelled", ctx, booking.ID, mock.AnythingOfType("uuid.UUID"), f.now).Return(nil)

	result, err := f.svc.Cancel(ctx, booking.ID, actor, "change of plans")

	assert.NoError(t, err)
	assert.Equal(t, 1, result.TokensDeducted)
	assert.Equal(t, 100, result.RefundPercentage)
	assert.True(t, result.RefundAmount.Equal(decimal.NewFromInt(1000)))
	assert.Contains(t, f.events.topics(), "booking.cancelled")
}

func TestBookingService_Cancel_AssignedHalfRefund(t *testing.T) {
	f := newBookingFixture(t)
	actor := customerActor()
	ctx := context.Background()

	workerID := uuid.New()
	booking := f.booking(actor.ID, valueobject.BookingStatusAssigned)
	booking.WorkerID = &workerID
	booking.ScheduledAt = f.now.Add(10 * time.Minute)

	f.store.On("GetByIDForUpdate", ctx, booking.ID).Return(booking, nil)
	f.ledger.On("ChargeCancellation", ctx, actor.ID, f.now).Return(2, nil)
	f.records.On("InsertCancellationRecord", ctx, mock.AnythingOfType("*models.CancellationRecord")).Return(nil)
	f.store.On("MarkCancelled", ctx, booking.ID, mock.AnythingOfType("uuid.UUID"), f.now).Return(nil)

	result, err := f.svc.Cancel(ctx, booking.ID, actor, "found another shop")

	assert.NoError(t, err)
	assert.Equal(t, 2, result.TokensDeducted)
	assert.Equal(t, 50, result.RefundPercentage)
	assert.True(t, result.RefundAmount.Equal(decimal.NewFromInt(500)))
}

func TestBookingService_Cancel_InProgressConflicts(t *testing.T) {
	f := newBookingFixture(t)
	actor := customerActor()
	ctx := context.Background()

	booking := f.booking(actor.ID, valueobject.BookingStatusInProgress)
	f.store.On("GetByIDForUpdate", ctx, booking.ID).Return(booking, nil)

	_, err := f.svc.Cancel(ctx, booking.ID, actor, "too late")

	assert.True(t, apperror.IsStateConflict(err))
	f.ledger.AssertNotCalled(t, "ChargeCancellation", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_Cancel_LedgerFailureAbortsTransaction(t *testing.T) {
	f := newBookingFixture(t)
	actor := customerActor()
	ctx := context.Background()

	booking := f.booking(actor.ID, valueobject.BookingStatusConfirmed)
	f.store.On("GetByIDForUpdate", ctx, booking.ID).Return(booking, nil)
	f.ledger.On("ChargeCancellation", ctx, actor.ID, f.now).Return(0, apperror.InsufficientTokens(1))

	_, err := f.svc.Cancel(ctx, booking.ID, actor, "no tokens left")

	assert.True(t, apperror.IsInsufficientTokens(err))
	f.records.AssertNotCalled(t, "InsertCancellationRecord", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "MarkCancelled", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.events.topics())
}

func TestBookingService_Cancel_NotFound(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	id := uuid.New()
	f.store.On("GetByIDForUpdate", ctx, id).Return(nil, repository.ErrBookingNotFound)

	_, err := f.svc.Cancel(ctx, id, customerActor(), "gone")

	assert.True(t, apperror.IsNotFound(err))
}

func TestBookingService_Cancel_StrangerForbidden(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	booking := f.booking(uuid.New(), valueobject.BookingStatusCreated)
	f.store.On("GetByIDForUpdate", ctx, booking.ID).Return(booking, nil)

	_, err := f.svc.Cancel(ctx, booking.ID, customerActor(), "not mine")

	assert.True(t, apperror.IsForbidden(err))
	f.ledger.AssertNotCalled(t, "ChargeCancellation", mock.Anything, mock.Anything, mock.Anything)
}
