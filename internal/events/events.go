package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Topics consumed by external notification and audit collaborators.
const (
	TopicBookingCancelled         = "booking.cancelled"
	TopicBookingCompleted         = "booking.completed"
	TopicWorkerReassigned         = "worker.reassigned"
	TopicManualAssignmentRequired = "booking.manual_assignment_required"
)

// AllTopics lists every topic the core publishes.
var AllTopics = []string{
	TopicBookingCancelled,
	TopicBookingCompleted,
	TopicWorkerReassigned,
	TopicManualAssignmentRequired,
}

// BookingCancelled is emitted after a cancellation commits.
type BookingCancelled struct {
	BookingID        uuid.UUID       `json:"booking_id"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	CancellationID   uuid.UUID       `json:"cancellation_id"`
	TokensDeducted   int             `json:"tokens_deducted"`
	RefundAmount     decimal.Decimal `json:"refund_amount"`
	RefundPercentage int             `json:"refund_percentage"`
	Reason           string          `json:"reason"`
	CancelledAt      time.Time       `json:"cancelled_at"`
}

// BookingCompleted feeds worker performance aggregation.
type BookingCompleted struct {
	BookingID   uuid.UUID `json:"booking_id"`
	WorkerID    uuid.UUID `json:"worker_id"`
	ShopID      uuid.UUID `json:"shop_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// WorkerReassigned is emitted after a successful hand-off.
type WorkerReassigned struct {
	BookingID    uuid.UUID  `json:"booking_id"`
	OldWorkerID  *uuid.UUID `json:"old_worker_id,omitempty"`
	NewWorkerID  uuid.UUID  `json:"new_worker_id"`
	Fallback     bool       `json:"fallback"`
	Reason       string     `json:"reason"`
	ReassignedAt time.Time  `json:"reassigned_at"`
}

// ManualAssignmentRequired is the urgent admin alert for a booking the
// cascade could not re-home.
type ManualAssignmentRequired struct {
	BookingID   uuid.UUID  `json:"booking_id"`
	ShopID      uuid.UUID  `json:"shop_id"`
	OldWorkerID *uuid.UUID `json:"old_worker_id,omitempty"`
	Reason      string     `json:"reason"`
	RaisedAt    time.Time  `json:"raised_at"`
}

// Bus is an in-process publisher/subscriber for the typed events above.
// Notification and audit I/O happen on the subscriber side; the core only
// emits.
type Bus struct {
	pubsub *gochannel.GoChannel
	log    *logrus.Logger
}

func NewBus(log *logrus.Logger) *Bus {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, newLogrusAdapter(log))

	return &Bus{pubsub: pubsub, log: log}
}

// Publish serializes the payload and hands it to subscribers.
func (b *Bus) Publish(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal %s payload: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("events: publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns the message stream of one topic.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// logrusAdapter bridges the bus's internal logging onto the service logger.
type logrusAdapter struct {
	log    *logrus.Logger
	fields watermill.LogFields
}

func newLogrusAdapter(log *logrus.Logger) watermill.LoggerAdapter {
	return &logrusAdapter{log: log}
}

func (a *logrusAdapter) entry(fields watermill.LogFields) *logrus.Entry {
	return a.log.WithFields(logrus.Fields(a.fields.Add(fields)))
}

func (a *logrusAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.entry(fields).WithError(err).Error(msg)
}

func (a *logrusAdapter) Info(msg string, fields watermill.LogFields) {
	a.entry(fields).Info(msg)
}

func (a *logrusAdapter) Debug(msg string, fields watermill.LogFields) {
	a.entry(fields).Debug(msg)
}

func (a *logrusAdapter) Trace(msg string, fields watermill.LogFields) {
	a.entry(fields).Trace(msg)
}

func (a *logrusAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &logrusAdapter{log: a.log, fields: a.fields.Add(fields)}
}
