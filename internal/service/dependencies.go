package service

import "context"

// TxManager groups several repository writes into one atomic unit of work.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher hands typed events to external notification and audit
// collaborators. The core never performs delivery itself.
type EventPublisher interface {
	Publish(topic string, payload interface{}) error
}
