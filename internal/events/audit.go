package events

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/goroutine"
)

// StartAuditLogger subscribes to every core topic and writes one structured
// log line per event. It is the in-process stand-in for the external audit
// collaborator; notification dispatchers subscribe the same way.
func StartAuditLogger(ctx context.Context, bus *Bus, log *logrus.Logger) error {
	for _, topic := range AllTopics {
		messages, err := bus.Subscribe(ctx, topic)
		if err != nil {
			return err
		}

		topic := topic
		goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-messages:
					if !ok {
						return
					}
					log.WithFields(logrus.Fields{
						"topic":      topic,
						"message_id": msg.UUID,
						"payload":    string(msg.Payload),
					}).Info("audit event")
					msg.Ack()
				}
			}
		})
	}
	return nil
}
