package service

import (
	"go-bazaar-admin/internal/notify"

	"go.uber.org/zap"
)

// EventPublisher pushes live events to connected dashboards
type EventPublisher interface {
	Publish(eventType, message string, data interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, interface{}) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// deliver sends a notification; failures are logged and never returned
func deliver(log *zap.Logger, n notify.Notifier, to string, msg notify.Message) {
	if err := n.Send(to, msg.Subject, msg.Body); err != nil {
		log.Warn("notification failed",
			zap.String("to", to),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
	}
}
