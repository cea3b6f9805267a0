package events

import (
	"context"

	"introportal_backend/platform/logger"
)

// RegisterLogging subscribes an audit-log consumer to every domain event so
// published events always have at least one reader. Additional consumers
// (notifications, analytics) subscribe the same way.
func RegisterLogging(bus Bus, log *logger.Logger) {
	handler := HandlerFunc(func(_ context.Context, event Event) error {
		log.Info("domain event", "event", event.EventName(), "occurredAt", event.OccurredAt())
		return nil
	})

	for _, event := range []Event{
		ConsumerProvisioned{},
		LeadCreated{},
		LeadAccepted{},
		LeadDeclined{},
		LeadStatusChanged{},
		BatchIntakeCompleted{},
	} {
		bus.Subscribe(event.EventName(), handler)
	}
}
