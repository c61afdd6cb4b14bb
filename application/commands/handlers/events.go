package handlers

import (
	"context"

	"friendship-backend/application/ports"
	"friendship-backend/domain/events"

	"go.uber.org/zap"
)

// publishEvents sends events after a successful write. A publishing failure
// is logged and never fails the command.
func publishEvents(ctx context.Context, publisher ports.EventPublisher, logger *zap.Logger, evts []events.DomainEvent) {
	if publisher == nil || len(evts) == 0 {
		return
	}
	if err := publisher.PublishBatch(ctx, evts); err != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("count", len(evts)),
			zap.String("first_type", evts[0].GetEventType()),
			zap.Error(err),
		)
	}
}
